package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const (
	// captionsMarker is the structural key of the captions object inside the player config.
	captionsMarker    = `"captions":`
	captionsEndMarker = `,"videoDetails`
	// playerResponseMarker is the variable assignment that embeds the whole player config.
	playerResponseMarker = "ytInitialPlayerResponse = "
)

var playabilityRe = regexp.MustCompile(`"playabilityStatus":\{"status":"([A-Z_]+)"`)

// pageDirectory is what one extraction pattern recovered from a watch page.
type pageDirectory struct {
	captions    *captionsRenderer
	playability *playabilityStatus
}

type pageExtractor struct {
	name    string
	extract func(text string) (pageDirectory, bool)
}

// pageExtractors are tried in order; the embedding format varies between page builds.
var pageExtractors = []pageExtractor{
	{name: "captions-marker", extract: extractCaptionsMarker},
	{name: "player-response", extract: extractPlayerResponse},
}

// extractCaptionsMarker takes the first "captions": object that carries a track list renderer.
// Other objects under the same key are skipped.
func extractCaptionsMarker(text string) (pageDirectory, bool) {
	for {
		idx := strings.Index(text, captionsMarker)
		if idx < 0 {
			return pageDirectory{}, false
		}
		text = text[idx+len(captionsMarker):]
		if cr, ok := decodeCaptions(strings.TrimLeft(text, " \n\t")); ok && cr.PlayerCaptionsTracklistRenderer != nil {
			return pageDirectory{captions: cr}, true
		}
	}
}

func decodeCaptions(rest string) (*captionsRenderer, bool) {
	var cr captionsRenderer
	if end := strings.Index(rest, captionsEndMarker); end >= 0 {
		raw := strings.ReplaceAll(rest[:end], "\n", "")
		if json.Unmarshal([]byte(raw), &cr) == nil {
			return &cr, true
		}
	}
	raw := extractJSON([]byte(rest))
	if raw == nil || json.Unmarshal(raw, &cr) != nil {
		return nil, false
	}
	return &cr, true
}

func extractPlayerResponse(text string) (pageDirectory, bool) {
	idx := strings.Index(text, playerResponseMarker)
	if idx < 0 {
		return pageDirectory{}, false
	}
	raw := extractJSON([]byte(strings.TrimLeft(text[idx+len(playerResponseMarker):], " ")))
	if raw == nil {
		return pageDirectory{}, false
	}
	var pr playerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return pageDirectory{}, false
	}
	return pageDirectory{captions: pr.Captions, playability: pr.PlayabilityStatus}, true
}

// ResolveTracks fetches the public watch page of videoID and returns its caption tracks
// in upstream order.
func (a *Acquirer) ResolveTracks(ctx context.Context, videoID string) ([]engine.CaptionTrack, error) {
	engine.IncrPageFetch()

	headers := engine.ChromeHeaders()
	headers["accept-language"] = "en-US,en;q=0.9"
	body, err := engine.FetchBytes(ctx, engine.Request{
		URL:     a.cfg.WatchURL + videoID,
		Headers: headers,
		Browser: true,
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	return parseWatchPage(body)
}

// parseWatchPage classifies a watch page and extracts its caption directory.
func parseWatchPage(body []byte) ([]engine.CaptionTrack, error) {
	var candidates []string
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		if doc.Find(`form[action*="consent.youtube.com"]`).Length() > 0 {
			return nil, fmt.Errorf("consent interstitial: %w", ErrTooManyRequests)
		}
		if doc.Find(".g-recaptcha").Length() > 0 {
			return nil, fmt.Errorf("captcha challenge: %w", ErrTooManyRequests)
		}
		doc.Find("script").Each(func(_ int, s *goquery.Selection) {
			if text := s.Text(); strings.Contains(text, captionsMarker) || strings.Contains(text, playerResponseMarker) {
				candidates = append(candidates, text)
			}
		})
	}
	candidates = append(candidates, string(body))

	dir, found := extractDirectory(candidates)

	playability := dir.playability
	if playability == nil {
		if m := playabilityRe.FindSubmatch(body); m != nil {
			playability = &playabilityStatus{Status: string(m[1])}
		}
	}
	if playability.unplayable() {
		return nil, &UnavailableError{Status: playability.Status, Reason: playability.Reason}
	}

	if !found {
		if playability == nil {
			return nil, fmt.Errorf("player configuration not found: %w", ErrVideoUnavailable)
		}
		return nil, fmt.Errorf("no captions in player configuration: %w", ErrCaptionsDisabled)
	}

	tracks := dir.captions.tracks()
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no caption tracks declared: %w", ErrCaptionsDisabled)
	}
	return tracks, nil
}

func extractDirectory(candidates []string) (pageDirectory, bool) {
	for _, ex := range pageExtractors {
		for _, text := range candidates {
			if dir, ok := ex.extract(text); ok {
				return dir, true
			}
		}
	}
	return pageDirectory{}, false
}
