package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// FormatJSON3 is the segmented-event caption format.
const FormatJSON3 = "json3"

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(locator string) bool {
	return strings.Contains(locator, "&exp=xpe")
}

// withFormat sets the fmt query parameter on a caption locator.
func withFormat(locator, format string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse caption locator: %w", err)
	}
	q := u.Query()
	q.Set("fmt", format)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchTrack downloads one caption track in format (empty keeps upstream's default markup)
// and decodes it. A decode with no non-empty segment is a failure of this track.
func (a *Acquirer) FetchTrack(ctx context.Context, track engine.CaptionTrack, format string) ([]engine.CaptionSegment, error) {
	engine.IncrTrackFetch()
	segments, err := a.fetchTrack(ctx, track, format)
	if err != nil {
		engine.IncrTrackFailure()
		return nil, fmt.Errorf("%s %s track: %w", track.LanguageCode, track.Kind, err)
	}
	return segments, nil
}

func (a *Acquirer) fetchTrack(ctx context.Context, track engine.CaptionTrack, format string) ([]engine.CaptionSegment, error) {
	if needsPoToken(track.Locator) {
		return nil, ErrPoTokenRequired
	}
	trackURL := track.Locator
	if format != "" {
		u, err := withFormat(track.Locator, format)
		if err != nil {
			return nil, err
		}
		trackURL = u
	}

	data, err := engine.FetchBytes(ctx, engine.Request{
		URL: trackURL,
		Headers: map[string]string{
			"User-Agent":      engine.RandomUserAgent(),
			"Accept-Language": "en-US,en;q=0.9",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	segments, err := a.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	for _, s := range segments {
		if s.Text != "" {
			return segments, nil
		}
	}
	return nil, ErrNoSegments
}
