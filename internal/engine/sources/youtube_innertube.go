package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// YouTube watch page and Innertube API: low-level constants, types, and HTTP primitives.

const (
	ytWatchURL       = "https://www.youtube.com/watch?v="
	ytPlayerURL      = "https://www.youtube.com/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// --- player response, shared by the watch page and /player ---

type playerResponse struct {
	PlayabilityStatus *playabilityStatus `json:"playabilityStatus"`
	Captions          *captionsRenderer  `json:"captions"`
}

type playabilityStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// unplayable reports a status other than OK. An absent status is not a signal.
func (p *playabilityStatus) unplayable() bool {
	return p != nil && p.Status != "" && p.Status != "OK"
}

type captionsRenderer struct {
	PlayerCaptionsTracklistRenderer *struct {
		CaptionTracks []rawCaptionTrack `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

type rawCaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

// tracks converts declared caption tracks, in upstream order. Nil-safe.
func (c *captionsRenderer) tracks() []engine.CaptionTrack {
	if c == nil || c.PlayerCaptionsTracklistRenderer == nil {
		return nil
	}
	raw := c.PlayerCaptionsTracklistRenderer.CaptionTracks
	out := make([]engine.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		if t.BaseURL == "" {
			continue
		}
		out = append(out, t.toTrack())
	}
	return out
}

func (t rawCaptionTrack) toTrack() engine.CaptionTrack {
	kind := engine.TrackManual
	if t.Kind == "asr" {
		kind = engine.TrackAuto
	}
	name := t.Name.SimpleText
	if name == "" && len(t.Name.Runs) > 0 {
		parts := make([]string, 0, len(t.Name.Runs))
		for _, r := range t.Name.Runs {
			parts = append(parts, r.Text)
		}
		name = strings.Join(parts, "")
	}
	return engine.CaptionTrack{
		Locator:      t.BaseURL,
		LanguageCode: t.LanguageCode,
		Kind:         kind,
		DisplayName:  name,
	}
}

// postInnertubeAndroid POSTs a payload to an Innertube endpoint with ANDROID client headers.
func postInnertubeAndroid(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	data, err := engine.FetchBytes(ctx, engine.Request{
		Method: "POST",
		URL:    endpoint + "?prettyPrint=false",
		Body:   body,
		Headers: map[string]string{
			"Content-Type":             "application/json",
			"User-Agent":               ytAndroidUA,
			"X-Youtube-Client-Name":    "3",
			"X-Youtube-Client-Version": ytAndroidVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("innertube ANDROID [%s]: %w", endpoint, err)
	}
	return data, nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
