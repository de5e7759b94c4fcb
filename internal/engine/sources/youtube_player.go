package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// MethodPlayerFallback tags transcripts obtained through the ANDROID /player path.
const MethodPlayerFallback = "player-fallback"

// acquireViaPlayer is the secondary path: ANDROID Innertube /player instead of the watch
// page, and a plain single-language pick instead of the tier table.
func (a *Acquirer) acquireViaPlayer(ctx context.Context, videoID, lang string) (engine.TranscriptResult, error) {
	data, err := postInnertubeAndroid(ctx, a.cfg.PlayerURL, innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return engine.TranscriptResult{}, err
	}

	var pr playerResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return engine.TranscriptResult{}, fmt.Errorf("decode player: %w", err)
	}
	if pr.PlayabilityStatus.unplayable() {
		return engine.TranscriptResult{}, &UnavailableError{Status: pr.PlayabilityStatus.Status, Reason: pr.PlayabilityStatus.Reason}
	}
	tracks := pr.Captions.tracks()
	if len(tracks) == 0 {
		return engine.TranscriptResult{}, fmt.Errorf("player response: %w", ErrCaptionsDisabled)
	}

	track := pickPlayerTrack(tracks, lang)
	segments, err := a.FetchTrack(ctx, track, FormatJSON3)
	if err != nil {
		return engine.TranscriptResult{}, err
	}
	return engine.TranscriptResult{
		Segments: segments,
		Language: track.LanguageCode,
		Method:   MethodPlayerFallback,
	}, nil
}

// pickPlayerTrack takes the preferred language, else English, else the first track.
func pickPlayerTrack(tracks []engine.CaptionTrack, lang string) engine.CaptionTrack {
	for _, want := range []string{lang, "en"} {
		for _, t := range tracks {
			if engine.LanguageMatches(t.LanguageCode, want) {
				return t
			}
		}
	}
	return tracks[0]
}
