package sources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Method tags for the fixed tiers. Priority tiers are "<kind>-priority-<lang>".
const (
	MethodManualPreferred = "manual-preferred-language"
	MethodAutoPreferred   = "auto-preferred-language"
	MethodManualAny       = "manual-any"
	MethodAutoAny         = "auto-any"
	MethodLastResort      = "last-resort"
)

// Tier is one ranked candidate in the fallback search order.
// Format is the caption format requested from upstream; empty means upstream's default
// markup. The last-resort tier re-requests the first declared track in that default format,
// so it may revisit a track an earlier tier already failed on.
type Tier struct {
	Method    string
	Match     func(engine.CaptionTrack) bool
	Format    string
	FirstOnly bool
}

// BuildTiers lays out the search order: preferred language (manual, auto), every priority
// language manual then auto, any manual, any auto, and finally the first declared track.
func BuildTiers(preferred string, priority []string) []Tier {
	tiers := make([]Tier, 0, 2*len(priority)+5)
	if preferred != "" {
		tiers = append(tiers,
			Tier{Method: MethodManualPreferred, Match: matchLanguage(preferred, engine.TrackManual), Format: FormatJSON3},
			Tier{Method: MethodAutoPreferred, Match: matchLanguage(preferred, engine.TrackAuto), Format: FormatJSON3},
		)
	}
	for _, kind := range []engine.TrackKind{engine.TrackManual, engine.TrackAuto} {
		for _, lang := range priority {
			tiers = append(tiers, Tier{
				Method: fmt.Sprintf("%s-priority-%s", kind, lang),
				Match:  matchLanguage(lang, kind),
				Format: FormatJSON3,
			})
		}
	}
	return append(tiers,
		Tier{Method: MethodManualAny, Match: matchKind(engine.TrackManual), Format: FormatJSON3},
		Tier{Method: MethodAutoAny, Match: matchKind(engine.TrackAuto), Format: FormatJSON3},
		Tier{Method: MethodLastResort, FirstOnly: true},
	)
}

func matchLanguage(lang string, kind engine.TrackKind) func(engine.CaptionTrack) bool {
	return func(t engine.CaptionTrack) bool {
		return t.Kind == kind && engine.LanguageMatches(t.LanguageCode, lang)
	}
}

func matchKind(kind engine.TrackKind) func(engine.CaptionTrack) bool {
	return func(t engine.CaptionTrack) bool { return t.Kind == kind }
}

// pick returns the index of the first untried track this tier accepts, or -1.
func (t Tier) pick(tracks []engine.CaptionTrack, tried []bool) int {
	if t.FirstOnly {
		if len(tracks) == 0 {
			return -1
		}
		return 0
	}
	for i, track := range tracks {
		if !tried[i] && t.Match(track) {
			return i
		}
	}
	return -1
}

// TrackFetcher fetches one caption track in the given format and decodes it.
type TrackFetcher func(ctx context.Context, track engine.CaptionTrack, format string) ([]engine.CaptionSegment, error)

// SelectTranscript walks tiers in order and returns the first track that decodes to a
// non-empty transcript. Track failures are logged and advance the search; a track that
// already failed is not fetched again by a later json3 tier.
func SelectTranscript(ctx context.Context, tracks []engine.CaptionTrack, tiers []Tier, fetch TrackFetcher) (engine.TranscriptResult, error) {
	if len(tracks) == 0 {
		return engine.TranscriptResult{}, ErrCaptionsDisabled
	}

	tried := make([]bool, len(tracks))
	var lastErr error
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return engine.TranscriptResult{}, err
		}
		idx := tier.pick(tracks, tried)
		if idx < 0 {
			continue
		}
		tried[idx] = true
		track := tracks[idx]

		segments, err := fetch(ctx, track, tier.Format)
		if err != nil {
			lastErr = err
			slog.Warn("youtube: caption tier failed",
				slog.String("tier", tier.Method),
				slog.String("lang", track.LanguageCode),
				slog.Any("err", err))
			continue
		}
		slog.Debug("youtube: caption tier selected",
			slog.String("tier", tier.Method),
			slog.String("lang", track.LanguageCode),
			slog.Int("segments", len(segments)))
		return engine.TranscriptResult{
			Segments: segments,
			Language: track.LanguageCode,
			Method:   tier.Method,
		}, nil
	}

	if lastErr == nil {
		lastErr = ErrNoSegments
	}
	return engine.TranscriptResult{}, fmt.Errorf("%w: %w", ErrAllStrategiesExhausted, lastErr)
}
