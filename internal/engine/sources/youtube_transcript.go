package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// YouTube transcript acquisition.
// Primary:   watch page → caption directory → tier table → json3/timedtext   (retried)
// Secondary: ANDROID Innertube /player → single-language pick → json3/timedtext (retried)

var (
	videoIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoURLRe = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
)

// ValidVideoID reports whether id is an 11-character YouTube video id.
func ValidVideoID(id string) bool {
	return videoIDRe.MatchString(id)
}

// ExtractVideoID pulls the 11-char video id out of any common YouTube URL form.
// Anything else is returned trimmed and unchanged; ValidVideoID decides.
func ExtractVideoID(s string) string {
	s = strings.TrimSpace(s)
	if m := videoURLRe.FindStringSubmatch(s); len(m) >= 2 {
		return m[1]
	}
	return s
}

// AcquirerConfig configures an Acquirer. Retry policies are explicit so each
// environment (and each test) sets its own attempt counts and delays.
type AcquirerConfig struct {
	WatchURL       string
	PlayerURL      string
	Languages      []string
	Primary        engine.RetryConfig
	Secondary      engine.RetryConfig
	AttemptTimeout time.Duration
}

// DefaultAcquirerConfig returns production endpoints and retry policies.
func DefaultAcquirerConfig() AcquirerConfig {
	return AcquirerConfig{
		WatchURL:       ytWatchURL,
		PlayerURL:      ytPlayerURL,
		Languages:      engine.Cfg.LanguagePriority,
		Primary:        engine.DefaultRetryConfig,
		Secondary:      engine.DefaultFallbackRetryConfig,
		AttemptTimeout: 25 * time.Second,
	}
}

// Acquirer obtains timed transcripts for YouTube videos. It holds no per-request state
// and is safe for concurrent use.
type Acquirer struct {
	cfg     AcquirerConfig
	decoder Decoder
}

// NewAcquirer creates an Acquirer. Empty endpoints and languages fall back to defaults.
func NewAcquirer(cfg AcquirerConfig) *Acquirer {
	if cfg.WatchURL == "" {
		cfg.WatchURL = ytWatchURL
	}
	if cfg.PlayerURL == "" {
		cfg.PlayerURL = ytPlayerURL
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = engine.DefaultLanguagePriority
	}
	return &Acquirer{cfg: cfg, decoder: captionDecoder}
}

// Acquire returns the transcript of videoID, preferring lang when given.
// The primary path is retried first; only when it is exhausted is the secondary path
// tried. If both fail the error is an *AcquisitionError.
func (a *Acquirer) Acquire(ctx context.Context, videoID, lang string) (engine.TranscriptResult, error) {
	if !ValidVideoID(videoID) {
		return engine.TranscriptResult{}, fmt.Errorf("%q: %w", videoID, ErrInvalidVideoID)
	}
	lang = engine.NormalizeLanguage(lang)
	tiers := BuildTiers(lang, a.cfg.Languages)

	res, primaryErr := engine.RetryDo(ctx, a.cfg.Primary, func(ctx context.Context) (engine.TranscriptResult, error) {
		ctx, cancel := a.attemptContext(ctx)
		defer cancel()
		tracks, err := a.ResolveTracks(ctx, videoID)
		if err != nil {
			return engine.TranscriptResult{}, err
		}
		return SelectTranscript(ctx, tracks, tiers, a.FetchTrack)
	})
	if primaryErr == nil {
		engine.IncrPrimarySuccess()
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return engine.TranscriptResult{}, err
	}
	slog.Warn("youtube: primary transcript path exhausted, trying player fallback",
		slog.String("id", videoID), slog.Any("err", primaryErr))

	res, secondaryErr := engine.RetryDo(ctx, a.cfg.Secondary, func(ctx context.Context) (engine.TranscriptResult, error) {
		ctx, cancel := a.attemptContext(ctx)
		defer cancel()
		return a.acquireViaPlayer(ctx, videoID, lang)
	})
	if secondaryErr == nil {
		engine.IncrSecondarySuccess()
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return engine.TranscriptResult{}, err
	}

	acqErr := newAcquisitionError(primaryErr, secondaryErr)
	engine.IncrTranscriptFailure()
	if acqErr.Reason == ReasonCaptionsDisabled {
		engine.IncrCaptionsDisabled()
	}
	slog.Warn("youtube: transcript unavailable",
		slog.String("id", videoID),
		slog.String("reason", string(acqErr.Reason)),
		slog.Any("err", errors.Join(primaryErr, secondaryErr)))
	return engine.TranscriptResult{}, acqErr
}

func (a *Acquirer) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.AttemptTimeout)
}
