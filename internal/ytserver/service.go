package ytserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/go-playground/validator/v10"
)

// MaxBatchSize caps the number of ids in one batch request.
const MaxBatchSize = 50

// Acquirer is the acquisition engine as seen from the boundary.
type Acquirer interface {
	Acquire(ctx context.Context, videoID, lang string) (engine.TranscriptResult, error)
}

// Service runs transcript requests for both the MCP tools and the REST API.
type Service struct {
	acq         Acquirer
	validate    *validator.Validate
	concurrency int
}

// NewService wraps acq. Batch concurrency comes from engine.Cfg.
func NewService(acq Acquirer) *Service {
	return &Service{
		acq:         acq,
		validate:    newValidator(),
		concurrency: engine.Cfg.BatchConcurrency,
	}
}

type transcriptRequest struct {
	VideoID string `json:"videoId" validate:"required,videoid"`
	Lang    string `json:"lang" validate:"omitempty,max=35"`
}

type batchRequest struct {
	VideoIDs []string `json:"videoIds" validate:"required,min=1,max=50"`
	Lang     string   `json:"lang" validate:"omitempty,max=35"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("videoid", func(fl validator.FieldLevel) bool {
		return sources.ValidVideoID(fl.Field().String())
	})
	return v
}

// validationMessage renders the first field error as a caller-facing message.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "videoid":
		return e.Field() + " must be an 11-character YouTube video id"
	case "max":
		return fmt.Sprintf("%s exceeds the limit of %s", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s", e.Field(), e.Param())
	default:
		return e.Field() + " is invalid"
	}
}

// Transcript returns the transcript row for one video. It never fails: invalid input and
// acquisition failures are both reported inside the output.
func (s *Service) Transcript(ctx context.Context, videoID, lang string) engine.TranscriptOutput {
	videoID = sources.ExtractVideoID(videoID)
	lang = toolutil.NormLang(lang)
	if err := s.validate.Struct(transcriptRequest{VideoID: videoID, Lang: lang}); err != nil {
		engine.IncrInvalidRequests()
		return InvalidOutput(videoID, errors.New(validationMessage(err)))
	}
	engine.IncrTranscriptRequests()

	cacheKey := engine.CacheKey("transcript", videoID, lang)
	if out, ok := toolutil.CacheLoadJSON[engine.TranscriptOutput](ctx, cacheKey); ok {
		return out
	}

	out := s.acquire(ctx, videoID, lang)
	if out.Status == engine.StatusOK {
		toolutil.CacheStoreJSON(ctx, cacheKey, out)
	}
	return out
}

// acquire runs the engine and assembles the outcome. A panic inside acquisition becomes a
// failed row.
func (s *Service) acquire(ctx context.Context, videoID, lang string) (out engine.TranscriptOutput) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("transcript: panic recovered",
				slog.String("id", videoID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			engine.IncrTranscriptFailure()
			out = Assemble(videoID, engine.TranscriptResult{}, fmt.Errorf("panic: %v", r))
		}
	}()
	res, err := s.acq.Acquire(ctx, videoID, lang)
	return Assemble(videoID, res, err)
}

// Batch returns one row per id, in request order. The error is non-nil only when the
// batch itself is malformed (empty or too large); per-id problems stay in the rows.
func (s *Service) Batch(ctx context.Context, videoIDs []string, lang string) (engine.TranscriptBatchOutput, error) {
	lang = toolutil.NormLang(lang)
	if err := s.validate.Struct(batchRequest{VideoIDs: videoIDs, Lang: lang}); err != nil {
		engine.IncrInvalidRequests()
		return engine.TranscriptBatchOutput{}, errors.New(validationMessage(err))
	}
	engine.IncrBatchRequests()

	results := toolutil.RunBatch(ctx, videoIDs, s.concurrency, func(ctx context.Context, id string) engine.TranscriptOutput {
		return s.Transcript(ctx, id, lang)
	})
	return engine.TranscriptBatchOutput{Results: results}, nil
}
