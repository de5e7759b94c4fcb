// Package ytserver is the transcript service boundary: it validates requests, runs the
// acquisition engine and turns every outcome into a well-formed TranscriptOutput.
// It serves the same operations over MCP tools and a gin REST API.
package ytserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

const noStore = "no-store, no-cache, must-revalidate, max-age=0"

// Assemble maps an acquisition outcome onto the response row.
// Only invalid input yields Success=false; acquisition failures keep Success=true and are
// told apart by Status and Error.
func Assemble(videoID string, res engine.TranscriptResult, err error) engine.TranscriptOutput {
	if err != nil {
		if errors.Is(err, sources.ErrInvalidVideoID) {
			return InvalidOutput(videoID, err)
		}
		reason := sources.Classify(err)
		status := engine.StatusFailed
		if reason == sources.ReasonCaptionsDisabled {
			status = engine.StatusNoCaptions
		}
		return engine.TranscriptOutput{
			Success:  true,
			Status:   status,
			VideoID:  videoID,
			Segments: []engine.CaptionSegment{},
			Error:    reason.Message(),
		}
	}

	segments := res.Segments
	if segments == nil {
		segments = []engine.CaptionSegment{}
	}
	status := engine.StatusOK
	if len(segments) == 0 {
		status = engine.StatusNoCaptions
	}
	return engine.TranscriptOutput{
		Success:  true,
		Status:   status,
		VideoID:  videoID,
		Language: res.Language,
		Segments: segments,
		Raw:      JoinRaw(segments),
		Method:   res.Method,
	}
}

// InvalidOutput is the response for a request rejected before acquisition.
func InvalidOutput(videoID string, err error) engine.TranscriptOutput {
	msg := "videoId must be an 11-character YouTube video id"
	if err != nil && !errors.Is(err, sources.ErrInvalidVideoID) {
		msg = err.Error()
	}
	return engine.TranscriptOutput{
		Success:  false,
		Status:   engine.StatusInvalid,
		VideoID:  videoID,
		Segments: []engine.CaptionSegment{},
		Error:    msg,
	}
}

// JoinRaw joins segment texts with single spaces.
func JoinRaw(segments []engine.CaptionSegment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}

// CacheControl returns the Cache-Control value for a response: cacheable when it carries
// segments, explicitly uncacheable otherwise.
func CacheControl(out engine.TranscriptOutput, maxAge, stale time.Duration) string {
	if len(out.Segments) == 0 || maxAge <= 0 {
		return noStore
	}
	v := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	if stale > 0 {
		v += fmt.Sprintf(", stale-while-revalidate=%d", int(stale.Seconds()))
	}
	return v
}
