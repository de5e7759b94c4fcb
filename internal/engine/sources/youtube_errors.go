package sources

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

var (
	ErrInvalidVideoID         = errors.New("invalid video id")
	ErrCaptionsDisabled       = errors.New("captions disabled")
	ErrVideoUnavailable       = errors.New("video unavailable")
	ErrTooManyRequests        = errors.New("too many requests")
	ErrPoTokenRequired        = errors.New("caption track requires a PoToken")
	ErrNoSegments             = errors.New("no caption segments")
	ErrAllStrategiesExhausted = errors.New("all strategies exhausted")
)

// UnavailableError carries the playability status upstream reported for a video.
type UnavailableError struct {
	Status string
	Reason string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("video unavailable: %s", e.Status)
	}
	return fmt.Sprintf("video unavailable: %s: %s", e.Status, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrVideoUnavailable }

// Reason is the classified cause of a failed acquisition.
type Reason string

const (
	ReasonCaptionsDisabled Reason = "captions_disabled"
	ReasonVideoUnavailable Reason = "video_unavailable"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonNetwork          Reason = "network"
	ReasonExhausted        Reason = "exhausted"
)

// Message is the user-facing text for the reason. Raw upstream errors never reach callers.
func (r Reason) Message() string {
	switch r {
	case ReasonCaptionsDisabled:
		return "No captions are available for this video"
	case ReasonVideoUnavailable:
		return "Video is unavailable, private, or restricted"
	case ReasonRateLimited:
		return "YouTube is limiting transcript requests right now; try again later"
	case ReasonNetwork:
		return "Could not reach YouTube to fetch the transcript; try again later"
	default:
		return "Transcript could not be retrieved after trying every caption source"
	}
}

// specificity ranks reasons so the most informative one wins across both paths.
func (r Reason) specificity() int {
	switch r {
	case ReasonCaptionsDisabled, ReasonVideoUnavailable:
		return 3
	case ReasonRateLimited:
		return 2
	case ReasonNetwork:
		return 1
	}
	return 0
}

// AcquisitionError is returned when both the primary and the secondary path are exhausted.
type AcquisitionError struct {
	Reason    Reason
	Primary   error
	Secondary error
}

func newAcquisitionError(primary, secondary error) *AcquisitionError {
	reason := Classify(primary)
	if r := Classify(secondary); r.specificity() > reason.specificity() {
		reason = r
	}
	return &AcquisitionError{Reason: reason, Primary: primary, Secondary: secondary}
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("transcript acquisition failed (%s): primary: %v; secondary: %v", e.Reason, e.Primary, e.Secondary)
}

func (e *AcquisitionError) Unwrap() []error { return []error{e.Primary, e.Secondary} }

// Classify maps any acquisition error onto a Reason.
func Classify(err error) Reason {
	var acqErr *AcquisitionError
	if errors.As(err, &acqErr) {
		return acqErr.Reason
	}
	switch {
	case err == nil:
		return ReasonExhausted
	case errors.Is(err, ErrCaptionsDisabled):
		return ReasonCaptionsDisabled
	case errors.Is(err, ErrVideoUnavailable):
		return ReasonVideoUnavailable
	case errors.Is(err, ErrTooManyRequests):
		return ReasonRateLimited
	case errors.Is(err, ErrAllStrategiesExhausted):
		return ReasonExhausted
	}

	var statusErr *engine.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == 429:
			return ReasonRateLimited
		case statusErr.Temporary():
			return ReasonNetwork
		}
		return ReasonExhausted
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonNetwork
	}
	return ReasonExhausted
}
