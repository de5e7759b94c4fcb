package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests atomic.Int64
	InvalidRequests    atomic.Int64
	PrimarySuccesses   atomic.Int64
	SecondarySuccesses atomic.Int64
	TranscriptFailures atomic.Int64
	CaptionsDisabled   atomic.Int64
	PageFetches        atomic.Int64
	TrackFetches       atomic.Int64
	TrackFailures      atomic.Int64
	DecodeFallbacks    atomic.Int64
	FetchRequests      atomic.Int64
	FetchErrors        atomic.Int64
	BatchRequests      atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"invalid_requests":    metrics.InvalidRequests.Load(),
		"primary_successes":   metrics.PrimarySuccesses.Load(),
		"secondary_successes": metrics.SecondarySuccesses.Load(),
		"transcript_failures": metrics.TranscriptFailures.Load(),
		"captions_disabled":   metrics.CaptionsDisabled.Load(),
		"page_fetches":        metrics.PageFetches.Load(),
		"track_fetches":       metrics.TrackFetches.Load(),
		"track_failures":      metrics.TrackFailures.Load(),
		"decode_fallbacks":    metrics.DecodeFallbacks.Load(),
		"fetch_requests":      metrics.FetchRequests.Load(),
		"fetch_errors":        metrics.FetchErrors.Load(),
		"batch_requests":      metrics.BatchRequests.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"transcript_requests", "invalid_requests",
		"primary_successes", "secondary_successes",
		"transcript_failures", "captions_disabled",
		"page_fetches", "track_fetches", "track_failures", "decode_fallbacks",
		"fetch_requests", "fetch_errors",
		"batch_requests",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and ytserver/ sub-packages.
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrInvalidRequests()    { metrics.InvalidRequests.Add(1) }
func IncrPrimarySuccess()     { metrics.PrimarySuccesses.Add(1) }
func IncrSecondarySuccess()   { metrics.SecondarySuccesses.Add(1) }
func IncrTranscriptFailure()  { metrics.TranscriptFailures.Add(1) }
func IncrCaptionsDisabled()   { metrics.CaptionsDisabled.Add(1) }
func IncrPageFetch()          { metrics.PageFetches.Add(1) }
func IncrTrackFetch()         { metrics.TrackFetches.Add(1) }
func IncrTrackFailure()       { metrics.TrackFailures.Add(1) }
func IncrDecodeFallback()     { metrics.DecodeFallbacks.Add(1) }
func IncrBatchRequests()      { metrics.BatchRequests.Add(1) }
