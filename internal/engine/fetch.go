package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request describes a single upstream round trip.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Browser routes the request through BrowserClient (Chrome TLS fingerprint) when one is configured.
	Browser bool
}

// StatusError is returned for any non-200 upstream response.
type StatusError struct {
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Snippet)
}

// Temporary reports whether the status is one upstream uses for transient refusals (429, 5xx).
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

type fetchResult struct {
	data   []byte
	status int
	err    error
}

// FetchBytes performs one rate-limited request bounded by Cfg.FetchTimeout and returns the body.
// It never retries; retry policy belongs to the caller.
func FetchBytes(ctx context.Context, r Request) ([]byte, error) {
	metrics.FetchRequests.Add(1)

	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			metrics.FetchErrors.Add(1)
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	var res fetchResult
	if r.Browser && cfg.BrowserClient != nil {
		res = fetchViaBrowser(ctx, r)
	} else {
		res = fetchViaHTTP(ctx, r)
	}
	if res.err != nil {
		metrics.FetchErrors.Add(1)
		return nil, res.err
	}
	if res.status != http.StatusOK {
		metrics.FetchErrors.Add(1)
		return nil, &StatusError{Code: res.status, Snippet: TruncateRunes(string(res.data), 200, "...")}
	}
	return res.data, nil
}

func fetchViaHTTP(ctx context.Context, r Request) fetchResult {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return fetchResult{err: err}
	}
	for k, v := range r.Headers {
		// net/http negotiates and decodes gzip itself only when we leave Accept-Encoding alone.
		if strings.EqualFold(k, "accept-encoding") {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return fetchResult{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBodyBytes))
	if err != nil {
		return fetchResult{status: resp.StatusCode, err: fmt.Errorf("read body: %w", err)}
	}
	return fetchResult{data: data, status: resp.StatusCode}
}

// fetchViaBrowser adapts the context-less BrowserClient to ctx cancellation.
func fetchViaBrowser(ctx context.Context, r Request) fetchResult {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	done := make(chan fetchResult, 1)
	go func() {
		var body io.Reader
		if r.Body != nil {
			body = bytes.NewReader(r.Body)
		}
		data, _, status, err := cfg.BrowserClient.Do(method, r.URL, r.Headers, body)
		if err != nil {
			done <- fetchResult{err: fmt.Errorf("browser fetch: %w", err)}
			return
		}
		done <- fetchResult{data: data, status: status}
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return fetchResult{err: ctx.Err()}
	}
}
