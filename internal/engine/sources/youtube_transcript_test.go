package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const testVideoID = "dQw4w9WgXcQ"

// fakeYouTube serves a watch page, the /player endpoint and caption tracks.
// "{{base}}" in any body is replaced with the server URL. An empty body means HTTP 500.
type fakeYouTube struct {
	watchPage  string
	playerJSON string
	tracks     map[string]string // lang query value → payload; missing → 404

	watchHits  atomic.Int32
	playerHits atomic.Int32
	trackHits  atomic.Int32

	mu      sync.Mutex
	formats []string
}

func (f *fakeYouTube) trackFormats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.formats...)
}

func (f *fakeYouTube) start(t *testing.T) *Acquirer {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve := func(body string) {
			if body == "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{base}}", srv.URL)))
		}
		switch r.URL.Path {
		case "/watch":
			f.watchHits.Add(1)
			serve(f.watchPage)
		case "/player":
			f.playerHits.Add(1)
			if r.Method != http.MethodPost || r.Header.Get("X-Youtube-Client-Name") != "3" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			serve(f.playerJSON)
		case "/api/timedtext":
			f.trackHits.Add(1)
			f.mu.Lock()
			f.formats = append(f.formats, r.URL.Query().Get("fmt"))
			f.mu.Unlock()
			payload, ok := f.tracks[r.URL.Query().Get("lang")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			serve(payload)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	saved := *engine.Cfg
	t.Cleanup(func() { engine.Init(saved) })
	engine.Init(engine.Config{FetchTimeout: 2 * time.Second})

	return NewAcquirer(AcquirerConfig{
		WatchURL:       srv.URL + "/watch?v=",
		PlayerURL:      srv.URL + "/player",
		Languages:      []string{"en", "es"},
		Primary:        engine.RetryConfig{MaxAttempts: 3},
		Secondary:      engine.RetryConfig{MaxAttempts: 2},
		AttemptTimeout: 5 * time.Second,
	})
}

func captionsJSON(tracks ...string) string {
	return `{"playerCaptionsTracklistRenderer":{"captionTracks":[` + strings.Join(tracks, ",") + `]}}`
}

func trackJSON(lang string, auto bool) string {
	kind := ""
	if auto {
		kind = `,"kind":"asr"`
	}
	return `{"baseUrl":"{{base}}/api/timedtext?v=` + testVideoID + `&lang=` + lang + `","languageCode":"` + lang + `"` + kind + `}`
}

func watchPage(captions string) string {
	return `<html><body><script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"captions":` +
		captions + `,"videoDetails":{"videoId":"` + testVideoID + `"}};</script></body></html>`
}

const json3Body = `{"events":[{"tStartMs":0,"dDurationMs":1500,"segs":[{"utf8":"never gonna"}]},{"tStartMs":1500,"dDurationMs":1000,"segs":[{"utf8":"give you up"}]}]}`

func TestAcquirePrimary(t *testing.T) {
	f := &fakeYouTube{
		watchPage: watchPage(captionsJSON(trackJSON("es", true), trackJSON("en", false))),
		tracks:    map[string]string{"en": json3Body, "es": json3Body},
	}
	a := f.start(t)

	res, err := a.Acquire(context.Background(), testVideoID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Language != "en" || res.Method != "manual-priority-en" {
		t.Errorf("got %s via %s, want en via manual-priority-en", res.Language, res.Method)
	}
	if len(res.Segments) != 2 || res.Segments[1].Text != "give you up" || res.Segments[1].Start != 1.5 {
		t.Errorf("segments = %+v", res.Segments)
	}
	if f.playerHits.Load() != 0 {
		t.Error("secondary path must not run after a primary success")
	}
	if formats := f.trackFormats(); len(formats) != 1 || formats[0] != "json3" {
		t.Errorf("track formats = %v, want [json3]", formats)
	}
}

func TestAcquirePreferredLanguage(t *testing.T) {
	f := &fakeYouTube{
		watchPage: watchPage(captionsJSON(trackJSON("en", false), trackJSON("es", true))),
		tracks:    map[string]string{"en": json3Body, "es": json3Body},
	}
	a := f.start(t)

	res, err := a.Acquire(context.Background(), testVideoID, "ES")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Language != "es" || res.Method != MethodAutoPreferred {
		t.Errorf("got %s via %s", res.Language, res.Method)
	}
}

func TestAcquireSecondaryAfterPrimaryExhausted(t *testing.T) {
	f := &fakeYouTube{
		watchPage:  "",
		playerJSON: `{"playabilityStatus":{"status":"OK"},"captions":` + captionsJSON(trackJSON("es", true), trackJSON("en", true)) + `}`,
		tracks:     map[string]string{"en": json3Body},
	}
	a := f.start(t)

	res, err := a.Acquire(context.Background(), testVideoID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Method != MethodPlayerFallback || res.Language != "en" {
		t.Errorf("got %s via %s", res.Language, res.Method)
	}
	if got := f.watchHits.Load(); got != 3 {
		t.Errorf("watch page hits = %d, want 3 (all primary attempts before secondary)", got)
	}
	if got := f.playerHits.Load(); got != 1 {
		t.Errorf("player hits = %d, want 1", got)
	}
}

func TestAcquireBothPathsFail(t *testing.T) {
	f := &fakeYouTube{}
	a := f.start(t)

	_, err := a.Acquire(context.Background(), testVideoID, "en")
	var acqErr *AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected *AcquisitionError, got %v", err)
	}
	if acqErr.Reason != ReasonNetwork {
		t.Errorf("reason = %s, want %s", acqErr.Reason, ReasonNetwork)
	}
	if f.watchHits.Load() != 3 || f.playerHits.Load() != 2 {
		t.Errorf("hits watch=%d player=%d, want 3 and 2", f.watchHits.Load(), f.playerHits.Load())
	}
}

func TestAcquireCaptionsDisabled(t *testing.T) {
	noCaptions := `<html><script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"videoDetails":{}};</script></html>`
	f := &fakeYouTube{
		watchPage:  noCaptions,
		playerJSON: `{"playabilityStatus":{"status":"OK"}}`,
	}
	a := f.start(t)

	_, err := a.Acquire(context.Background(), testVideoID, "")
	if Classify(err) != ReasonCaptionsDisabled {
		t.Errorf("Classify = %s, want %s (err %v)", Classify(err), ReasonCaptionsDisabled, err)
	}
	if f.trackHits.Load() != 0 {
		t.Error("no track should be fetched when none is declared")
	}
}

func TestAcquireAllTracksEmpty(t *testing.T) {
	empty := `{"events":[{"tStartMs":0,"dDurationMs":10,"segs":[{"utf8":"  "}]}]}`
	f := &fakeYouTube{
		watchPage:  watchPage(captionsJSON(trackJSON("en", false))),
		playerJSON: `{"captions":` + captionsJSON(trackJSON("en", false)) + `}`,
		tracks:     map[string]string{"en": empty},
	}
	a := f.start(t)

	_, err := a.Acquire(context.Background(), testVideoID, "")
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("an all-empty decode must be a failure, got %v", err)
	}
	if Classify(err) != ReasonExhausted {
		t.Errorf("Classify = %s", Classify(err))
	}
}

func TestAcquireInvalidID(t *testing.T) {
	f := &fakeYouTube{}
	a := f.start(t)

	for _, id := range []string{"!!!invalid", "", "short", "dQw4w9WgXcQx"} {
		_, err := a.Acquire(context.Background(), id, "")
		if !errors.Is(err, ErrInvalidVideoID) {
			t.Errorf("Acquire(%q) err = %v, want ErrInvalidVideoID", id, err)
		}
	}
	if f.watchHits.Load() != 0 || f.playerHits.Load() != 0 {
		t.Error("invalid ids must not reach upstream")
	}
}

func TestAcquireCanceled(t *testing.T) {
	f := &fakeYouTube{}
	a := f.start(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Acquire(ctx, testVideoID, "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAcquirePoTokenTrackSkipped(t *testing.T) {
	poTrack := `{"baseUrl":"{{base}}/api/timedtext?v=x&lang=en&exp=xpe","languageCode":"en"}`
	f := &fakeYouTube{
		watchPage: watchPage(captionsJSON(poTrack, trackJSON("es", false))),
		tracks:    map[string]string{"en": json3Body, "es": json3Body},
	}
	a := f.start(t)

	res, err := a.Acquire(context.Background(), testVideoID, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Language != "es" {
		t.Errorf("got %s, want es", res.Language)
	}
}

func TestValidVideoID(t *testing.T) {
	valid := []string{"dQw4w9WgXcQ", "a-b_c-d_e-f", "00000000000"}
	invalid := []string{"", "!!!invalid", "dQw4w9WgXc", "dQw4w9WgXcQQ", "dQw4w9WgX Q", "dQw4w9WgXc/"}
	for _, id := range valid {
		if !ValidVideoID(id) {
			t.Errorf("ValidVideoID(%q) = false", id)
		}
	}
	for _, id := range invalid {
		if ValidVideoID(id) {
			t.Errorf("ValidVideoID(%q) = true", id)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"  dQw4w9WgXcQ ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"!!!invalid", "!!!invalid"},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "https://example.com/watch?v=dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.in); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
