package engine

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	FetchTimeout         time.Duration
	MaxBodyBytes         int64
	LanguagePriority     []string
	CacheMaxAge          time.Duration
	CacheStale           time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	BatchConcurrency     int
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain net/http for page fetches
	Limiter              *rate.Limiter  // nil = unlimited upstream request rate
}

var cfg = Config{
	FetchTimeout:     10 * time.Second,
	MaxBodyBytes:     6 * 1024 * 1024,
	LanguagePriority: DefaultLanguagePriority,
	CacheMaxAge:      time.Hour,
	CacheStale:       24 * time.Hour,
	BatchConcurrency: 4,
	HTTPClient:       http.DefaultClient,
}

// Cfg exposes the engine configuration for sub-packages (sources, ytserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
// Zero values fall back to the package defaults.
func Init(c Config) {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 6 * 1024 * 1024
	}
	c.LanguagePriority = compactLanguages(c.LanguagePriority)
	if len(c.LanguagePriority) == 0 {
		c.LanguagePriority = DefaultLanguagePriority
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 4
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	cfg = c
	Cfg = &cfg
}

// NewLimiter builds the upstream request limiter. rps <= 0 disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// compactLanguages canonicalizes a priority list and drops blanks and duplicates.
func compactLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	seen := make(map[string]bool, len(langs))
	for _, l := range langs {
		l = NormalizeLanguage(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
