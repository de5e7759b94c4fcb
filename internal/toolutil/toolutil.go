// Package toolutil provides shared helpers for the transcript MCP tools and REST handlers.
package toolutil

import (
	"context"
	"encoding/json"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"golang.org/x/sync/errgroup"
)

// NormLang normalises a language field the way the engine matches it; empty means "no preference".
func NormLang(lang string) string {
	return engine.NormalizeLanguage(lang)
}

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	cached, ok := engine.CacheGet(ctx, key)
	if !ok {
		var zero T
		return zero, false
	}
	var out T
	if err := json.Unmarshal(cached, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	engine.CacheSet(ctx, key, data)
}

// RunBatch calls fn for every item with at most limit calls in flight and returns the
// results in input order. fn reports failures inside R, so one item never cancels the rest.
func RunBatch[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) R) []R {
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			out[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
