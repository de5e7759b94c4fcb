// go_transcript: YouTube transcript MCP server and REST API.
//
// Exposes two MCP tools (youtube_transcript, youtube_transcript_batch) and the same
// operations over HTTP under /api. Both share one acquisition engine and response cache.
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/ytserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version  = "dev"
	mcpPort  = env.Str("MCP_PORT", "8893")
	httpPort = env.Str("HTTP_PORT", "8894")
)

func main() {
	initEngine()

	svc := ytserver.NewService(sources.NewAcquirer(acquirerConfig()))

	slog.Info("starting go_transcript",
		slog.String("mcp_port", mcpPort),
		slog.String("http_port", httpPort),
	)

	if httpPort != "" {
		router := ytserver.NewRouter(svc, ytserver.HTTPConfig{
			CacheMaxAge: engine.Cfg.CacheMaxAge,
			CacheStale:  engine.Cfg.CacheStale,
		})
		srv := ytserver.NewHTTPServer(httpPort, router)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("rest server failed", slog.Any("error", err))
			}
		}()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	ytserver.RegisterTools(server, svc)
	slog.Info("tools registered", slog.Int("count", 2))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 10*time.Second),
		LanguagePriority:     env.List("LANGUAGE_PRIORITY", ""),
		CacheMaxAge:          env.Duration("CACHE_MAX_AGE", time.Hour),
		CacheStale:           env.Duration("CACHE_STALE", 24*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		BatchConcurrency:     env.Int("BATCH_CONCURRENCY", 4),
		Limiter:              engine.NewLimiter(env.Float("UPSTREAM_RPS", 5), env.Int("UPSTREAM_BURST", 10)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if env.Str("USE_BROWSER_CLIENT", "true") == "true" {
		var opts []stealth.ClientOption
		opts = append(opts, stealth.WithTimeout(15))

		if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
			pool, err := proxypool.NewWebshare(apiKey)
			if err != nil {
				slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
			} else {
				opts = append(opts, stealth.WithProxyPool(pool))
				slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
			}
		}

		bc, err := stealth.NewClient(opts...)
		if err != nil {
			slog.Error("stealth client init failed", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("stealth browser client initialized")
		}
	}

	engine.Init(c)
	engine.InitCache(env.Str("REDIS_URL", ""), c.CacheMaxAge, c.CacheMaxEntries, c.CacheCleanupInterval)
}

func acquirerConfig() sources.AcquirerConfig {
	ac := sources.DefaultAcquirerConfig()
	ac.AttemptTimeout = env.Duration("ATTEMPT_TIMEOUT", 25*time.Second)
	ac.Primary.MaxAttempts = env.Int("RETRY_ATTEMPTS", ac.Primary.MaxAttempts)
	ac.Primary.InitialWait = env.Duration("RETRY_BASE_DELAY", ac.Primary.InitialWait)
	ac.Primary.MaxWait = env.Duration("RETRY_MAX_DELAY", ac.Primary.MaxWait)
	ac.Secondary.MaxAttempts = env.Int("FALLBACK_RETRY_ATTEMPTS", ac.Secondary.MaxAttempts)
	ac.Secondary.InitialWait = ac.Primary.InitialWait
	return ac
}
