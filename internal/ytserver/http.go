package ytserver

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/gin-gonic/gin"
)

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	CacheMaxAge time.Duration
	CacheStale  time.Duration
}

type batchBody struct {
	VideoIDs []string `json:"videoIds"`
	Lang     string   `json:"lang"`
}

// NewRouter builds the gin engine serving the REST API.
func NewRouter(svc *Service, cfg HTTPConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(recovery(), cors(), requestLog())

	h := &handler{svc: svc, cfg: cfg}
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, engine.FormatMetrics()) })

	api := r.Group("/api")
	api.GET("/transcript", h.transcriptQuery)
	api.GET("/transcript/:videoId", h.transcriptPath)
	api.POST("/transcripts", h.transcriptBatch)
	return r
}

// NewHTTPServer wraps the router in an http.Server listening on :port.
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
}

type handler struct {
	svc *Service
	cfg HTTPConfig
}

func (h *handler) transcriptQuery(c *gin.Context) {
	h.respond(c, h.svc.Transcript(c.Request.Context(), c.Query("videoId"), c.Query("lang")))
}

func (h *handler) transcriptPath(c *gin.Context) {
	h.respond(c, h.svc.Transcript(c.Request.Context(), c.Param("videoId"), c.Query("lang")))
}

func (h *handler) respond(c *gin.Context, out engine.TranscriptOutput) {
	if out.Status == engine.StatusInvalid {
		c.Header("Cache-Control", noStore)
		c.JSON(http.StatusBadRequest, out)
		return
	}
	c.Header("Cache-Control", CacheControl(out, h.cfg.CacheMaxAge, h.cfg.CacheStale))
	c.JSON(http.StatusOK, out)
}

func (h *handler) transcriptBatch(c *gin.Context) {
	c.Header("Cache-Control", noStore)
	var body batchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"status":  engine.StatusInvalid,
			"error":   "request body must be JSON: {\"videoIds\": [...], \"lang\": \"...\"}",
		})
		return
	}
	out, err := h.svc.Batch(c.Request.Context(), body.VideoIDs, body.Lang)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"status":  engine.StatusInvalid,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, out)
}

// cors allows any origin and answers preflight requests directly.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		hdr := c.Writer.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// recovery turns a handler panic into a 500 JSON body instead of a dropped connection.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("http: panic recovered",
					slog.Any("error", err),
					slog.String("stack", string(debug.Stack())),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"status":  engine.StatusFailed,
					"error":   "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
