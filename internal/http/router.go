// Package httpapi assembles the Gin engine: middleware chain, health,
// metrics and API docs, and the scan desk routes under the API base path.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-guias-backend/docs"
	"github.com/tbourn/go-guias-backend/internal/config"
	"github.com/tbourn/go-guias-backend/internal/http/handlers"
	"github.com/tbourn/go-guias-backend/internal/http/middleware"
)

// maxBodyBytes caps request bodies; a full day's batch of codes fits.
const maxBodyBytes = 1 << 20

// exposedHeaders are the response headers the browser desk reads. The first
// two are exposed by CORS only; SecurityHeaders adds the rest.
var exposedHeaders = []string{
	middleware.HeaderRequestID,
	"Content-Length",
	"Content-Disposition",
	"ETag",
	handlers.HeaderReplayed,
	handlers.HeaderManifestPages,
	handlers.HeaderManifestRecords,
	handlers.HeaderManifestArchive,
}

// RegisterRoutes installs the middleware chain and every route on r.
//
// Order: tracing, request ID, access log, recovery, body cap, metrics,
// idempotency (so replays can skip the limiter), rate limit, CORS, security
// headers, gzip. Manifests are already compressed and skip gzip.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc handlers.ScanService, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	replay := scanReplayShim{db: db}
	base := cfg.APIBasePath

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, replay.lookup),
		middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByStationOrIP()).Handler(),
	)
	r.Use(corsHandlers(cfg.CORS)...)
	r.Use(
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS:    cfg.Security.EnableHSTS,
			HSTSMaxAge:    cfg.Security.HSTSMaxAge,
			EnablePolicy:  true,
			ExposeHeaders: exposedHeaders[2:],
		}),
		gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedPaths([]string{"/metrics", "/swagger", joinPath(base, "/manifiesto")})),
	)

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = joinPath(base, "")
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc, replay, cfg.IdempotencyTTL)
	api := groupWithPrefix(r, base)

	scans := api.Group("/registros")
	scans.POST("", h.CreateScan)
	scans.POST("/batch", h.AdmitBatch)
	scans.GET("", h.ListScans)
	scans.GET("/counts", h.CountScans)
	scans.POST("/refresh", h.RefreshScans)
	scans.PATCH("/:id", h.UpdateCarrier)
	scans.DELETE("/:id", h.DeleteScan)

	api.GET("/manifiesto", h.GetManifest)
}

// corsHandlers allows any origin when no allowlist is configured (and then
// also answers origin-less probes with "*"); otherwise only listed origins.
// Credentials are never allowed.
func corsHandlers(cc config.CORSConfig) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
			middleware.HeaderStationID, middleware.HeaderIdempotencyKey, middleware.HeaderRequestID,
		},
		ExposeHeaders: exposedHeaders,
		MaxAge:        12 * time.Hour,
	}
	if len(cc.AllowedOrigins) > 0 {
		conf.AllowOrigins = cc.AllowedOrigins
		return []gin.HandlerFunc{cors.New(conf)}
	}
	conf.AllowAllOrigins = true
	anyOrigin := func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
	}
	return []gin.HandlerFunc{anyOrigin, cors.New(conf)}
}

// limitBody makes body reads past maxBytes fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
}

func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "/" {
		prefix = ""
	}
	return r.Group(prefix)
}

// joinPath appends p to the API base path; a root base adds nothing.
func joinPath(base, p string) string {
	if base == "" || base == "/" {
		base = ""
	}
	if base+p == "" {
		return "/"
	}
	return base + p
}
