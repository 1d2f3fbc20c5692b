// Package httpapi wires the HTTP transport (Gin) to the salon services,
// middleware and route handlers. It centralizes the cross-cutting concerns:
// tracing, correlation IDs, redacted access logs, panic recovery, body
// limits, metrics, CORS, security headers and rate limiting.
//
// Routes:
//   - public site reads and the booking form under the API base path
//   - the admin panel under <base>/admin, behind a bearer guard
//   - the Telegram webhook under <base>/webhook/telegram
//   - uploaded images under the uploads URL prefix
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/nailstudio/salon-backend/internal/config"
	"github.com/nailstudio/salon-backend/internal/http/handlers"
	"github.com/nailstudio/salon-backend/internal/http/middleware"
)

// defaultBodyLimit caps JSON bodies on every route but the upload.
const defaultBodyLimit = 1 << 20

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (upload route gets its own ceiling)
//  6. Metrics
//  7. CORS and security headers
//
// Rate limiting is applied per route to the booking form and admin login.
func RegisterRoutes(r *gin.Engine, app *App, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Telegram-Bot-Api-Secret-Token"},
	}))
	r.Use(middleware.Recovery())

	uploadRoute := joinPath(apiBase, "/admin/upload")
	r.Use(middleware.BodyLimit(defaultBodyLimit, map[string]int64{
		uploadRoute: cfg.Uploads.MaxBytes + defaultBodyLimit,
	}))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := app.Handlers(cfg.Notify.WebhookSecret)
	limited := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByRouteAndIP()).Handler()
	compressed := gzip.Gzip(gzip.DefaultCompression)

	api := groupWithPrefix(r, apiBase)
	{
		api.GET("/settings", compressed, h.GetSettings)
		api.GET("/blocks", compressed, h.ListPublicBlocks)
		api.GET("/services", compressed, h.ListServices)
		api.GET("/reviews", compressed, h.ListReviews)
		api.POST("/requests", limited, h.SubmitRequest)

		api.POST("/webhook/telegram", h.TelegramWebhook)
	}

	admin := api.Group("/admin")
	admin.POST("/login", limited, h.Login)

	secured := admin.Group("", middleware.AdminAuth(app.Guard), middleware.NoStore())
	{
		secured.GET("/settings", h.GetAdminSettings)
		secured.PUT("/settings", h.UpdateSettings)

		secured.GET("/blocks", h.ListBlocks)
		secured.POST("/blocks", h.CreateBlock)
		secured.GET("/blocks/:id", h.GetBlock)
		secured.PUT("/blocks/:id", h.UpdateBlock)
		secured.DELETE("/blocks/:id", h.DeleteBlock)

		secured.GET("/services", h.ListServices)
		secured.POST("/services", h.CreateService)
		secured.PUT("/services/:id", h.UpdateService)
		secured.DELETE("/services/:id", h.DeleteService)

		secured.GET("/reviews", h.ListReviews)
		secured.POST("/reviews", h.CreateReview)
		secured.PUT("/reviews/:id", h.UpdateReview)
		secured.DELETE("/reviews/:id", h.DeleteReview)

		secured.GET("/requests", h.ListRequests)
		secured.GET("/requests/export", h.ExportRequests)
		secured.GET("/stats", h.Stats)

		secured.GET("/subscribers", h.ListSubscribers)
		secured.POST("/subscribers", h.CreateSubscriber)
		secured.DELETE("/subscribers/:id", h.DeleteSubscriber)
		secured.POST("/telegram/test", h.SendTestMessage)

		secured.POST("/upload", h.Upload)
		secured.GET("/images", h.ListImages)
		secured.DELETE("/images/:id", h.DeleteImage)
		secured.DELETE("/delete-upload", h.DeleteUpload)
	}

	uploads := groupWithPrefix(r, cfg.Uploads.URLPrefix)
	uploads.GET("/*file", h.ServeUpload)
	uploads.HEAD("/*file", h.ServeUpload)
}

// corsMiddleware keeps the two postures: allow every origin when no
// allowlist is configured, otherwise echo allowlisted origins only.
func corsMiddleware(cfg config.CORSConfig) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header (health checks, curl).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = cfg.AllowedOrigins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
