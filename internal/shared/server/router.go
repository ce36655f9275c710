package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/chats"
	"invoice-backend/internal/invoices"
	"invoice-backend/internal/shared/config"
	"invoice-backend/internal/shared/metrics"
	"invoice-backend/internal/shared/server/middleware"
	"invoice-backend/internal/shared/server/respond"
	"invoice-backend/internal/uploads"
)

// RouterDeps carries the wired handlers into route registration.
type RouterDeps struct {
	Config          config.Config
	ChatHandler     *chats.Handler
	InvoicesHandler *invoices.Handler
	UploadsHandler  *uploads.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Registered before the middleware chain so scrapes bypass auth.
	r.GET("/metrics", metrics.Handler())

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"CHAT":   {Rate: 1, Burst: 5},
				"UPLOAD": {Rate: 0.5, Burst: 3},
			},
			GroupFor: func(c *gin.Context) string {
				switch {
				case c.Request.Method == http.MethodPost && c.Request.URL.Path == "/api/v1/chat":
					return "CHAT"
				case c.Request.Method == http.MethodPost && c.Request.URL.Path == "/api/v1/files/upload":
					return "UPLOAD"
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)
	deps.ChatHandler.RegisterRoutes(api)
	deps.InvoicesHandler.RegisterRoutes(api)
	deps.UploadsHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
