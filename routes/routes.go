package routes

import (
	"time"

	"agendabot/handlers"
	"agendabot/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries what the routes need besides the handlers.
type RouterConfig struct {
	JWTSecret   []byte
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// RegisterConversationRoutes registers the agent ingress. Every route is
// scoped to the tenant in the path and to its bearer token.
func RegisterConversationRoutes(r *gin.Engine, hb *handlers.HandlerBundle, cfg RouterConfig) {
	tenant := r.Group("/api/v1/tenants/:companyID")
	tenant.Use(middleware.TenantAuthMiddleware(cfg.JWTSecret, cfg.Logger))
	{
		conversation := tenant.Group("/conversations/:clientID")
		conversation.Use(cfg.RateLimiter.Middleware(cfg.Logger))
		conversation.POST("/messages", hb.PostMessageHandler)
	}
}

// RegisterHealthRoute registers the health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/healthz", hb.HealthHandler)
}

// RegisterRoutes sets up CORS and all route groups.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, cfg RouterConfig) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterConversationRoutes(r, hb, cfg)
}
