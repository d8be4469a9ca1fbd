package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hairline-crm/internal/middleware"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// SessionHandler also serves routes behind authentication.
type SessionHandler interface {
	Handler
	RegisterSessionRoutes(*gin.RouterGroup)
}

// AccountHandler serves public, session and admin-only account routes.
type AccountHandler interface {
	SessionHandler
	RegisterAdminRoutes(*gin.RouterGroup)
}

// Handlers groups the route handlers by access level.
type Handlers struct {
	Health   Handler
	Auth     AccountHandler
	Patient  Handler
	Agent    Handler
	Employee Handler
	Report   Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

type RouterConfig struct {
	Mode         string
	RateLimit    float64
	RateBurst    int
	RateLimitOff bool
	Timeout      time.Duration
	CORSConfig   middleware.CORSConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	m *metrics.Metrics,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}

	engine.Use(middleware.CORS(config.CORSConfig))
	engine.Use(middleware.Compress(middleware.DefaultCompressConfig()))

	if !config.RateLimitOff {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}

	// Public routes
	r.handlers.Auth.RegisterRoutes(api)

	// Session routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.handlers.Auth.RegisterSessionRoutes(protected)
	r.handlers.Patient.RegisterRoutes(protected)
	r.handlers.Agent.RegisterRoutes(protected)

	// Admin routes
	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.handlers.Auth.RegisterAdminRoutes(admin)
	r.handlers.Employee.RegisterRoutes(admin)
	r.handlers.Report.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
