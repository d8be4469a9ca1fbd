package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hairline-crm/internal/handler"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/service/auth"
	"github.com/jwalitptl/hairline-crm/pkg/httputil"
)

// CookieConfig describes the session cookie set on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc    *auth.Service
	cookie CookieConfig
	now    func() time.Time
}

func NewHandler(svc *auth.Service, cookie CookieConfig) *Handler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &Handler{svc: svc, cookie: cookie, now: time.Now}
}

// RegisterRoutes adds the public auth routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}
}

// RegisterSessionRoutes adds the auth routes that need a signed-in user.
func (h *Handler) RegisterSessionRoutes(r *gin.RouterGroup) {
	r.GET("/auth/me", h.Me)
}

// RegisterAdminRoutes adds the user management routes reserved for admins.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/auth/users", h.CreateUser)
}

// Register is the public sign-up for agents and counsellors.
func (h *Handler) Register(c *gin.Context) {
	h.register(c, h.svc.SelfRegister)
}

// CreateUser lets an admin create an account with any role.
func (h *Handler) CreateUser(c *gin.Context) {
	h.register(c, h.svc.Register)
}

func (h *Handler) register(c *gin.Context, create func(context.Context, *model.RegisterRequest) (*model.User, error)) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	user, err := create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	resp, expiresAt, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	maxAge := int(expiresAt.Sub(h.now()).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, resp.Token, maxAge, "/", "", h.cookie.Secure, true)
	httputil.RespondWithSuccess(c, resp)
}

// Logout clears the session cookie. Tokens are stateless, so there is
// nothing to revoke server side.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	httputil.RespondWithSuccess(c, "logged out successfully")
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), handler.Actor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}
