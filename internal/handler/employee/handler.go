package employee

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hairline-crm/internal/service/report"
	"github.com/jwalitptl/hairline-crm/pkg/httputil"
)

type Handler struct {
	reports *report.Service
}

func NewHandler(reports *report.Service) *Handler {
	return &Handler{reports: reports}
}

// RegisterRoutes expects r to be restricted to admins.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/employees", h.Overview)
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.reports.Employees(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, overview)
}
