package agent

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

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/agents", h.ListAgents)
}

// ListAgents returns agent performance for ?filter=day|week|month, or all
// time when the filter is omitted.
func (h *Handler) ListAgents(c *gin.Context) {
	stats, err := h.reports.Agents(c.Request.Context(), c.Query("filter"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}
