package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hairline-crm/internal/handler"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/service/export"
	"github.com/jwalitptl/hairline-crm/internal/service/report"
	"github.com/jwalitptl/hairline-crm/pkg/errors"
	"github.com/jwalitptl/hairline-crm/pkg/httputil"
)

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

type Handler struct {
	reports *report.Service
	now     func() time.Time
}

func NewHandler(reports *report.Service) *Handler {
	return &Handler{reports: reports, now: time.Now}
}

// RegisterRoutes expects r to be restricted to admins.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reports", h.GetReport)
}

// GetReport returns the report as JSON rows, or as a spreadsheet attachment
// when format=xlsx.
func (h *Handler) GetReport(c *gin.Context) {
	var req model.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}
	switch req.Format {
	case "", FormatJSON, FormatXLSX:
	default:
		httputil.RespondWithError(c, errors.BadRequest(fmt.Sprintf("unknown format %q", req.Format), nil))
		return
	}

	table, err := h.reports.Report(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if req.Format != FormatXLSX {
		httputil.RespondWithSuccess(c, table)
		return
	}

	data, err := export.XLSX(table)
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}
	filename := export.Filename(req.Type, h.now().In(h.reports.Location()))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, data)
}
