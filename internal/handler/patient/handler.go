package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/hairline-crm/internal/handler"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/service/dashboard"
	"github.com/jwalitptl/hairline-crm/internal/service/patient"
	"github.com/jwalitptl/hairline-crm/pkg/httputil"
)

type Handler struct {
	service   patient.PatientService
	dashboard *dashboard.Service
}

func NewHandler(service patient.PatientService, dashboard *dashboard.Service) *Handler {
	return &Handler{
		service:   service,
		dashboard: dashboard,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("/register", h.CreatePatient)
		patients.GET("/get-patient", h.ListPatients)
		patients.GET("/patient-data", h.GetPatient)
		patients.PUT("/update", h.UpdatePatient)
		patients.PATCH("/status", h.UpdateStatus)
		patients.POST("/transactions", h.AddTransaction)
		patients.POST("/dashboard", h.Dashboard)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.Patient
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req, handler.Actor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().Str("patient_id", created.ID.Hex()).Msg("patient registered")
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	patients, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := handler.QueryID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

// UpdatePatient replaces the patient document with the submitted edit form.
func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := handler.QueryID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.Patient
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req, handler.Actor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := handler.QueryID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, handler.Actor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) AddTransaction(c *gin.Context) {
	id, err := handler.QueryID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	updated, err := h.service.AddTransaction(c.Request.Context(), id, &req, handler.Actor(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Dashboard(c *gin.Context) {
	var req model.DashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, handler.BindError(err))
		return
	}

	d, err := h.dashboard.Get(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
