// Package handler exposes the reports HTTP endpoints: the operator CRUD
// surface and the public token-authorized report view.
package handler

import (
	"time"

	"wildguard_backend/internal/geo"
	"wildguard_backend/internal/reports/repository"
	"wildguard_backend/internal/reports/service"
	"wildguard_backend/internal/reports/transport"
	"wildguard_backend/platform/httpkit"
	"wildguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for reports.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new reports handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.PATCH("/:id/assign", h.AssignStaff)
	rg.DELETE("/:id", h.Delete)
}

// RegisterPublicRoutes registers the token-authorized report view.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/:token", h.GetByToken)
}

// List handles GET /api/v1/admin/reports
func (h *Handler) List(c *gin.Context) {
	var query transport.ListReportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.BadRequest(c, "invalid query", nil)
		return
	}

	reports, err := h.svc.List(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.ReportResponse, 0, len(reports))
	for i := range reports {
		responses = append(responses, toResponse(&reports[i]))
	}
	httpkit.OK(c, responses)
}

// Get handles GET /api/v1/admin/reports/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	report, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(&report))
}

// GetByToken handles GET /api/v1/public/reports/:token
func (h *Handler) GetByToken(c *gin.Context) {
	report, err := h.svc.GetByToken(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(&report))
}

// UpdateStatus handles PATCH /api/v1/admin/reports/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, "invalid request", nil)
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// AssignStaff handles PATCH /api/v1/admin/reports/:id/assign
func (h *Handler) AssignStaff(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req transport.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, "invalid request", nil)
		return
	}

	if err := h.svc.AssignStaff(c.Request.Context(), id, req.StaffID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Delete handles DELETE /api/v1/admin/reports/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func reportID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.BadRequest(c, "invalid report id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func toResponse(report *repository.Report) transport.ReportResponse {
	return transport.ReportResponse{
		ID:         report.ID,
		AnimalType: report.AnimalType,
		Location:   report.Location(),
		Address:    report.Address,
		Structured: geo.StructuredAddress{
			Prefecture: report.Prefecture,
			City:       report.City,
			SubArea:    report.SubArea,
			AreaKey:    report.AreaKey,
		},
		Images:          report.Images,
		Description:     report.Description,
		PhoneNumber:     report.PhoneNumber,
		Status:          report.Status,
		AssignedStaffID: report.AssignedStaffID,
		ObservedAt:      report.ObservedAt.UTC().Format(time.RFC3339),
		HasOnlyDate:     report.HasOnlyDate,
		CreatedAt:       report.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       report.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
