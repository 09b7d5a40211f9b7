// Package handler exposes the staff HTTP endpoints.
package handler

import (
	"wildguard_backend/internal/staff/repository"
	"wildguard_backend/internal/staff/service"
	"wildguard_backend/internal/staff/transport"
	"wildguard_backend/platform/httpkit"
	"wildguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for staff and coverage pins.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new staff handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the staff routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListStaff)
	rg.POST("", h.CreateStaff)
	rg.GET("/locations", h.ListPins)
	rg.POST("/locations", h.CreatePin)
	rg.DELETE("/locations/:id", h.DeletePin)
}

// ListStaff handles GET /api/v1/admin/staff
func (h *Handler) ListStaff(c *gin.Context) {
	members, err := h.svc.ListStaff(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.StaffResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toStaffResponse(m))
	}
	httpkit.OK(c, out)
}

// CreateStaff handles POST /api/v1/admin/staff
func (h *Handler) CreateStaff(c *gin.Context) {
	var req transport.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, msgValidationFailed, err.Error())
		return
	}

	member, err := h.svc.CreateStaff(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toStaffResponse(member))
}

// ListPins handles GET /api/v1/admin/staff/locations
func (h *Handler) ListPins(c *gin.Context) {
	pins, err := h.svc.ListPins(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.PinResponse, 0, len(pins))
	for _, p := range pins {
		out = append(out, toPinResponse(p))
	}
	httpkit.OK(c, out)
}

// CreatePin handles POST /api/v1/admin/staff/locations
func (h *Handler) CreatePin(c *gin.Context) {
	var req transport.CreatePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, msgValidationFailed, err.Error())
		return
	}

	pin, err := h.svc.CreatePin(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toPinResponse(pin))
}

// DeletePin handles DELETE /api/v1/admin/staff/locations/:id
func (h *Handler) DeletePin(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.BadRequest(c, "invalid pin id", nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeletePin(c.Request.Context(), id)) {
		return
	}
	httpkit.NoContent(c)
}

func toStaffResponse(m repository.Staff) transport.StaffResponse {
	return transport.StaffResponse{
		ID:        m.ID.String(),
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

func toPinResponse(p repository.Pin) transport.PinResponse {
	return transport.PinResponse{
		ID:        p.ID.String(),
		StaffID:   p.StaffID.String(),
		Label:     p.Label,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		CreatedAt: p.CreatedAt,
	}
}
