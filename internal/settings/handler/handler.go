// Package handler exposes the settings HTTP endpoints.
package handler

import (
	"wildguard_backend/internal/settings/repository"
	"wildguard_backend/internal/settings/service"
	"wildguard_backend/internal/settings/transport"
	"wildguard_backend/platform/httpkit"
	"wildguard_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for system settings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new settings handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the settings routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Current)
	rg.POST("", h.Update)
}

// Current handles GET /api/v1/admin/settings
func (h *Handler) Current(c *gin.Context) {
	snap, err := h.svc.Current(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(snap))
}

// Update handles POST /api/v1/admin/settings
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, "validation failed", err.Error())
		return
	}

	snap, err := h.svc.Update(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toResponse(snap))
}

func toResponse(snap repository.Snapshot) transport.SettingsResponse {
	return transport.SettingsResponse{
		ID:                          snap.ID.String(),
		GeofenceAddressPrefix:       snap.GeofenceAddressPrefix,
		EventClusteringTimeMinutes:  snap.EventClusteringTimeMinutes,
		EventClusteringRadiusMeters: snap.EventClusteringRadiusMeters,
		LineSessionTimeoutHours:     snap.LineSessionTimeoutHours,
		CreatedAt:                   snap.CreatedAt,
	}
}
