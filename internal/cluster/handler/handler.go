// Package handler exposes the events HTTP endpoints.
package handler

import (
	"strconv"
	"time"

	"wildguard_backend/internal/cluster/repository"
	"wildguard_backend/internal/cluster/service"
	"wildguard_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for clustering events.
type Handler struct {
	svc *service.Service
}

// New creates a new events handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the event routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

// EventResponse is the JSON shape of a clustering event.
type EventResponse struct {
	ID                     string    `json:"id"`
	CenterLatitude         float64   `json:"centerLatitude"`
	CenterLongitude        float64   `json:"centerLongitude"`
	RepresentativeReportID string    `json:"representativeReportId"`
	ReportCount            int       `json:"reportCount"`
	AssignedStaffID        *string   `json:"assignedStaffId,omitempty"`
	LastReportAt           time.Time `json:"lastReportAt"`
	CreatedAt              time.Time `json:"createdAt"`
}

// List handles GET /api/v1/admin/events
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, err := h.svc.List(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toResponse(e))
	}
	httpkit.OK(c, out)
}

func toResponse(e repository.Event) EventResponse {
	resp := EventResponse{
		ID:                     e.ID.String(),
		CenterLatitude:         e.CenterLatitude,
		CenterLongitude:        e.CenterLongitude,
		RepresentativeReportID: e.RepresentativeReportID.String(),
		ReportCount:            e.ReportCount,
		LastReportAt:           e.LastReportAt,
		CreatedAt:              e.CreatedAt,
	}
	if e.AssignedStaffID != nil {
		id := e.AssignedStaffID.String()
		resp.AssignedStaffID = &id
	}
	return resp
}
