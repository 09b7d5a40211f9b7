// Package transport defines the request and response shapes of the reports
// module. Timestamps cross this boundary as UTC ISO-8601 strings.
package transport

import (
	"time"

	"wildguard_backend/internal/geo"

	"github.com/google/uuid"
)

// CreateReportInput is a finalized conversation handed to the reports
// service. Built by the conversation layer from its collected fields.
type CreateReportInput struct {
	AnimalType   string
	Location     geo.Point
	Address      string
	Structured   geo.StructuredAddress
	Images       []string
	Description  string
	LandmarkHint string
	PhoneNumber  *string
	ObservedAt   *time.Time
	HasOnlyDate  bool
}

// CreateReportResult reports the side effects of a submission.
type CreateReportResult struct {
	ReportID        uuid.UUID
	AssignedStaffID *uuid.UUID
	EventID         uuid.UUID
	EventCreated    bool
	Token           string
}

// ReportResponse is the admin-facing view of a report.
type ReportResponse struct {
	ID              uuid.UUID             `json:"id"`
	AnimalType      string                `json:"animalType"`
	Location        geo.Point             `json:"location"`
	Address         string                `json:"address"`
	Structured      geo.StructuredAddress `json:"structuredAddress"`
	Images          []string              `json:"images"`
	Description     string                `json:"description"`
	PhoneNumber     *string               `json:"phoneNumber,omitempty"`
	Status          string                `json:"status"`
	AssignedStaffID *uuid.UUID            `json:"assignedStaffId,omitempty"`
	ObservedAt      string                `json:"observedAt"`
	HasOnlyDate     bool                  `json:"hasOnlyDate"`
	CreatedAt       string                `json:"createdAt"`
	UpdatedAt       string                `json:"updatedAt"`
}

// UpdateStatusRequest changes a report's workflow status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=waiting completed"`
}

// AssignStaffRequest assigns or clears the responsible staff member.
type AssignStaffRequest struct {
	StaffID *uuid.UUID `json:"staffId"`
}

// ListReportsQuery filters the admin report listing.
type ListReportsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=waiting completed"`
	Limit  int    `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset,default=0" binding:"omitempty,min=0"`
}
