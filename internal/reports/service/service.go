// Package service implements report submission and its side effects:
// nearest-staff auto-assignment, event clustering and submission tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	clusterrepo "wildguard_backend/internal/cluster/repository"
	"wildguard_backend/internal/geo"
	"wildguard_backend/internal/reports/repository"
	"wildguard_backend/internal/reports/token"
	"wildguard_backend/internal/reports/transport"
	"wildguard_backend/internal/scheduler"
	"wildguard_backend/platform/apperr"
	"wildguard_backend/platform/logger"

	"github.com/google/uuid"
)

// StaffLocator finds the nearest coverage pin owner for a location.
type StaffLocator interface {
	FindNearestStaff(ctx context.Context, location geo.Point) (*uuid.UUID, error)
}

// Clusterer attaches a report to an event under the live thresholds.
type Clusterer interface {
	Cluster(ctx context.Context, reportID uuid.UUID, location geo.Point, assignedStaffID *uuid.UUID) (clusterrepo.Decision, error)
}

// Service provides business logic for reports.
type Service struct {
	repo     *repository.Repository
	staff    StaffLocator
	clusters Clusterer
	signer   *token.Signer
	notifier scheduler.Notifier
	log      *logger.Logger
}

// New creates a new reports service.
func New(
	repo *repository.Repository,
	staff StaffLocator,
	clusters Clusterer,
	signer *token.Signer,
	notifier scheduler.Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		staff:    staff,
		clusters: clusters,
		signer:   signer,
		notifier: notifier,
		log:      log,
	}
}

// CreateFromConversation persists a finished conversation as a report, then
// runs the post-submission steps. Creation is the only hard requirement:
// auto-assignment is advisory and its failure leaves the report unassigned,
// while a clustering failure leaves the report outside any event but still
// submitted.
func (s *Service) CreateFromConversation(ctx context.Context, input transport.CreateReportInput) (transport.CreateReportResult, error) {
	if input.ObservedAt == nil {
		return transport.CreateReportResult{}, apperr.Validation("observed time is required")
	}

	description := input.Description
	if input.LandmarkHint != "" {
		description = fmt.Sprintf("%s\n目印: %s付近", description, input.LandmarkHint)
	}

	now := time.Now().UTC()
	report := repository.Report{
		ID:          uuid.New(),
		AnimalType:  input.AnimalType,
		Latitude:    input.Location.Lat,
		Longitude:   input.Location.Lng,
		Address:     input.Address,
		Prefecture:  input.Structured.Prefecture,
		City:        input.Structured.City,
		SubArea:     input.Structured.SubArea,
		AreaKey:     input.Structured.AreaKey,
		Images:      input.Images,
		Description: description,
		PhoneNumber: input.PhoneNumber,
		Status:      repository.StatusWaiting,
		ObservedAt:  input.ObservedAt.UTC(),
		HasOnlyDate: input.HasOnlyDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &report); err != nil {
		return transport.CreateReportResult{}, err
	}

	result := transport.CreateReportResult{ReportID: report.ID}

	staffID, err := s.staff.FindNearestStaff(ctx, input.Location)
	if err != nil {
		s.log.DatabaseError("find nearest staff", err)
	} else if staffID != nil {
		if err := s.repo.AssignStaff(ctx, report.ID, staffID); err != nil {
			s.log.DatabaseError("assign staff", err)
		} else {
			result.AssignedStaffID = staffID
			s.notifyAssignment(ctx, report.ID, *staffID)
		}
	}

	decision, err := s.clusters.Cluster(ctx, report.ID, input.Location, result.AssignedStaffID)
	if err != nil {
		s.log.DatabaseError("cluster report", err)
	} else {
		result.EventID = decision.EventID
		result.EventCreated = decision.Created
	}

	if s.signer.Enabled() {
		signed, err := s.signer.Issue(report.ID)
		if err != nil {
			s.log.Error("issue report token", "report_id", report.ID, "error", err)
		} else {
			result.Token = signed
		}
	}

	return result, nil
}

func (s *Service) notifyAssignment(ctx context.Context, reportID, staffID uuid.UUID) {
	err := s.notifier.EnqueueStaffAssigned(ctx, scheduler.StaffAssignedPayload{
		ReportID: reportID.String(),
		StaffID:  staffID.String(),
	})
	if err != nil {
		s.log.UpstreamError("asynq", "enqueue staff notification", err)
	}
}

// GetByID returns one report.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Report{}, apperr.NotFound("report not found")
	}
	return report, err
}

// GetByToken resolves a submission token to its report.
func (s *Service) GetByToken(ctx context.Context, tokenString string) (repository.Report, error) {
	reportID, err := s.signer.Verify(tokenString)
	if err != nil {
		return repository.Report{}, apperr.Unauthorized("invalid report token")
	}
	return s.GetByID(ctx, reportID)
}

// List returns reports for the operator API.
func (s *Service) List(ctx context.Context, query transport.ListReportsQuery) ([]repository.Report, error) {
	return s.repo.List(ctx, query.Status, query.Limit, query.Offset)
}

// UpdateStatus changes a report's workflow status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	err := s.repo.UpdateStatus(ctx, id, status)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("report not found")
	}
	return err
}

// AssignStaff records an operator assignment. A nil staff id clears it.
func (s *Service) AssignStaff(ctx context.Context, id uuid.UUID, staffID *uuid.UUID) error {
	err := s.repo.AssignStaff(ctx, id, staffID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("report not found")
	}
	if err != nil {
		return err
	}
	if staffID != nil {
		s.notifyAssignment(ctx, id, *staffID)
	}
	return nil
}

// Delete soft-deletes a report.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("report not found")
	}
	return err
}
