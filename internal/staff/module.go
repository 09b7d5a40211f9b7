// Package staff provides the staff domain module: responder records,
// coverage pins and nearest-pin auto-assignment.
package staff

import (
	apphttp "wildguard_backend/internal/http"
	"wildguard_backend/internal/staff/handler"
	"wildguard_backend/internal/staff/repository"
	"wildguard_backend/internal/staff/service"
	"wildguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the staff domain module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates a new staff module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		svc:     svc,
	}
}

// Service returns the staff service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "staff"
}

// RegisterRoutes registers the module's routes under /api/v1/admin/staff.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/staff"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
