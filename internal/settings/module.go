// Package settings provides the system settings domain module.
package settings

import (
	apphttp "wildguard_backend/internal/http"
	"wildguard_backend/internal/settings/handler"
	"wildguard_backend/internal/settings/repository"
	"wildguard_backend/internal/settings/service"
	"wildguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the settings domain module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates a new settings module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		svc:     svc,
	}
}

// Service returns the settings service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "settings"
}

// RegisterRoutes registers the module's routes under /api/v1/admin/settings.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/settings"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
