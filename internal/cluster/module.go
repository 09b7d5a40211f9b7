// Package cluster provides the event clustering domain module.
package cluster

import (
	"wildguard_backend/internal/cluster/handler"
	"wildguard_backend/internal/cluster/repository"
	"wildguard_backend/internal/cluster/service"
	apphttp "wildguard_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the clustering domain module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates a new cluster module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, settings service.SettingsSource) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, settings)
	h := handler.New(svc)

	return &Module{
		handler: h,
		svc:     svc,
	}
}

// Service returns the clustering service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "cluster"
}

// RegisterRoutes registers the module's routes under /api/v1/admin/events.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/events"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
