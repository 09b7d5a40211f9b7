// Package reports provides the sighting reports domain module.
package reports

import (
	apphttp "wildguard_backend/internal/http"
	"wildguard_backend/internal/reports/handler"
	"wildguard_backend/internal/reports/repository"
	"wildguard_backend/internal/reports/service"
	"wildguard_backend/internal/reports/token"
	"wildguard_backend/internal/scheduler"
	"wildguard_backend/platform/logger"
	"wildguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the reports domain module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule creates a new reports module with all dependencies wired.
// The staff locator and clusterer come from their own modules.
func NewModule(
	pool *pgxpool.Pool,
	staff service.StaffLocator,
	clusters service.Clusterer,
	signer *token.Signer,
	notifier scheduler.Notifier,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, staff, clusters, signer, notifier, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		svc:     svc,
	}
}

// Service returns the reports service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes mounts the operator routes under /api/v1/admin/reports and
// the token-authorized view under /api/v1/public.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/reports"))
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/public"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
