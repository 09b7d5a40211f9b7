// Package webhook provides the LINE webhook intake module, the public
// entry point of the conversational pipeline.
package webhook

import (
	"wildguard_backend/internal/conversation"
	apphttp "wildguard_backend/internal/http"
	"wildguard_backend/internal/webhook/handler"
	"wildguard_backend/platform/logger"
)

// Module represents the webhook intake module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the webhook handler around an already-built state machine.
func NewModule(cfg handler.Config, machine *conversation.Machine, replier handler.Replier, log *logger.Logger) *Module {
	return &Module{
		handler: handler.New(cfg, machine, replier, log),
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the rate-limited public webhook endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("")
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
