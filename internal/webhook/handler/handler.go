// Package handler receives LINE webhook deliveries. Signature verification
// gates everything: an unverifiable body is rejected with no side effects
// and no session mutation.
package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"wildguard_backend/internal/conversation"
	"wildguard_backend/internal/line"
	"wildguard_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const signatureHeader = "X-Line-Signature"

// maxBodyBytes bounds the webhook payload; platform batches are small.
const maxBodyBytes = 1 << 20

// Config provides the webhook settings.
type Config interface {
	GetLineChannelSecret() string
	GetWebhookDeadline() time.Duration
}

// Replier delivers outbound messages for one inbound delivery.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages []line.ReplyMessage) error
}

// Handler handles webhook deliveries.
type Handler struct {
	cfg     Config
	machine *conversation.Machine
	replier Replier
	log     *logger.Logger
}

// New creates a new webhook handler.
func New(cfg Config, machine *conversation.Machine, replier Replier, log *logger.Logger) *Handler {
	return &Handler{cfg: cfg, machine: machine, replier: replier, log: log}
}

// RegisterRoutes registers the webhook endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhook/line", h.Receive)
}

// Receive handles POST /api/v1/webhook/line. The platform expects a 2xx
// for accepted deliveries; per-event failures are logged and replied to
// best-effort rather than surfaced as an HTTP error, which would only
// trigger platform-side redelivery of already-processed events.
func (h *Handler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if !line.ValidateSignature(h.cfg.GetLineChannelSecret(), c.GetHeader(signatureHeader), body) {
		h.log.SignatureRejected(c.ClientIP())
		c.Status(http.StatusUnauthorized)
		return
	}

	req, err := line.ParseWebhookRequest(body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.GetWebhookDeadline())
	defer cancel()

	h.process(ctx, req.Events)
	c.Status(http.StatusOK)
}

// process fans deliveries out across users while keeping each user's
// events strictly sequential, preserving per-session transition order.
func (h *Handler) process(ctx context.Context, events []line.Event) {
	byUser := make(map[string][]line.Event)
	var order []string
	for _, ev := range events {
		userID := ev.Source.UserID
		if userID == "" {
			continue
		}
		if _, seen := byUser[userID]; !seen {
			order = append(order, userID)
		}
		byUser[userID] = append(byUser[userID], ev)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, userID := range order {
		userEvents := byUser[userID]
		g.Go(func() error {
			for _, ev := range userEvents {
				h.handleOne(ctx, ev)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// handleOne runs one event through the state machine and sends its replies.
// Machine errors still carry a best-effort failure reply for the user.
func (h *Handler) handleOne(ctx context.Context, ev line.Event) {
	replies, err := h.machine.HandleEvent(ctx, ev)
	if err != nil {
		h.log.WithLineUserID(ev.Source.UserID).Error("webhook event failed",
			"event_type", ev.Type, "error", err)
	}
	if len(replies) == 0 {
		return
	}

	if err := h.replier.Reply(ctx, ev.ReplyToken, replies); err != nil {
		h.log.UpstreamError("line", "reply", err)
	}
}
