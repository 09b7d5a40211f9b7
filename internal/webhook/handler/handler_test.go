package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wildguard_backend/internal/line"
	"wildguard_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testConfig struct{}

func (testConfig) GetLineChannelSecret() string      { return "channel-secret" }
func (testConfig) GetWebhookDeadline() time.Duration { return 5 * time.Second }

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func post(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/line", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReceiveRejectsMissingSignature(t *testing.T) {
	// the machine must never be reached on a rejected delivery, so a nil
	// machine doubles as the assertion
	h := New(testConfig{}, nil, nil, logger.New("development"))
	router := newTestRouter(h)

	rec := post(router, []byte(`{"events":[]}`), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	h := New(testConfig{}, nil, nil, logger.New("development"))
	router := newTestRouter(h)

	body := []byte(`{"events":[]}`)
	rec := post(router, body, line.SignBody("wrong-secret", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReceiveRejectsSignatureOverDifferentBody(t *testing.T) {
	h := New(testConfig{}, nil, nil, logger.New("development"))
	router := newTestRouter(h)

	signed := line.SignBody("channel-secret", []byte(`{"events":[]}`))
	rec := post(router, []byte(`{"events":[{"type":"message"}]}`), signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReceiveAcceptsEmptyBatch(t *testing.T) {
	h := New(testConfig{}, nil, nil, logger.New("development"))
	router := newTestRouter(h)

	body := []byte(`{"destination":"U1","events":[]}`)
	rec := post(router, body, line.SignBody("channel-secret", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReceiveRejectsUnparseableBody(t *testing.T) {
	h := New(testConfig{}, nil, nil, logger.New("development"))
	router := newTestRouter(h)

	body := []byte(`not json`)
	rec := post(router, body, line.SignBody("channel-secret", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
