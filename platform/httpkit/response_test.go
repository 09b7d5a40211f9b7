package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wildguard_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func record(t *testing.T, fn func(c *gin.Context)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	c.Writer.WriteHeaderNow()
	return rec
}

func TestStatusHelpers(t *testing.T) {
	if got := record(t, func(c *gin.Context) { Created(c, gin.H{"id": "1"}) }).Code; got != http.StatusCreated {
		t.Fatalf("Created wrote %d", got)
	}
	if got := record(t, func(c *gin.Context) { NoContent(c) }).Code; got != http.StatusNoContent {
		t.Fatalf("NoContent wrote %d", got)
	}

	rec := record(t, func(c *gin.Context) { BadRequest(c, "invalid request", nil) })
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("BadRequest wrote %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid request") {
		t.Fatalf("BadRequest body = %s", rec.Body.String())
	}
}

func TestHandleErrorDefaultsToInternal(t *testing.T) {
	rec := record(t, func(c *gin.Context) {
		HandleError(c, http.ErrBodyNotAllowed)
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("untyped error wrote %d, want 500", rec.Code)
	}

	rec = record(t, func(c *gin.Context) {
		HandleError(c, apperr.NotFound("report not found"))
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("not-found error wrote %d, want 404", rec.Code)
	}
}
