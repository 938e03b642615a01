package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "finjournal/internal/errors"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "app_error", err: apperrors.ErrAccountNotFound, wantStatus: http.StatusNotFound, wantCode: "ACCOUNT_NOT_FOUND"},
		{name: "wrapped_app_error", err: apperrors.Wrap(apperrors.ErrTransient, errors.New("deadline")), wantStatus: http.StatusServiceUnavailable, wantCode: "TEMPORARILY_UNAVAILABLE"},
		{name: "plain_error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/fail", func(c *gin.Context) {
				_ = c.Error(tt.err)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := errorCode(t, rec); got != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, got)
			}
			retry := rec.Header().Get("Retry-After")
			if (tt.wantStatus == http.StatusServiceUnavailable) != (retry != "") {
				t.Errorf("unexpected Retry-After %q for status %d", retry, tt.wantStatus)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging(), Recovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("unexpected")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", got)
	}
}

func TestRequestLoggingRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
		id := rec.Header().Get(requestIDHeader)
		if id == "" || id != rec.Body.String() {
			t.Errorf("expected generated request id echoed in header, got header %q body %q", id, rec.Body.String())
		}
	})

	t.Run("inbound_reused", func(t *testing.T) {
		const inbound = "0190f3a2-7c1e-7b3d-9a4f-2d8e6c5b1a00"
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		req.Header.Set(requestIDHeader, inbound)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if got := rec.Header().Get(requestIDHeader); got != inbound {
			t.Errorf("expected inbound id %s, got %s", inbound, got)
		}
	})

	t.Run("malformed_replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		req.Header.Set(requestIDHeader, "<script>")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if got := rec.Header().Get(requestIDHeader); got == "<script>" || got == "" {
			t.Errorf("expected a fresh id, got %q", got)
		}
	})
}
