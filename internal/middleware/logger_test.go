package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCapturingLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func setupLoggerRouter(logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Logger(logger))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/missing", func(c *gin.Context) { c.String(http.StatusNotFound, "gone") })
	r.GET("/broken", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	return r
}

func TestLogger_RecordsRequestFields(t *testing.T) {
	logger, buf := newCapturingLogger()
	r := setupLoggerRouter(logger)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(w, req)

	out := buf.String()
	for _, want := range []string{"method=GET", "path=/ok", "status=200", "latency=", "client_ip="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("expected INFO level for 200, got: %s", out)
	}
}

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/ok", "level=INFO"},
		{"/missing", "level=WARN"},
		{"/broken", "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			logger, buf := newCapturingLogger()
			r := setupLoggerRouter(logger)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.ServeHTTP(w, req)

			if out := buf.String(); !strings.Contains(out, tt.wantLevel) {
				t.Errorf("expected %s, got: %s", tt.wantLevel, out)
			}
		})
	}
}

func TestLogger_NilLoggerFallsBackToDefault(t *testing.T) {
	r := setupLoggerRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", w.Code)
	}
}
