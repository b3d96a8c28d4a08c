package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logger.NewCloudRunHandlerTo(&buf, slog.LevelInfo))
	m := NewLoggerMiddleware(log)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handled")
	})
	h := chimiddleware.RequestID(m.LoggerMiddleware(next))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/pl", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get(chimiddleware.RequestIDHeader) == "" {
		t.Error("expected request id echoed in the response")
	}
	for _, want := range []string{`"request_id":`, `"method":"GET"`, `"path":"/dashboard/pl"`} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected %s in %s", want, buf.String())
		}
	}
}
