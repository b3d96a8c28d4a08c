package response

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

func newTestHandler() *responseHandler {
	return New(slog.New(logger.NewTestHandler(slog.LevelInfo)))
}

func handle(err error) (*httptest.ResponseRecorder, ErrorResponse) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/pl", nil)
	newTestHandler().HandleError(rr, req, err)

	var body ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&body)
	return rr, body
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", errs.NewValidationError("bad period"), http.StatusBadRequest, "invalid_input"},
		{"not found", errs.NewNotFoundError("no export"), http.StatusNotFound, "not_found"},
		{"dashboard auth", &errs.DashboardError{Message: "denied", Code: "403", Status: http.StatusForbidden}, http.StatusForbidden, "403"},
		{"dashboard server", &errs.DashboardError{Message: "boom", Code: "500", Status: http.StatusInternalServerError}, http.StatusBadGateway, "500"},
		{"dashboard network", &errs.DashboardError{Message: "down", Code: "network_error"}, http.StatusServiceUnavailable, "network_error"},
		{"dashboard generic", &errs.DashboardError{Message: "huh"}, http.StatusBadGateway, "upstream_error"},
		{"export failed", errs.NewExportFailedError("e1", "FAILED", "nope"), http.StatusBadGateway, "export_failed"},
		{"export cancelled", errs.NewExportFailedError("e1", "CANCELLED", "export cancelled"), http.StatusBadGateway, "export_cancelled"},
		{"export timeout", errs.NewExportTimeoutError("e1", time.Minute), http.StatusGatewayTimeout, "export_timeout"},
		{"transient", errs.NewExternalServiceError("api", true, errors.New("x")), http.StatusServiceUnavailable, "service_unavailable"},
		{"cancelled", context.Canceled, statusClientClosedRequest, "cancelled"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := handle(tt.err)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestHandleError_DashboardDetails(t *testing.T) {
	_, body := handle(&errs.DashboardError{
		Message: "bad file",
		Code:    "422",
		Details: map[string]any{"field": "file_id"},
		Status:  http.StatusUnprocessableEntity,
	})
	want := ErrorResponse{Code: "422", Message: "bad file", Details: map[string]any{"field": "file_id"}}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/pl", nil)
	newTestHandler().WriteSuccess(rr, req, http.StatusOK, map[string]bool{"stale": true})

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var env struct {
		Success bool            `json:"success"`
		Data    map[string]bool `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || !env.Data["stale"] {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestWriteSuccess_NoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dashboard/cache/invalidate", nil)
	newTestHandler().WriteSuccess(rr, req, http.StatusNoContent, nil)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("expected empty 204, got %d %q", rr.Code, rr.Body.String())
	}
}
