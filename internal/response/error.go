package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.writeError(w, r, status, ErrorResponse{Code: code, Message: message})
}

func (h *responseHandler) writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Use context logger if encoding fails
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", body.Code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	if errors.Is(err, context.Canceled) {
		log.Info("request cancelled by client")
		h.WriteError(w, r, statusClientClosedRequest, "cancelled", "Request cancelled")
		return
	}

	switch e := err.(type) {
	case *errs.NotFoundError:
		log.Warn("resource not found", "error", e.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", e.Message)

	case *errs.ValidationError:
		log.Warn("validation failed", "error", e.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", e.Message)

	case *errs.DashboardError:
		status := dashboardStatus(e)
		log.Warn("dashboard request failed",
			"status", status,
			"code", e.Code,
			"error", e.Message)
		code := e.Code
		if code == "" {
			code = "upstream_error"
		}
		h.writeError(w, r, status, ErrorResponse{Code: code, Message: e.Message, Details: e.Details})

	case *errs.ExportFailedError:
		log.Warn("export did not complete",
			"export_id", e.ExportID,
			"status", e.Status,
			"error", e.Message)
		code := "export_failed"
		if e.Status == "CANCELLED" {
			code = "export_cancelled"
		}
		h.WriteError(w, r, http.StatusBadGateway, code, e.Message)

	case *errs.ExportTimeoutError:
		log.Warn("export timed out", "export_id", e.ExportID, "timeout", e.Timeout)
		h.WriteError(w, r, http.StatusGatewayTimeout, "export_timeout", e.Message)

	case *errs.ExternalServiceError:
		level := slog.LevelError
		if e.Transient {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "external service error",
			"service", e.Service,
			"transient", e.Transient,
			"error", e.Message)

		status := http.StatusBadGateway
		if e.Transient {
			status = http.StatusServiceUnavailable
		}
		h.WriteError(w, r, status, "service_unavailable",
			"Service temporarily unavailable")

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}

// nginx convention for a client that went away mid-request
const statusClientClosedRequest = 499

// dashboardStatus keeps upstream client errors and maps everything else to a
// gateway failure.
func dashboardStatus(e *errs.DashboardError) int {
	switch {
	case e.Code == "network_error":
		return http.StatusServiceUnavailable
	case e.Status >= 400 && e.Status < 500:
		return e.Status
	default:
		return http.StatusBadGateway
	}
}
