package errs

import (
	"fmt"
	"time"
)

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// ExternalServiceError is a transport-level failure talking to an upstream service.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the upstream dashboard API.
type HTTPError struct {
	ErrorMessage
	Status int
	Body   []byte
}

func (e *HTTPError) StatusCode() int { return e.Status }

// DashboardError is the error shape exposed to dashboard consumers.
type DashboardError struct {
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Status  int            `json:"-"`
}

func (e *DashboardError) Error() string { return e.Message }

func (e *DashboardError) StatusCode() int { return e.Status }

// ExportFailedError is returned when an export ends in FAILED or CANCELLED.
type ExportFailedError struct {
	ErrorMessage
	ExportID string
	Status   string
}

type ExportTimeoutError struct {
	ErrorMessage
	ExportID string
	Timeout  time.Duration
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewExternalServiceError(service string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("%s request failed: %v", service, err)},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

func NewHTTPError(status int, message string, body []byte) *HTTPError {
	return &HTTPError{
		ErrorMessage: ErrorMessage{Message: message},
		Status:       status,
		Body:         body,
	}
}

func NewExportFailedError(exportID, status, message string) *ExportFailedError {
	return &ExportFailedError{
		ErrorMessage: ErrorMessage{Message: message},
		ExportID:     exportID,
		Status:       status,
	}
}

func NewExportTimeoutError(exportID string, timeout time.Duration) *ExportTimeoutError {
	return &ExportTimeoutError{
		ErrorMessage: ErrorMessage{Message: fmt.Sprintf("export %s did not finish within %s", exportID, timeout)},
		ExportID:     exportID,
		Timeout:      timeout,
	}
}
