package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

const genericDashboardMessage = "An unexpected error occurred while loading dashboard data"

// HTTPStatus returns the HTTP status carried by err, or 0 when it has none.
func HTTPStatus(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// IsAuthError reports whether err is an authentication or authorization failure.
func IsAuthError(err error) bool {
	switch HTTPStatus(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// ToDashboardError converts any error into a *DashboardError. A server supplied
// message is preferred; code carries the HTTP status when there is one.
func ToDashboardError(err error) *DashboardError {
	if err == nil {
		return nil
	}

	var de *DashboardError
	if errors.As(err, &de) {
		return de
	}

	var he *HTTPError
	if errors.As(err, &he) {
		msg := he.Message
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status code %d", he.Status)
		}
		return &DashboardError{
			Message: msg,
			Code:    strconv.Itoa(he.Status),
			Details: bodyDetails(he.Body),
			Status:  he.Status,
		}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return &DashboardError{Message: ve.Message, Code: "invalid_payload"}
	}

	var ee *ExternalServiceError
	if errors.As(err, &ee) {
		return &DashboardError{
			Message: "Network error: unable to reach the dashboard service",
			Code:    "network_error",
		}
	}

	return &DashboardError{Message: genericDashboardMessage}
}

func bodyDetails(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var details map[string]any
	if err := json.Unmarshal(body, &details); err != nil {
		return map[string]any{"body": string(body)}
	}
	return details
}
