package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// dashboardParams are the identifying parameters of one dashboard query.
type dashboardParams struct {
	Type   dto.DashboardType
	Period dto.DashboardPeriod
	FileID *int64
}

func parseDashboardParams(r *http.Request) (dashboardParams, error) {
	t, err := dto.ParseDashboardPath(chi.URLParam(r, "type"))
	if err != nil {
		return dashboardParams{}, err
	}
	period, fileID, err := parsePeriodParams(r)
	if err != nil {
		return dashboardParams{}, err
	}
	return dashboardParams{Type: t, Period: period, FileID: fileID}, nil
}

func parsePeriodParams(r *http.Request) (dto.DashboardPeriod, *int64, error) {
	q := r.URL.Query()
	raw := q.Get("period")
	if raw == "" {
		return "", nil, errs.NewValidationError("period is required")
	}
	period, err := dto.ParsePeriod(raw)
	if err != nil {
		return "", nil, err
	}
	fileID, err := parseFileID(q.Get("file_id"))
	if err != nil {
		return "", nil, err
	}
	return period, fileID, nil
}

// parseFileID returns nil for an absent file id. 0 is a valid id.
func parseFileID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil, errs.NewValidationError("file_id must be a non-negative integer")
	}
	return &id, nil
}

// parseTypes reads repeated or comma separated type parameters. None means all.
func parseTypes(r *http.Request) ([]dto.DashboardType, error) {
	var types []dto.DashboardType
	for _, v := range r.URL.Query()["type"] {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			t, err := dto.ParseDashboardPath(s)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
	}
	return types, nil
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
