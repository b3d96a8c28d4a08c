package dashboardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const serviceName = "dashboard-api"

// maxErrorBody bounds how much of a failed response is kept for error details.
const maxErrorBody = 64 << 10

// TokenSource returns the bearer token for the caller in ctx, or "".
type TokenSource func(ctx context.Context) string

// Adapter calls the upstream dashboard REST API.
type Adapter struct {
	baseURL string
	client  *http.Client
	token   TokenSource
}

func NewAdapter(baseURL string, timeout time.Duration, token TokenSource) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		token:   token,
	}
}

// GetMetrics loads and validates GET /dashboard/metrics/{type}.
func (a *Adapter) GetMetrics(ctx context.Context, t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) (dto.DashboardMetrics, error) {
	q := url.Values{}
	q.Set("period", string(period))
	if fileID != nil {
		q.Set("file_id", strconv.FormatInt(*fileID, 10))
	}

	body, err := a.do(ctx, http.MethodGet, "/dashboard/metrics/"+t.Path(), q)
	if err != nil {
		return dto.DashboardMetrics{}, err
	}
	return decodeMetrics(body)
}

// RefreshCache asks the upstream to recompute its server side caches.
func (a *Adapter) RefreshCache(ctx context.Context) error {
	_, err := a.do(ctx, http.MethodPost, "/dashboard/refresh-cache", nil)
	return err
}

// StartExport requests a report export in the given format.
func (a *Adapter) StartExport(ctx context.Context, format string, period dto.DashboardPeriod, fileID *int64) (dto.ExportJob, error) {
	q := url.Values{}
	q.Set("period", string(period))
	if fileID != nil {
		q.Set("file_id", strconv.FormatInt(*fileID, 10))
	}

	body, err := a.do(ctx, http.MethodGet, "/dashboard/export/"+url.PathEscape(format), q)
	if err != nil {
		return dto.ExportJob{}, err
	}
	var job dto.ExportJob
	if err := json.Unmarshal(body, &job); err != nil {
		return dto.ExportJob{}, errs.NewValidationError("malformed export response: " + err.Error())
	}
	if job.ExportID == "" {
		return dto.ExportJob{}, errs.NewValidationError("export response is missing export_id")
	}
	return job, nil
}

// GetExportStatus reads GET /reports/exports/{id}/status.
func (a *Adapter) GetExportStatus(ctx context.Context, exportID string) (dto.ExportStatus, error) {
	body, err := a.do(ctx, http.MethodGet, "/reports/exports/"+url.PathEscape(exportID)+"/status", nil)
	if err != nil {
		return dto.ExportStatus{}, err
	}
	var st dto.ExportStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return dto.ExportStatus{}, errs.NewValidationError("malformed export status: " + err.Error())
	}
	switch st.Status {
	case dto.ExportPending, dto.ExportProcessing, dto.ExportCompleted, dto.ExportFailed, dto.ExportCancelled:
	default:
		return dto.ExportStatus{}, errs.NewValidationError("unknown export status: " + st.Status)
	}
	if st.ExportID == "" {
		st.ExportID = exportID
	}
	return st, nil
}

func (a *Adapter) do(ctx context.Context, method, path string, q url.Values) ([]byte, error) {
	log := logger.FromContext(ctx)

	u := a.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if a.token != nil {
		if tok := a.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		log.Warn("upstream request failed", "method", method, "path", path, "error", err)
		return nil, errs.NewExternalServiceError(serviceName, true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewExternalServiceError(serviceName, true, err)
	}
	log.Debug("upstream request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, errs.NewHTTPError(resp.StatusCode, serverMessage(body), body)
	}
	return body, nil
}

// serverMessage extracts a human readable message from an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	return ""
}

type rawMetrics struct {
	Metrics          []dto.Metric    `json:"metrics"`
	Charts           json.RawMessage `json:"charts"`
	PeriodInfo       dto.PeriodInfo  `json:"period_info"`
	LastUpdated      string          `json:"last_updated"`
	DataQualityScore *float64        `json:"data_quality_score"`
}

// decodeMetrics parses a metrics payload, rejecting anything that does not
// match the documented shape.
func decodeMetrics(body []byte) (dto.DashboardMetrics, error) {
	var raw rawMetrics
	if err := json.Unmarshal(body, &raw); err != nil {
		return dto.DashboardMetrics{}, errs.NewValidationError("malformed dashboard payload: " + err.Error())
	}

	charts := map[string][]dto.ChartDataPoint{}
	if len(raw.Charts) > 0 && string(raw.Charts) != "null" {
		if err := json.Unmarshal(raw.Charts, &charts); err != nil {
			return dto.DashboardMetrics{}, errs.NewValidationError("malformed dashboard charts: " + err.Error())
		}
	}
	for name, series := range charts {
		for i, p := range series {
			if p.Period == "" {
				return dto.DashboardMetrics{}, errs.NewValidationError(fmt.Sprintf("chart %q point %d has no period", name, i))
			}
		}
	}

	var lastUpdated time.Time
	if raw.LastUpdated != "" {
		ts, err := time.Parse(time.RFC3339, raw.LastUpdated)
		if err != nil {
			return dto.DashboardMetrics{}, errs.NewValidationError("last_updated is not an RFC3339 timestamp")
		}
		lastUpdated = ts
	}

	score := 0.0
	if raw.DataQualityScore != nil {
		score = *raw.DataQualityScore
		if score < 0 || score > 1 {
			return dto.DashboardMetrics{}, errs.NewValidationError("data_quality_score must be between 0 and 1")
		}
	}

	return dto.DashboardMetrics{
		Metrics:          raw.Metrics,
		Charts:           charts,
		PeriodInfo:       raw.PeriodInfo,
		LastUpdated:      lastUpdated,
		DataQualityScore: score,
	}, nil
}
