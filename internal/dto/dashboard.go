package dto

import (
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// DashboardPeriod is the reporting window a dashboard is computed over.
type DashboardPeriod string

const (
	PeriodMTD          DashboardPeriod = "mtd"
	PeriodQTD          DashboardPeriod = "qtd"
	PeriodYTD          DashboardPeriod = "ytd"
	PeriodLast30Days   DashboardPeriod = "last_30_days"
	PeriodLast90Days   DashboardPeriod = "last_90_days"
	PeriodLast12Months DashboardPeriod = "last_12_months"
)

var AllPeriods = []DashboardPeriod{
	PeriodMTD, PeriodQTD, PeriodYTD, PeriodLast30Days, PeriodLast90Days, PeriodLast12Months,
}

func ParsePeriod(s string) (DashboardPeriod, error) {
	for _, p := range AllPeriods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", errs.NewValidationError("unknown dashboard period: " + s)
}

// DashboardType identifies a dashboard family. Each maps to one cache key
// token and one upstream endpoint.
type DashboardType string

const (
	DashboardCashFlow     DashboardType = "CASH_FLOW"
	DashboardPL           DashboardType = "PL"
	DashboardBalanceSheet DashboardType = "BALANCE_SHEET"
	DashboardRatios       DashboardType = "RATIOS"
	DashboardVariance     DashboardType = "VARIANCE"
	DashboardKPI          DashboardType = "KPI"
)

var AllDashboardTypes = []DashboardType{
	DashboardCashFlow, DashboardPL, DashboardBalanceSheet,
	DashboardRatios, DashboardVariance, DashboardKPI,
}

var dashboardTokens = map[DashboardType]string{
	DashboardCashFlow:     "cash-flow-dashboard",
	DashboardPL:           "pl-dashboard",
	DashboardBalanceSheet: "balance-sheet-dashboard",
	DashboardRatios:       "ratio-metrics",
	DashboardVariance:     "variance-metrics",
	DashboardKPI:          "kpi-metrics",
}

var dashboardPaths = map[DashboardType]string{
	DashboardCashFlow:     "cash-flow",
	DashboardPL:           "pl",
	DashboardBalanceSheet: "balance-sheet",
	DashboardRatios:       "ratios",
	DashboardVariance:     "variance",
	DashboardKPI:          "kpis",
}

// Token returns the cache key token for t. ok is false for unknown types.
func (t DashboardType) Token() (token string, ok bool) {
	token, ok = dashboardTokens[t]
	return token, ok
}

// Path returns the metrics endpoint segment for t, e.g. "cash-flow".
func (t DashboardType) Path() string {
	return dashboardPaths[t]
}

// ParseDashboardPath resolves an endpoint segment ("cash-flow", "pl", ...) to its type.
func ParseDashboardPath(s string) (DashboardType, error) {
	for t, p := range dashboardPaths {
		if p == s {
			return t, nil
		}
	}
	return "", errs.NewValidationError("unknown dashboard type: " + s)
}

// ChartDataPoint is one point of a chronologically ordered chart series.
type ChartDataPoint struct {
	Period   string  `json:"period"`
	Value    float64 `json:"value"`
	Label    string  `json:"label,omitempty"`
	Category string  `json:"category,omitempty"`
	Date     string  `json:"date,omitempty"`
}

type Metric struct {
	Name          string   `json:"name"`
	Label         string   `json:"label,omitempty"`
	Value         float64  `json:"value"`
	PreviousValue *float64 `json:"previous_value,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	Unit          string   `json:"unit,omitempty"`
}

type PeriodInfo struct {
	Period    string `json:"period"`
	Label     string `json:"label,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// DashboardMetrics is the validated payload of a dashboard metrics endpoint.
type DashboardMetrics struct {
	Metrics          []Metric                    `json:"metrics"`
	Charts           map[string][]ChartDataPoint `json:"charts"`
	PeriodInfo       PeriodInfo                  `json:"period_info"`
	LastUpdated      time.Time                   `json:"last_updated"`
	DataQualityScore float64                     `json:"data_quality_score"`
}

type StaleResponse struct {
	Stale bool `json:"stale"`
}
