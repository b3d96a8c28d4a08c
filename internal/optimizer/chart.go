// Package optimizer bounds and trims chart series before they are cached or
// rendered. Everything here is lossy and meant for display-bound data only.
package optimizer

import (
	"github.com/GregMSThompson/finance-dashboard/internal/dto"
)

// MaxChartPoints is the per-series cap applied to dashboard responses.
const MaxChartPoints = 100

// OptimizeChartData decimates series to at most maxPoints elements by keeping
// every step-th point, step = ceil(len/maxPoints). The first point is always
// kept, the last is not guaranteed. Series already within the bound, or a
// non-positive maxPoints, are returned as is.
func OptimizeChartData[P any](series []P, maxPoints int) []P {
	if maxPoints <= 0 || len(series) <= maxPoints {
		return series
	}
	step := (len(series) + maxPoints - 1) / maxPoints
	out := make([]P, 0, (len(series)+step-1)/step)
	for i := 0; i < len(series); i += step {
		out = append(out, series[i])
	}
	return out
}

// OptimizeCharts applies OptimizeChartData to every named series. The input
// map is not modified.
func OptimizeCharts(charts map[string][]dto.ChartDataPoint, maxPoints int) map[string][]dto.ChartDataPoint {
	if charts == nil {
		return nil
	}
	out := make(map[string][]dto.ChartDataPoint, len(charts))
	for name, series := range charts {
		out[name] = OptimizeChartData(series, maxPoints)
	}
	return out
}
