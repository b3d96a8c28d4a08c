package optimizer

import (
	"math"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
)

// Round2 rounds half up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// CompressData trims a slice of flat records: numeric fields are rounded to
// two decimals and nil fields are dropped. Anything that is not a slice of
// records is returned unchanged. Records are copied, never modified in place.
func CompressData(data any) any {
	switch rows := data.(type) {
	case []map[string]any:
		out := make([]map[string]any, len(rows))
		for i, row := range rows {
			out[i] = compressRecord(row)
		}
		return out
	case []any:
		out := make([]any, len(rows))
		for i, row := range rows {
			if rec, ok := row.(map[string]any); ok {
				out[i] = compressRecord(rec)
				continue
			}
			out[i] = row
		}
		return out
	default:
		return data
	}
}

func compressRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		switch n := v.(type) {
		case nil:
			continue
		case float64:
			out[k] = Round2(n)
		case float32:
			out[k] = Round2(float64(n))
		default:
			out[k] = v
		}
	}
	return out
}

// CompressCharts rounds every point value of every series to two decimals.
func CompressCharts(charts map[string][]dto.ChartDataPoint) map[string][]dto.ChartDataPoint {
	if charts == nil {
		return nil
	}
	out := make(map[string][]dto.ChartDataPoint, len(charts))
	for name, series := range charts {
		points := make([]dto.ChartDataPoint, len(series))
		for i, p := range series {
			p.Value = Round2(p.Value)
			points[i] = p
		}
		out[name] = points
	}
	return out
}
