package optimizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
)

func TestCompressData_Rounds(t *testing.T) {
	got := CompressData([]map[string]any{{"value": 123.456789}})
	want := []map[string]any{{"value": 123.46}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

func TestCompressData_DropsNil(t *testing.T) {
	got := CompressData([]map[string]any{{"a": 1, "b": nil}})
	want := []map[string]any{{"a": 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

func TestCompressData_DecodedJSON(t *testing.T) {
	in := []any{
		map[string]any{"period": "2025-01", "value": 10.006, "note": nil},
		"not a record",
	}
	got := CompressData(in)
	want := []any{
		map[string]any{"period": "2025-01", "value": 10.01},
		"not a record",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
	if _, ok := in[0].(map[string]any)["note"]; !ok {
		t.Error("input record was modified")
	}
}

func TestCompressData_NonSlice(t *testing.T) {
	in := map[string]any{"value": 1.23456}
	got := CompressData(in)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("expected input unchanged:\n%s", diff)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0:         0,
		1.234:     1.23,
		1.236:     1.24,
		-1.5:      -1.5,
		-2.345678: -2.35,
		1000000.1: 1000000.1,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCompressCharts(t *testing.T) {
	charts := map[string][]dto.ChartDataPoint{
		"net_income": {{Period: "2025-01", Value: 99.999}, {Period: "2025-02", Value: 12.344}},
	}
	got := CompressCharts(charts)
	want := map[string][]dto.ChartDataPoint{
		"net_income": {{Period: "2025-01", Value: 100}, {Period: "2025-02", Value: 12.34}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
	if charts["net_income"][0].Value != 99.999 {
		t.Error("input series was modified")
	}
}
