package query

import (
	"net/http"
	"testing"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

type report struct {
	Total float64
}

func TestUse_Success(t *testing.T) {
	c := NewClient()
	fn := &countingFn{data: report{Total: 10}}

	s := Use[report](helpers.TestCtx(), c, testKey, fn.Fn, testOptions())
	if !s.IsSuccess || s.IsError || s.IsLoading {
		t.Fatalf("expected settled success, got %+v", s)
	}
	if s.Data == nil || s.Data.Total != 10 {
		t.Errorf("expected data total 10, got %+v", s.Data)
	}
	if s.DataUpdatedAt.IsZero() {
		t.Error("expected dataUpdatedAt to be set")
	}
}

func TestUse_ErrorIsWrapped(t *testing.T) {
	c := NewClient()
	body := []byte(`{"message":"period not available"}`)
	fn := &countingFn{err: errs.NewHTTPError(http.StatusForbidden, "period not available", body)}

	s := Use[report](helpers.TestCtx(), c, testKey, fn.Fn, testOptions())
	if !s.IsError || s.IsSuccess {
		t.Fatalf("expected error state, got %+v", s)
	}
	if s.Error == nil || s.Error.Code != "403" || s.Error.Message != "period not available" {
		t.Errorf("unexpected error %+v", s.Error)
	}
	if s.Error.Details["message"] != "period not available" {
		t.Errorf("expected response body in details, got %v", s.Error.Details)
	}
	if s.Data != nil {
		t.Errorf("expected no data, got %+v", s.Data)
	}
}

func TestUse_ErrorKeepsPreviousData(t *testing.T) {
	c := NewClient()
	fn := &countingFn{data: report{Total: 5}}
	_ = Use[report](helpers.TestCtx(), c, testKey, fn.Fn, testOptions())

	fn.err = errs.NewHTTPError(http.StatusUnauthorized, "", nil)
	s := Use[report](helpers.TestCtx(), c, testKey, fn.Fn, testOptions())
	if !s.IsError {
		t.Fatalf("expected error state, got %+v", s)
	}
	if s.Data == nil || s.Data.Total != 5 {
		t.Errorf("expected previous data kept, got %+v", s.Data)
	}
}

func TestStateOf_Idle(t *testing.T) {
	s := StateOf[report](NewClient(), testKey)
	if s.Status != StatusIdle || s.IsLoading || s.IsSuccess || s.IsError {
		t.Errorf("expected idle state, got %+v", s)
	}
}
