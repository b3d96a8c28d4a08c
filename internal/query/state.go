package query

import (
	"context"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// State is the typed view of a query handed to consumers. Once a load has
// settled exactly one of IsSuccess and IsError holds.
type State[T any] struct {
	Data          *T                   `json:"data,omitempty"`
	Status        Status               `json:"status"`
	IsLoading     bool                 `json:"isLoading"`
	IsSuccess     bool                 `json:"isSuccess"`
	IsError       bool                 `json:"isError"`
	Error         *errs.DashboardError `json:"error,omitempty"`
	DataUpdatedAt time.Time            `json:"dataUpdatedAt,omitzero"`
}

// Use mounts an observer on key and waits for it to settle. Failures are
// reported through State.Error; data from an earlier successful load is
// kept alongside the error.
func Use[T any](ctx context.Context, c *Client, key Key, fn QueryFunc, opts Options) State[T] {
	data, err := c.Observe(ctx, key, fn, opts)
	if err != nil {
		s := StateOf[T](c, key)
		s.Status = StatusError
		s.IsLoading = false
		s.IsSuccess = false
		s.IsError = true
		s.Error = errs.ToDashboardError(err)
		return s
	}

	s := State[T]{Status: StatusSuccess, IsSuccess: true}
	if v, ok := data.(T); ok {
		s.Data = &v
	}
	if st, ok := c.GetQueryState(key); ok {
		s.DataUpdatedAt = st.DataUpdatedAt
	}
	return s
}

// StateOf reads the current state of key without loading anything.
func StateOf[T any](c *Client, key Key) State[T] {
	st, ok := c.GetQueryState(key)
	if !ok {
		return State[T]{Status: StatusIdle}
	}
	s := State[T]{
		Status:        st.Status,
		IsLoading:     st.Status == StatusLoading,
		IsSuccess:     st.Status == StatusSuccess,
		IsError:       st.Status == StatusError,
		DataUpdatedAt: st.DataUpdatedAt,
	}
	if st.HasData {
		if v, ok := st.Data.(T); ok {
			s.Data = &v
		}
	}
	if st.Err != nil {
		s.Error = errs.ToDashboardError(st.Err)
	}
	return s
}
