package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
)

// Key identifies a cache entry. Two keys are equal iff they have the same
// elements in the same order.
type Key []string

// GetCacheKey builds the key for a dashboard query. The file id element is
// present only when fileID is non-nil, so a file id of 0 still yields a
// three element key. Unknown dashboard types are a programming error.
func GetCacheKey(t dto.DashboardType, period dto.DashboardPeriod, fileID *int64) Key {
	token, ok := t.Token()
	if !ok {
		panic(fmt.Sprintf("query: unknown dashboard type %q", t))
	}
	if fileID == nil {
		return Key{token, string(period)}
	}
	return Key{token, string(period), strconv.FormatInt(*fileID, 10)}
}

// BaseKey returns the single element prefix shared by every key of t.
func BaseKey(t dto.DashboardType) Key {
	token, ok := t.Token()
	if !ok {
		panic(fmt.Sprintf("query: unknown dashboard type %q", t))
	}
	return Key{token}
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether the leading elements of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return k[:len(prefix)].Equal(prefix)
}
