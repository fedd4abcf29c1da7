package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/bathlog/internal/domain/model"
)

// filters holds the range, type and timezone query parameters shared by
// the read endpoints.
type filters struct {
	Range    model.Range
	Type     model.TypeFilter
	Location *time.Location
}

func parseFilters(q url.Values) (filters, error) {
	var f filters
	var err error
	if f.Range, err = model.ParseRange(q.Get("range")); err != nil {
		return f, err
	}
	if f.Type, err = model.ParseTypeFilter(q.Get("type")); err != nil {
		return f, err
	}
	if f.Location, err = parseLocation(q.Get("tz")); err != nil {
		return f, err
	}
	return f, nil
}

// parseLocation returns nil for an empty name so callers fall back to the
// service default.
func parseLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown tz %q", ErrBadRequest, name)
	}
	return loc, nil
}

// parseNonNegative reads an optional integer query parameter.
func parseNonNegative(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, key)
	}
	return n, nil
}
