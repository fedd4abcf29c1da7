package model

import "strings"

// Range selects a lower time bound relative to now.
type Range string

const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
	RangeAll   Range = "all"
)

// Ranges lists every range in display order.
var Ranges = []Range{RangeToday, RangeWeek, RangeMonth, RangeYear, RangeAll}

// Valid reports whether r is a known range.
func (r Range) Valid() bool {
	switch r {
	case RangeToday, RangeWeek, RangeMonth, RangeYear, RangeAll:
		return true
	}
	return false
}

// Label is the summary heading used by exports.
func (r Range) Label() string {
	switch r {
	case RangeToday:
		return "Today"
	case RangeWeek:
		return "This week"
	case RangeMonth:
		return "This month"
	case RangeYear:
		return "This year"
	default:
		return "All time"
	}
}

// ParseRange parses a range name. Empty input means today.
func ParseRange(s string) (Range, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RangeToday, nil
	}
	r := Range(s)
	if !r.Valid() {
		return "", ErrInvalidRange
	}
	return r, nil
}

// TypeFilter narrows events to one type, or keeps all.
type TypeFilter string

const (
	FilterAll  TypeFilter = "all"
	FilterPee  TypeFilter = TypeFilter(Pee)
	FilterPoop TypeFilter = TypeFilter(Poop)
)

// Match reports whether t passes the filter.
func (f TypeFilter) Match(t EventType) bool {
	return f == FilterAll || f == "" || EventType(f) == t
}

// Types returns the event types the filter keeps, in display order.
func (f TypeFilter) Types() []EventType {
	if f == FilterAll || f == "" {
		return EventTypes
	}
	return []EventType{EventType(f)}
}

// ParseTypeFilter parses a filter name. Empty input means all.
func ParseTypeFilter(s string) (TypeFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch TypeFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPee, FilterPoop:
		return TypeFilter(s), nil
	}
	return "", ErrInvalidFilter
}
