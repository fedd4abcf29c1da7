// Package export renders event lists and their aggregates as plain text, CSV
// and XLSX documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/model"
)

// Format is an export document type.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name. Empty input means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatText, FormatCSV, FormatXLSX:
		return f, nil
	case "txt":
		return FormatText, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension is the file suffix for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// TimeFormat selects a 24 hour or 12 hour clock.
type TimeFormat string

const (
	Clock24 TimeFormat = "24h"
	Clock12 TimeFormat = "12h"
)

// ParseTimeFormat parses "24h" or "12h". Empty input means 24h.
func ParseTimeFormat(s string) (TimeFormat, error) {
	switch tf := TimeFormat(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return Clock24, nil
	case Clock24, Clock12:
		return tf, nil
	}
	return "", ErrInvalidTimeFormat
}

// Options control how times and event types are rendered.
type Options struct {
	TimeFormat TimeFormat
	Location   *time.Location

	// Icons overrides the plain text icon per type. Missing or empty
	// entries fall back to EventType.Icon.
	Icons map[model.EventType]string
}

func (o Options) icon(t model.EventType) string {
	if icon := o.Icons[t]; icon != "" {
		return icon
	}
	return t.Icon()
}

func (o Options) loc() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// FormatDate renders ts as YYYY-MM-DD in loc.
func FormatDate(ts int64, loc *time.Location) string {
	return time.UnixMilli(ts).In(loc).Format("2006-01-02")
}

// FormatTime renders ts as HH:MM, or h:MM AM/PM for the 12 hour clock.
func FormatTime(ts int64, mode TimeFormat, loc *time.Location) string {
	t := time.UnixMilli(ts).In(loc)
	if mode == Clock12 {
		return t.Format("3:04 PM")
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Report is everything an export document may contain.
type Report struct {
	Events  []model.Event
	Summary aggregate.Summary
	Chart   aggregate.Chart
}
