// Package types contains response shapes shared by the service, the HTTP API
// and the CLI.
package types

import (
	"time"

	"github.com/okian/bathlog/internal/domain/export"
	"github.com/okian/bathlog/internal/domain/model"
)

// ListQuery selects a page of events. A nil Location means the service default.
type ListQuery struct {
	Range    model.Range
	Type     model.TypeFilter
	Limit    int
	Offset   int
	Location *time.Location
}

// ExportRequest selects what to export and how.
type ExportRequest struct {
	Format     export.Format
	Range      model.Range
	Type       model.TypeFilter
	TimeFormat export.TimeFormat
	Location   *time.Location
}

// Page is one slice of a filtered, newest first event list.
type Page struct {
	Events []model.Event `json:"events"`
	// Total is the number of events matching range and type before paging.
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	// Counts are per type over the range only, ignoring the type filter.
	Counts RangeCounts `json:"counts"`
}

// HasMore reports whether events remain past this page.
func (p Page) HasMore() bool {
	return p.Offset+len(p.Events) < p.Total
}

// RangeCounts feeds the summary cards for one range.
type RangeCounts struct {
	Range model.Range `json:"range"`
	Total int         `json:"total"`
	Pee   int         `json:"pee"`
	Poop  int         `json:"poop"`
}

// Stats is a point in time view of the service.
type Stats struct {
	StoredEvents  int    `json:"stored_events"`
	QueuedEvents  int    `json:"queued_events"`
	Subscribers   int    `json:"subscribers"`
	SyncRunning   bool   `json:"sync_running"`
	OldestTS      int64  `json:"oldest_ts"`
	NewestTS      int64  `json:"newest_ts"`
	Timezone      string `json:"timezone"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
