// Package model contains domain models passed between layers.
package model

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType is the category of a logged event.
type EventType string

const (
	Pee  EventType = "pee"
	Poop EventType = "poop"
)

// EventTypes lists every known type in display order.
var EventTypes = []EventType{Pee, Poop}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == Pee || t == Poop
}

// Label is the human readable name of the type.
func (t EventType) Label() string {
	switch t {
	case Pee:
		return "Pee"
	case Poop:
		return "Poop"
	default:
		return string(t)
	}
}

// Icon is the emoji used in plain text exports.
func (t EventType) Icon() string {
	switch t {
	case Pee:
		return "💧"
	case Poop:
		return "💩"
	default:
		return "•"
	}
}

// ParseEventType parses a wire value such as "pee".
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// Event is an immutable record of one occurrence.
// TS is milliseconds since the unix epoch.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	TS   int64     `json:"ts"`
}

// At returns the event time in loc.
func (e Event) At(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(e.TS).In(loc)
}

// Validate checks the fields every stored event must carry.
func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingID
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if e.TS <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// WidgetIDPrefix marks ids generated by the home screen widget.
const WidgetIDPrefix = "widget-"

// NewEventID returns a client id of the form "<unix ms>-<base36 random>".
func NewEventID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomBase36(7)
}

// NewWidgetID returns a widget id of the form "widget-<uuid>".
func NewWidgetID() string {
	return WidgetIDPrefix + uuid.NewString()
}

// IsWidgetID reports whether id was produced by the widget.
func IsWidgetID(id string) bool {
	return strings.HasPrefix(id, WidgetIDPrefix)
}

func randomBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, size)
		if err != nil {
			b.WriteByte(alphabet[i%len(alphabet)])
			continue
		}
		b.WriteByte(alphabet[v.Int64()])
	}
	return b.String()
}
