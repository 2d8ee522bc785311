package models

import (
	"time"

	"github.com/tiered-events/app/internal/tier"
)

// Event is an event row. Rows are written by the admin loader; this service
// only reads them.
type Event struct {
	ID               string     `db:"id" bson:"_id" json:"id" yaml:"id"`
	Title            string     `db:"title" bson:"title" json:"title" yaml:"title"`
	Description      string     `db:"description" bson:"description" json:"description" yaml:"description"`
	EventDate        time.Time  `db:"event_date" bson:"event_date" json:"event_date" yaml:"event_date"`
	ImageURL         *string    `db:"image_url" bson:"image_url,omitempty" json:"image_url" yaml:"image_url,omitempty"`
	Tier             tier.Level `db:"tier" bson:"tier" json:"tier" yaml:"tier"`
	Location         *string    `db:"location" bson:"location,omitempty" json:"location" yaml:"location,omitempty"`
	MaxAttendees     int        `db:"max_attendees" bson:"max_attendees" json:"max_attendees" yaml:"max_attendees"`
	CurrentAttendees int        `db:"current_attendees" bson:"current_attendees" json:"current_attendees" yaml:"current_attendees"`
	CreatedAt        time.Time  `db:"created_at" bson:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt        time.Time  `db:"updated_at" bson:"updated_at" json:"updated_at" yaml:"-"`
}

// IsFull reports whether the event has reached capacity.
func (e Event) IsFull() bool {
	return e.CurrentAttendees >= e.MaxAttendees
}

// AttendancePercent is the fill ratio as a percentage, capped at 100.
func (e Event) AttendancePercent() float64 {
	if e.MaxAttendees <= 0 {
		return 100
	}
	p := float64(e.CurrentAttendees) / float64(e.MaxAttendees) * 100
	if p > 100 {
		return 100
	}
	return p
}

// EventWithResponse is an event annotated for one caller. The derived
// fields are computed on every read and never stored.
type EventWithResponse struct {
	Event
	UserRSVP     *Response `json:"user_rsvp,omitempty"`
	IsFull       bool      `json:"is_full"`
	IsAccessible bool      `json:"is_accessible"`
}
