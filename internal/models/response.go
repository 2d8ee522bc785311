package models

import "time"

// ResponseStatus is a caller's stated attendance intent.
type ResponseStatus string

const (
	StatusAttending    ResponseStatus = "attending"
	StatusMaybe        ResponseStatus = "maybe"
	StatusNotAttending ResponseStatus = "not_attending"
)

// Valid reports whether s is one of the three accepted statuses.
func (s ResponseStatus) Valid() bool {
	switch s {
	case StatusAttending, StatusMaybe, StatusNotAttending:
		return true
	default:
		return false
	}
}

// Response is a user's RSVP for one event. There is at most one per
// (user, event) pair; later RSVPs overwrite it in place.
type Response struct {
	ID       string         `db:"id" bson:"_id" json:"id"`
	UserID   string         `db:"user_id" bson:"user_id" json:"user_id"`
	EventID  string         `db:"event_id" bson:"event_id" json:"event_id"`
	Status   ResponseStatus `db:"status" bson:"status" json:"status"`
	RSVPDate time.Time      `db:"rsvp_date" bson:"rsvp_date" json:"rsvp_date"`
}

// SeatDelta is the change in an event's attendee count when a response
// moves from previous to next. An empty previous means no prior response.
func SeatDelta(previous, next ResponseStatus) int {
	switch {
	case next == StatusAttending && previous != StatusAttending:
		return 1
	case previous == StatusAttending && next != StatusAttending:
		return -1
	default:
		return 0
	}
}

// ResponseCounts is the number of responses per status for one event.
type ResponseCounts struct {
	Attending    int `json:"attending"`
	Maybe        int `json:"maybe"`
	NotAttending int `json:"not_attending"`
}

// Add counts one response. Unknown statuses are ignored.
func (c *ResponseCounts) Add(s ResponseStatus) {
	switch s {
	case StatusAttending:
		c.Attending++
	case StatusMaybe:
		c.Maybe++
	case StatusNotAttending:
		c.NotAttending++
	}
}
