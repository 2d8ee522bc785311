package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

const eventColumns = `id, title, description, event_date, image_url, tier, location,
	max_attendees, current_attendees, created_at, updated_at`

// UpsertEvent inserts an event or replaces the editable fields of an
// existing one. The attendee counter is only set on insert.
func UpsertEvent(ctx context.Context, db sqlx.ExecerContext, e models.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, title, description, event_date, image_url, tier, location, max_attendees, current_attendees)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			event_date = excluded.event_date,
			image_url = excluded.image_url,
			tier = excluded.tier,
			location = excluded.location,
			max_attendees = excluded.max_attendees,
			updated_at = CURRENT_TIMESTAMP
	`, e.ID, e.Title, e.Description, e.EventDate.UTC(), e.ImageURL, string(e.Tier), e.Location, e.MaxAttendees, e.CurrentAttendees)
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", e.ID, err)
	}
	return nil
}

// GetEventByID retrieves an event by its ID. It returns models.ErrNoRecord
// when nothing matches.
func GetEventByID(ctx context.Context, db sqlx.QueryerContext, id string) (models.Event, error) {
	var e models.Event
	err := sqlx.GetContext(ctx, db, &e, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Event{}, models.ErrNoRecord
		}
		return models.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// ListEvents retrieves events ordered by event date ascending, restricted
// to the given tiers unless tiers is nil.
func ListEvents(ctx context.Context, db *sqlx.DB, tiers []tier.Level) ([]models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events ORDER BY event_date ASC, id ASC"
	var args []any

	if tiers != nil {
		if len(tiers) == 0 {
			return []models.Event{}, nil
		}
		q, a, err := sqlx.In("SELECT "+eventColumns+" FROM events WHERE tier IN (?) ORDER BY event_date ASC, id ASC", tiers)
		if err != nil {
			return nil, fmt.Errorf("build event query: %w", err)
		}
		query, args = db.Rebind(q), a
	}

	events := []models.Event{}
	if err := db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
