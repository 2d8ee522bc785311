package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/tiered-events/app/internal/models"
)

const responseColumns = "id, user_id, event_id, status, rsvp_date"

// CreateOrUpdateResponse inserts a new response or updates the existing one
// for the same (user, event) pair, returning the stored row. It uses
// SQLite's "ON CONFLICT" clause so the pair never gets a second row.
func CreateOrUpdateResponse(ctx context.Context, db sqlx.QueryerContext, r models.Response) (models.Response, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	var stored models.Response
	err := sqlx.GetContext(ctx, db, &stored, `
		INSERT INTO user_events (id, user_id, event_id, status, rsvp_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, event_id) DO UPDATE SET
			status = excluded.status,
			rsvp_date = excluded.rsvp_date
		RETURNING `+responseColumns,
		r.ID, r.UserID, r.EventID, string(r.Status), r.RSVPDate.UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Response{}, models.ErrNoRecord
		}
		return models.Response{}, fmt.Errorf("upsert response: %w", err)
	}
	return stored, nil
}

// GetResponseByUserForEvent retrieves a specific user's response for a
// specific event, or models.ErrNoRecord.
func GetResponseByUserForEvent(ctx context.Context, db sqlx.QueryerContext, userID, eventID string) (models.Response, error) {
	var r models.Response
	err := sqlx.GetContext(ctx, db, &r,
		"SELECT "+responseColumns+" FROM user_events WHERE user_id = ? AND event_id = ?", userID, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Response{}, models.ErrNoRecord
		}
		return models.Response{}, fmt.Errorf("get response: %w", err)
	}
	return r, nil
}

// GetResponsesForUser retrieves every response a user has made.
func GetResponsesForUser(ctx context.Context, db sqlx.QueryerContext, userID string) ([]models.Response, error) {
	responses := []models.Response{}
	err := sqlx.SelectContext(ctx, db, &responses,
		"SELECT "+responseColumns+" FROM user_events WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("list responses for user: %w", err)
	}
	return responses, nil
}

// GetResponsesForEvent retrieves all responses for an event, most recent
// first.
func GetResponsesForEvent(ctx context.Context, db sqlx.QueryerContext, eventID string) ([]models.Response, error) {
	responses := []models.Response{}
	err := sqlx.SelectContext(ctx, db, &responses,
		"SELECT "+responseColumns+" FROM user_events WHERE event_id = ? ORDER BY rsvp_date DESC", eventID)
	if err != nil {
		return nil, fmt.Errorf("list responses for event: %w", err)
	}
	return responses, nil
}

// CreateOrUpdateResponseTracked is CreateOrUpdateResponse plus attendee
// bookkeeping: moving into "attending" takes a seat and moving out of it
// frees one, all in one transaction. Taking a seat on a full event fails
// with models.ErrEventFull and leaves everything unchanged.
func CreateOrUpdateResponseTracked(ctx context.Context, db *sqlx.DB, r models.Response) (models.Response, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Response{}, fmt.Errorf("begin rsvp transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := GetEventByID(ctx, tx, r.EventID)
	if err != nil {
		return models.Response{}, err
	}

	var previous models.ResponseStatus
	prev, err := GetResponseByUserForEvent(ctx, tx, r.UserID, r.EventID)
	switch {
	case err == nil:
		previous = prev.Status
	case errors.Is(err, models.ErrNoRecord):
	default:
		return models.Response{}, err
	}

	delta := models.SeatDelta(previous, r.Status)
	if delta > 0 && e.IsFull() {
		return models.Response{}, models.ErrEventFull
	}
	if delta != 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE events
			SET current_attendees = MAX(current_attendees + ?, 0), updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, delta, r.EventID)
		if err != nil {
			return models.Response{}, fmt.Errorf("adjust attendees: %w", err)
		}
	}

	stored, err := CreateOrUpdateResponse(ctx, tx, r)
	if err != nil {
		return models.Response{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Response{}, fmt.Errorf("commit rsvp transaction: %w", err)
	}
	return stored, nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
