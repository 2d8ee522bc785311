package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

// Store exposes the SQLite tables to the events service.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an initialised database.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open initialises the database at dsn and wraps it.
func Open(dsn string) (*Store, error) {
	db, err := InitDB(dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ListEvents(ctx context.Context, tiers []tier.Level) ([]models.Event, error) {
	return ListEvents(ctx, s.db, tiers)
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	return GetEventByID(ctx, s.db, eventID)
}

func (s *Store) ListUserResponses(ctx context.Context, userID string) ([]models.Response, error) {
	return GetResponsesForUser(ctx, s.db, userID)
}

func (s *Store) ListEventResponses(ctx context.Context, eventID string) ([]models.Response, error) {
	return GetResponsesForEvent(ctx, s.db, eventID)
}

func (s *Store) UpsertResponse(ctx context.Context, r models.Response, trackAttendance bool) (models.Response, error) {
	if trackAttendance {
		return CreateOrUpdateResponseTracked(ctx, s.db, r)
	}
	return CreateOrUpdateResponse(ctx, s.db, r)
}

// SaveEvent inserts or updates an event row.
func (s *Store) SaveEvent(ctx context.Context, e models.Event) error {
	return UpsertEvent(ctx, s.db, e)
}
