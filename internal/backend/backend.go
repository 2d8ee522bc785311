// Package backend opens the event store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/tiered-events/app/internal/config"
	"github.com/tiered-events/app/internal/database"
	"github.com/tiered-events/app/internal/events"
	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/mongodb"
)

// Store is what the server and the seeder need from either backend.
type Store interface {
	events.Store
	SaveEvent(ctx context.Context, e models.Event) error
	Ping(ctx context.Context) error
}

// Backend is an open store plus the means to release it.
type Backend struct {
	Store
	Driver string
	close  func(context.Context) error
}

// Open connects to the store named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := database.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &Backend{
			Store:  s,
			Driver: config.DriverSQLite,
			close:  func(context.Context) error { return s.Close() },
		}, nil
	case config.DriverMongo:
		s, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return &Backend{Store: s, Driver: config.DriverMongo, close: s.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close releases the store.
func (b *Backend) Close(ctx context.Context) error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close(ctx)
}
