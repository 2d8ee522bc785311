package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tiered-events/app/internal/config"
	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		StoreDriver: config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "events.db"),
	}

	b, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer b.Close(ctx)

	if b.Driver != config.DriverSQLite {
		t.Errorf("Driver = %q", b.Driver)
	}
	if err := b.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	e := models.Event{
		ID:           "meetup",
		Title:        "Meetup",
		EventDate:    time.Date(2026, 11, 5, 18, 0, 0, 0, time.UTC),
		Tier:         tier.Free,
		MaxAttendees: 20,
	}
	if err := b.SaveEvent(ctx, e); err != nil {
		t.Fatalf("SaveEvent() error = %v", err)
	}
	got, err := b.GetEvent(ctx, "meetup")
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if got.Title != "Meetup" || got.MaxAttendees != 20 {
		t.Errorf("GetEvent() = %+v", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{StoreDriver: "postgres"}); err == nil {
		t.Error("Open() with unknown driver should fail")
	}
}

func TestCloseNil(t *testing.T) {
	var b *Backend
	if err := b.Close(context.Background()); err != nil {
		t.Errorf("Close() on nil backend = %v", err)
	}
}
