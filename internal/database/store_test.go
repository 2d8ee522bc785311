package database

import (
	"context"
	"testing"
	"time"

	"github.com/tiered-events/app/internal/events"
	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

var _ events.Store = (*Store)(nil)

// TestServiceOverSQLite runs the aggregation service against the real
// tables: a silver member sees the free and platinum events, RSVPs once,
// then changes their mind.
func TestServiceOverSQLite(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	createTestEvent(t, store.DB(), "free-meetup", tier.Free, 2)
	createTestEvent(t, store.DB(), "platinum-gala", tier.Platinum, 1)

	svc := events.NewService(store)

	all, err := svc.ListAllEventsAnnotated(ctx, tier.Silver, "user_1")
	if err != nil {
		t.Fatalf("ListAllEventsAnnotated() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAllEventsAnnotated() count = %d, want 2", len(all))
	}
	for _, e := range all {
		want := e.Tier == tier.Free
		if e.IsAccessible != want {
			t.Errorf("%s IsAccessible = %v, want %v", e.ID, e.IsAccessible, want)
		}
	}

	visible, err := svc.ListAccessibleEvents(ctx, tier.Silver, "user_1")
	if err != nil {
		t.Fatalf("ListAccessibleEvents() error = %v", err)
	}
	if len(visible) != 1 || visible[0].ID != "free-meetup" {
		t.Fatalf("ListAccessibleEvents() got = %+v", visible)
	}

	first, err := svc.RecordRSVP(ctx, "user_1", "free-meetup", models.StatusAttending)
	if err != nil {
		t.Fatalf("RecordRSVP() error = %v", err)
	}
	if time.Since(first.RSVPDate) > time.Minute {
		t.Errorf("RSVPDate %v is not fresh", first.RSVPDate)
	}
	second, err := svc.RecordRSVP(ctx, "user_1", "free-meetup", models.StatusMaybe)
	if err != nil {
		t.Fatalf("RecordRSVP() update error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second RSVP created a new row: %s vs %s", second.ID, first.ID)
	}

	visible, err = svc.ListAccessibleEvents(ctx, tier.Silver, "user_1")
	if err != nil {
		t.Fatalf("ListAccessibleEvents() error = %v", err)
	}
	if visible[0].UserRSVP == nil || visible[0].UserRSVP.Status != models.StatusMaybe {
		t.Errorf("UserRSVP got = %+v, want maybe", visible[0].UserRSVP)
	}

	if _, err := svc.RecordRSVP(ctx, "user_1", "free-meetup", "invalid_value"); err == nil {
		t.Error("expected invalid status to be rejected")
	}
	r, err := GetResponseByUserForEvent(ctx, store.DB(), "user_1", "free-meetup")
	if err != nil || r.Status != models.StatusMaybe {
		t.Errorf("invalid RSVP mutated the row: %+v, %v", r, err)
	}
}
