package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

type listEnvelope struct {
	Success bool                       `json:"success"`
	Data    []models.EventWithResponse `json:"data"`
	Error   string                     `json:"error"`
}

func eventIDs(in []models.EventWithResponse) string {
	ids := make([]string, 0, len(in))
	for _, e := range in {
		ids = append(ids, e.ID)
	}
	return strings.Join(ids, ",")
}

func TestEventsPageSilverMember(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	resp, body := ts.get(t, tier.Silver, "/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /events status = %d, want 200", resp.StatusCode)
	}

	for _, want := range []string{
		"Your Events",
		"Silver Member",
		"Next tier: Gold",
		"Community Meetup",
		"Silver Workshop",
		"Upgrade to Platinum",
		"Upgrade to Gold",
		"to access this event",
		"Tuesday, November 3, 2026",
		"03:04 PM",
		"0 / 10 attending",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("events page missing %q", want)
		}
	}

	// Locked events are shown but carry no RSVP form.
	if !strings.Contains(body, `data-event-id="platinum-gala"`) {
		t.Error("platinum event should be listed")
	}
	if strings.Contains(body, `name="eventId" value="platinum-gala"`) {
		t.Error("locked platinum event must not offer RSVP controls")
	}
	if !strings.Contains(body, `name="eventId" value="free-meetup"`) {
		t.Error("free event should offer RSVP controls")
	}
	// Accessible cards come before the locked section even when a locked
	// event is earlier in the calendar.
	meetup := strings.Index(body, `data-event-id="free-meetup"`)
	gala := strings.Index(body, `data-event-id="platinum-gala"`)
	heading := strings.Index(body, "Upgrade to unlock")
	if heading < 0 || !(meetup < heading && heading < gala) {
		t.Errorf("card order: meetup=%d heading=%d gala=%d", meetup, heading, gala)
	}
	// Silver only gets its own tiers in the filter.
	if strings.Contains(body, `<option value="gold"`) {
		t.Error("tier filter should not offer gold to a silver member")
	}
}

func TestEventsPageFilters(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	_, body := ts.get(t, tier.Gold, "/events?tier=gold&search=SUMMIT")
	if !strings.Contains(body, `data-event-id="gold-summit"`) {
		t.Error("filtered page should show the summit")
	}
	for _, id := range []string{"gold-masterclass", "free-meetup", "platinum-gala"} {
		if strings.Contains(body, `data-event-id="`+id+`"`) {
			t.Errorf("filtered page should not show %s", id)
		}
	}
	if !strings.Contains(body, ">Clear<") {
		t.Error("active filter should offer Clear")
	}

	_, body = ts.get(t, tier.Gold, "/events?search=nothing-matches-this")
	if !strings.Contains(body, "No events found") || !strings.Contains(body, "Try adjusting your filters or search terms.") {
		t.Error("empty filtered page should suggest adjusting filters")
	}
}

func TestEventsPageIgnoresBadFilter(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	resp, body := ts.get(t, tier.Gold, "/events?tier.name=gold&search.x=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /events with odd query = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `data-event-id="gold-summit"`) {
		t.Error("unparsable filter should fall back to the full listing")
	}
}

func TestEventsPageOnlyLocked(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	_, body := ts.get(t, tier.Free, "/events?search=gala")
	if !strings.Contains(body, "Upgrade to unlock") || !strings.Contains(body, `data-event-id="platinum-gala"`) {
		t.Error("locked match should render in the locked section")
	}
	if strings.Contains(body, "No events found") {
		t.Error("a locked match is not an empty result")
	}
}

func TestEventsPageLoadError(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	ts.store.Close()
	resp, body := ts.get(t, tier.Free, "/events")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("GET /events with closed store = %d, want 500", resp.StatusCode)
	}
	if !strings.Contains(body, "Error loading events") || !strings.Contains(body, "Please try refreshing the page.") {
		t.Error("load failure should render the error state")
	}
}

func TestListEventsAPI(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantIDs    string
	}{
		{"all annotated", "/api/events", http.StatusOK, "platinum-gala,free-meetup,silver-workshop,gold-summit,gold-masterclass"},
		{"accessible only", "/api/events?scope=accessible", http.StatusOK, "free-meetup,silver-workshop"},
		{"tier filter", "/api/events?tier=free", http.StatusOK, "free-meetup"},
		{"search filter", "/api/events?search=workshop", http.StatusOK, "silver-workshop"},
		{"unknown scope", "/api/events?scope=everything", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.get(t, tier.Silver, tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.wantStatus)
			}
			var env listEnvelope
			if err := json.Unmarshal([]byte(body), &env); err != nil {
				t.Fatalf("decode %s: %v", body, err)
			}
			if tt.wantStatus != http.StatusOK {
				if env.Error != "Invalid scope" {
					t.Errorf("error = %q, want Invalid scope", env.Error)
				}
				return
			}
			if got := eventIDs(env.Data); got != tt.wantIDs {
				t.Errorf("ids = %s, want %s", got, tt.wantIDs)
			}
		})
	}
}

func TestListEventsAPIAnnotations(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	_, body := ts.get(t, tier.Silver, "/api/events")
	var env listEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, e := range env.Data {
		want := e.Tier == tier.Free || e.Tier == tier.Silver
		if e.IsAccessible != want {
			t.Errorf("%s is_accessible = %v, want %v", e.ID, e.IsAccessible, want)
		}
		if e.UserRSVP != nil {
			t.Errorf("%s should have no RSVP yet", e.ID)
		}
	}
}

func TestGetEventAPI(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	resp, body := ts.get(t, tier.Silver, "/api/events/gold-summit")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET gold-summit status = %d, want 200", resp.StatusCode)
	}
	var env struct {
		Data models.EventWithResponse `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.ID != "gold-summit" || env.Data.IsAccessible {
		t.Errorf("got %s accessible=%v, want gold-summit locked", env.Data.ID, env.Data.IsAccessible)
	}

	if strings.Contains(body, `"responses"`) {
		t.Errorf("locked event should not carry response counts: %s", body)
	}

	resp, _ = ts.do(t, tier.Silver, http.MethodPost, "/api/events/rsvp", "application/json",
		strings.NewReader(`{"eventId":"free-meetup","status":"maybe"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("RSVP status = %d, want 200", resp.StatusCode)
	}
	_, body = ts.get(t, tier.Silver, "/api/events/free-meetup")
	var detail struct {
		Data struct {
			models.EventWithResponse
			Responses *models.ResponseCounts `json:"responses"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Data.Responses == nil || *detail.Data.Responses != (models.ResponseCounts{Maybe: 1}) {
		t.Errorf("free-meetup responses = %+v, want one maybe", detail.Data.Responses)
	}
	if detail.Data.UserRSVP == nil || detail.Data.UserRSVP.Status != models.StatusMaybe {
		t.Errorf("free-meetup user_rsvp = %+v", detail.Data.UserRSVP)
	}

	resp, body = ts.get(t, tier.Silver, "/api/events/no-such-event")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing event status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, `"error":"Event not found"`) {
		t.Errorf("missing event body = %s", body)
	}

	ts.store.Close()
	resp, body = ts.get(t, tier.Silver, "/api/events/gold-summit")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("closed store status = %d, want 500", resp.StatusCode)
	}
	if strings.Contains(body, "sql") {
		t.Errorf("store error leaked to client: %s", body)
	}
}

func TestProfilePage(t *testing.T) {
	ts, teardown := setupTestServer(t)
	defer teardown()

	_, body := ts.get(t, tier.Gold, "/profile")
	for _, want := range []string{"Robin Park", "Gold Member", "You have not responded to any events yet."} {
		if !strings.Contains(body, want) {
			t.Errorf("profile page missing %q", want)
		}
	}

	resp, _ := ts.do(t, tier.Gold, http.MethodPost, "/api/events/rsvp", "application/json",
		strings.NewReader(`{"eventId":"gold-summit","status":"maybe"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("RSVP status = %d, want 200", resp.StatusCode)
	}

	_, body = ts.get(t, tier.Gold, "/profile")
	if !strings.Contains(body, "Leadership Summit") || !strings.Contains(body, "Maybe") {
		t.Error("profile should list the summit response")
	}
	if !strings.Contains(body, "api.dicebear.com") {
		t.Error("profile should show an avatar")
	}
}
