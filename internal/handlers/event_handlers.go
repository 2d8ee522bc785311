package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/tiered-events/app/internal/apperrors"
	"github.com/tiered-events/app/internal/events"
	"github.com/tiered-events/app/internal/icons"
	"github.com/tiered-events/app/internal/identity"
	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

// eventCard is an annotated event plus what its card needs to render.
type eventCard struct {
	models.EventWithResponse
	Image       string
	FillPercent string
	RSVPStatus  models.ResponseStatus
	ReturnURL   string
}

func (s *Server) cards(in []models.EventWithResponse, returnURL string) []eventCard {
	out := make([]eventCard, 0, len(in))
	for _, e := range in {
		c := eventCard{
			EventWithResponse: e,
			FillPercent:       fmt.Sprintf("%.0f", e.AttendancePercent()),
			ReturnURL:         returnURL,
		}
		if e.ImageURL != nil && *e.ImageURL != "" {
			c.Image = *e.ImageURL
		} else {
			c.Image = s.icons.MembershipEventIcon(e.ID, e.Tier, cardImageSize)
		}
		if e.UserRSVP != nil {
			c.RSVPStatus = e.UserRSVP.Status
		}
		out = append(out, c)
	}
	return out
}

// WelcomePage shows the membership tiers. Signed-in callers go straight to
// their events.
func (s *Server) WelcomePage(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity.CallerFromContext(r.Context()); ok {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}

	data := pageData(r, "Welcome to Tier Events")
	data["Levels"] = tier.All()
	data["SignInURL"] = s.signInURL
	data["SignUpURL"] = s.signUpURL
	RenderTemplate(w, "welcome.html", data)
}

// EventsPage lists every event for the caller: accessible ones with RSVP
// controls and the rest locked, narrowed by the tier and search query.
func (s *Server) EventsPage(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.CallerFromContext(r.Context())

	filter, err := events.ParseFilter(r.URL.Query())
	if err != nil {
		log.Debug().Err(err).Str("query", r.URL.RawQuery).Msg("Ignoring unparsable event filter")
		filter = events.Filter{}
	}

	data := pageData(r, "Your Events")
	data["Level"] = caller.Level
	data["Filter"] = filter
	data["TierOptions"] = events.TierOptions(caller.Level)

	all, err := s.events.ListAllEventsAnnotated(r.Context(), caller.Level, caller.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", caller.UserID).Msg("Error loading events")
		data["LoadError"] = true
		RenderTemplateStatus(w, http.StatusInternalServerError, "events.html", data)
		return
	}

	shown := filter.Apply(all)
	available, locked := events.Partition(shown)
	data["Cards"] = s.cards(available, r.URL.RequestURI())
	data["LockedCards"] = s.cards(locked, r.URL.RequestURI())
	if len(shown) == 0 {
		if filter.Active() {
			data["EmptyMessage"] = "Try adjusting your filters or search terms."
		} else {
			data["EmptyMessage"] = "Check back later for new events in your tier."
		}
	}
	RenderTemplate(w, "events.html", data)
}

// ProfilePage shows the caller's membership, avatar and current RSVPs.
func (s *Server) ProfilePage(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.CallerFromContext(r.Context())

	data := pageData(r, "Your Profile")
	data["Avatar"] = s.icons.UserAvatar(caller.UserID, icons.DefaultAvatarSize*2)
	data["Level"] = caller.Level

	all, err := s.events.ListAllEventsAnnotated(r.Context(), caller.Level, caller.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", caller.UserID).Msg("Error loading profile responses")
		data["LoadError"] = true
		RenderTemplateStatus(w, http.StatusInternalServerError, "profile.html", data)
		return
	}
	var responded []models.EventWithResponse
	for _, e := range all {
		if e.UserRSVP != nil {
			responded = append(responded, e)
		}
	}
	data["Responses"] = responded
	RenderTemplate(w, "profile.html", data)
}

// writeServiceError answers an API request that failed in the service.
// Data-access failures are logged with their cause; the client only sees
// the public message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeDataAccess {
		caller, _ := identity.CallerFromContext(r.Context())
		log.Error().Err(err).Str("user_id", caller.UserID).Str("path", r.URL.Path).Msg("Service failure")
	}
	writeJSONError(w, code.HTTPStatus(), apperrors.PublicMessage(err))
}

// ListEventsAPI returns the caller's annotated events as JSON.
// scope=accessible limits the list to events the caller can attend;
// tier and search narrow it further.
func (s *Server) ListEventsAPI(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.CallerFromContext(r.Context())

	filter, err := events.ParseFilter(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid filter")
		return
	}

	var list []models.EventWithResponse
	switch r.URL.Query().Get("scope") {
	case "", "all":
		list, err = s.events.ListAllEventsAnnotated(r.Context(), caller.Level, caller.UserID)
	case "accessible":
		list, err = s.events.ListAccessibleEvents(r.Context(), caller.Level, caller.UserID)
	default:
		writeJSONError(w, http.StatusBadRequest, "Invalid scope")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    filter.Apply(list),
	})
}

// eventDetail is the single-event payload. Response counts are only
// included for events the caller can attend.
type eventDetail struct {
	models.EventWithResponse
	Responses *models.ResponseCounts `json:"responses,omitempty"`
}

// GetEventAPI returns one event annotated for the caller. A missing event
// is a 404; a failing store is a 500.
func (s *Server) GetEventAPI(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.CallerFromContext(r.Context())

	e, err := s.events.LookupEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	responses, err := s.events.ListUserResponses(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	detail := eventDetail{
		EventWithResponse: events.Annotate([]models.Event{e}, responses, caller.UserID, caller.Level)[0],
	}
	if detail.IsAccessible {
		counts, err := s.events.ResponseCounts(r.Context(), e.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		detail.Responses = &counts
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    detail,
	})
}

// MyResponsesAPI returns every RSVP the caller has made.
func (s *Server) MyResponsesAPI(w http.ResponseWriter, r *http.Request) {
	caller, _ := identity.CallerFromContext(r.Context())

	responses, err := s.events.ListUserResponses(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    responses,
	})
}
