package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"

	"github.com/tiered-events/app/internal/apperrors"
	"github.com/tiered-events/app/internal/identity"
	"github.com/tiered-events/app/internal/models"
)

// rsvpRequest is the body of POST /api/events/rsvp.
type rsvpRequest struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// rsvpForm is the card form posted to /events/rsvp.
type rsvpForm struct {
	EventID string `schema:"eventId"`
	Status  string `schema:"status"`
	Return  string `schema:"return"`
}

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// rsvpFailure maps a failed RSVP to the status and message sent back.
// Anything that is not a caller mistake is reported generically and logged.
func rsvpFailure(r *http.Request, caller identity.Caller, eventID string, err error) (int, string) {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeValidation, apperrors.CodeNotFound, apperrors.CodeConflict,
		apperrors.CodeForbidden, apperrors.CodeAuthenticationRequired:
		return code.HTTPStatus(), apperrors.PublicMessage(err)
	default:
		log.Error().Err(err).
			Str("user_id", caller.UserID).
			Str("event_id", eventID).
			Str("path", r.URL.Path).
			Msg("Error processing event response")
		return http.StatusInternalServerError, "Failed to process event response"
	}
}

// checkRSVP applies the request-level checks in the order clients rely on.
func checkRSVP(req rsvpRequest) (models.ResponseStatus, string, bool) {
	req.EventID = strings.TrimSpace(req.EventID)
	req.Status = strings.TrimSpace(req.Status)
	if req.EventID == "" || req.Status == "" {
		return "", "Event ID and status are required", false
	}
	status := models.ResponseStatus(req.Status)
	if !status.Valid() {
		return "", "Invalid response status", false
	}
	return status, "", true
}

// SubmitRSVP records the caller's response to an event from a JSON body
// {"eventId": ..., "status": ...} and answers {"success": true, "data": ...}.
func (s *Server) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, apperrors.ErrAuthenticationRequired.Message)
		return
	}

	var req rsvpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, msg, ok := checkRSVP(req)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	stored, err := s.events.RecordRSVPForLevel(r.Context(), caller.Level, caller.UserID, strings.TrimSpace(req.EventID), status)
	if err != nil {
		code, msg := rsvpFailure(r, caller, req.EventID, err)
		writeJSONError(w, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    stored,
	})
}

// SubmitRSVPForm is the form-post variant used by the event cards. It
// redirects back to the listing the form came from.
func (s *Server) SubmitRSVPForm(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		RenderErrorPage(w, r, http.StatusBadRequest, "Bad Request", "Error parsing form data.")
		return
	}
	var form rsvpForm
	if err := formDecoder.Decode(&form, r.PostForm); err != nil {
		RenderErrorPage(w, r, http.StatusBadRequest, "Bad Request", "Error parsing form data.")
		return
	}
	status, msg, ok := checkRSVP(rsvpRequest{EventID: form.EventID, Status: form.Status})
	if !ok {
		RenderErrorPage(w, r, http.StatusBadRequest, "Bad Request", msg)
		return
	}

	_, err := s.events.RecordRSVPForLevel(r.Context(), caller.Level, caller.UserID, strings.TrimSpace(form.EventID), status)
	if err != nil {
		code, msg := rsvpFailure(r, caller, form.EventID, err)
		RenderErrorPage(w, r, code, http.StatusText(code), msg)
		return
	}

	http.Redirect(w, r, safeReturn(form.Return), http.StatusSeeOther)
}

// safeReturn keeps redirects on the events listing.
func safeReturn(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path != "/events" {
		return "/events"
	}
	return u.RequestURI()
}
