// Package events merges event rows with a caller's RSVP and records new
// RSVPs. It owns the tier gating and the derived is_full / is_accessible
// flags; storage is reached through the Store interface.
package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tiered-events/app/internal/apperrors"
	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

var tracer = otel.Tracer("github.com/tiered-events/app/internal/events")

// Store is the persistence the service needs.
type Store interface {
	// ListEvents returns events ordered by event date ascending. A nil
	// tiers slice means no tier restriction.
	ListEvents(ctx context.Context, tiers []tier.Level) ([]models.Event, error)
	// GetEvent returns models.ErrNoRecord when no event has the id.
	GetEvent(ctx context.Context, eventID string) (models.Event, error)
	// ListUserResponses returns every response row for one user.
	ListUserResponses(ctx context.Context, userID string) ([]models.Response, error)
	// ListEventResponses returns every response row for one event.
	ListEventResponses(ctx context.Context, eventID string) ([]models.Response, error)
	// UpsertResponse writes the response keyed by (UserID, EventID) and
	// returns the stored row. With trackAttendance set the event's attendee
	// counter moves in the same transaction and models.ErrEventFull is
	// returned when a new attendee would exceed capacity.
	UpsertResponse(ctx context.Context, r models.Response, trackAttendance bool) (models.Response, error)
}

// Service is the event aggregation service.
type Service struct {
	store           Store
	now             func() time.Time
	trackAttendance bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for RSVP timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAttendanceTracking makes RSVPs adjust the event's attendee counter.
func WithAttendanceTracking(enabled bool) Option {
	return func(s *Service) {
		s.trackAttendance = enabled
	}
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAccessibleEvents returns the events the caller's level can see,
// annotated with the caller's RSVP.
func (s *Service) ListAccessibleEvents(ctx context.Context, level tier.Level, userID string) ([]models.EventWithResponse, error) {
	ctx, span := tracer.Start(ctx, "events.ListAccessibleEvents", trace.WithAttributes(
		attribute.String("user.tier", string(level)),
	))
	defer span.End()

	out, err := s.listAnnotated(ctx, tier.AccessibleTiers(level), level, userID)
	if err != nil {
		recordError(span, err)
		return nil, apperrors.DataAccess("Unable to load events at this time", err)
	}
	return out, nil
}

// ListAllEventsAnnotated returns every event regardless of tier so locked
// events can be rendered next to unlocked ones.
func (s *Service) ListAllEventsAnnotated(ctx context.Context, level tier.Level, userID string) ([]models.EventWithResponse, error) {
	ctx, span := tracer.Start(ctx, "events.ListAllEventsAnnotated", trace.WithAttributes(
		attribute.String("user.tier", string(level)),
	))
	defer span.End()

	out, err := s.listAnnotated(ctx, nil, level, userID)
	if err != nil {
		recordError(span, err)
		return nil, apperrors.DataAccess("Could not load events", err)
	}
	return out, nil
}

// listAnnotated fetches the events and the caller's responses side by side,
// then joins them in memory by event id.
func (s *Service) listAnnotated(ctx context.Context, tiers []tier.Level, level tier.Level, userID string) ([]models.EventWithResponse, error) {
	var (
		rows      []models.Event
		responses []models.Response
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.store.ListEvents(gctx, tiers)
		return err
	})
	if userID != "" {
		g.Go(func() error {
			var err error
			responses, err = s.store.ListUserResponses(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Annotate(rows, responses, userID, level), nil
}

// Annotate builds the caller's view of each event. Only responses whose
// user id equals userID are attached; an empty userID attaches none.
func Annotate(rows []models.Event, responses []models.Response, userID string, level tier.Level) []models.EventWithResponse {
	byEvent := make(map[string]models.Response, len(responses))
	if userID != "" {
		for _, r := range responses {
			if r.UserID == userID {
				byEvent[r.EventID] = r
			}
		}
	}

	out := make([]models.EventWithResponse, 0, len(rows))
	for _, e := range rows {
		annotated := models.EventWithResponse{
			Event:        e,
			IsFull:       e.IsFull(),
			IsAccessible: tier.IsAccessible(level, e.Tier),
		}
		if r, ok := byEvent[e.ID]; ok {
			annotated.UserRSVP = &r
		}
		out = append(out, annotated)
	}
	return out
}

// RecordRSVP creates or replaces the caller's response for an event.
// Invalid input is rejected before the store is touched.
func (s *Service) RecordRSVP(ctx context.Context, userID, eventID string, status models.ResponseStatus) (models.Response, error) {
	ctx, span := tracer.Start(ctx, "events.RecordRSVP", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.String("rsvp.status", string(status)),
	))
	defer span.End()

	if err := validateRSVP(userID, eventID, status); err != nil {
		recordError(span, err)
		return models.Response{}, err
	}

	stored, err := s.store.UpsertResponse(ctx, models.Response{
		UserID:   userID,
		EventID:  strings.TrimSpace(eventID),
		Status:   status,
		RSVPDate: s.now().UTC(),
	}, s.trackAttendance)
	if err != nil {
		recordError(span, err)
		switch {
		case errors.Is(err, models.ErrEventFull):
			return models.Response{}, &apperrors.Error{Code: apperrors.CodeConflict, Message: "Event is full", Cause: err}
		case errors.Is(err, models.ErrNoRecord):
			return models.Response{}, &apperrors.Error{Code: apperrors.CodeNotFound, Message: "Event not found", Cause: err}
		default:
			return models.Response{}, apperrors.DataAccess("Could not update your event response", err)
		}
	}
	return stored, nil
}

// RecordRSVPForLevel is RecordRSVP for a caller whose membership level is
// known. Events above that level are refused.
func (s *Service) RecordRSVPForLevel(ctx context.Context, level tier.Level, userID, eventID string, status models.ResponseStatus) (models.Response, error) {
	if err := validateRSVP(userID, eventID, status); err != nil {
		return models.Response{}, err
	}
	e, err := s.LookupEvent(ctx, eventID)
	if err != nil {
		return models.Response{}, err
	}
	if !tier.IsAccessible(level, e.Tier) {
		return models.Response{}, apperrors.New(apperrors.CodeForbidden,
			"Upgrade to "+tier.DisplayName(e.Tier)+" to respond to this event")
	}
	return s.RecordRSVP(ctx, userID, eventID, status)
}

func validateRSVP(userID, eventID string, status models.ResponseStatus) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.ErrAuthenticationRequired
	}
	if strings.TrimSpace(eventID) == "" {
		return apperrors.Validation("eventId", "Event ID is required")
	}
	if status == "" {
		return apperrors.Validation("status", "Status is required")
	}
	if !status.Valid() {
		return apperrors.Validation("status", "Invalid response status")
	}
	return nil
}

// LookupEvent fetches one event. A missing event and a failing store are
// reported as distinct errors (NotFound and DataAccess).
func (s *Service) LookupEvent(ctx context.Context, eventID string) (models.Event, error) {
	ctx, span := tracer.Start(ctx, "events.LookupEvent", trace.WithAttributes(
		attribute.String("event.id", eventID),
	))
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return models.Event{}, apperrors.NotFound("Event not found")
	}

	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			return models.Event{}, apperrors.NotFound("Event not found")
		}
		recordError(span, err)
		return models.Event{}, apperrors.DataAccess("Event lookup failed", err)
	}
	return e, nil
}

// ListUserResponses returns every RSVP the user has made, in no particular
// order.
func (s *Service) ListUserResponses(ctx context.Context, userID string) ([]models.Response, error) {
	ctx, span := tracer.Start(ctx, "events.ListUserResponses")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrAuthenticationRequired
	}
	out, err := s.store.ListUserResponses(ctx, userID)
	if err != nil {
		recordError(span, err)
		return nil, apperrors.DataAccess("Unable to load your event responses", err)
	}
	if out == nil {
		out = []models.Response{}
	}
	return out, nil
}

// ResponseCounts tallies the responses recorded for an event by status.
func (s *Service) ResponseCounts(ctx context.Context, eventID string) (models.ResponseCounts, error) {
	ctx, span := tracer.Start(ctx, "events.ResponseCounts", trace.WithAttributes(
		attribute.String("event.id", eventID),
	))
	defer span.End()

	rows, err := s.store.ListEventResponses(ctx, strings.TrimSpace(eventID))
	if err != nil {
		recordError(span, err)
		return models.ResponseCounts{}, apperrors.DataAccess("Unable to load event responses", err)
	}
	var counts models.ResponseCounts
	for _, r := range rows {
		counts.Add(r.Status)
	}
	return counts, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
