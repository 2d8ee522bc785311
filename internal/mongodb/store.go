// Package mongodb is the document-store backend for the events service.
// Events live in the "events" collection keyed by their string id and
// responses in "user_events" with a unique (user_id, event_id) index.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

const (
	EventsCollection    = "events"
	ResponsesCollection = "user_events"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

type Store struct {
	client    *mongo.Client
	events    *mongo.Collection
	responses *mongo.Collection
}

// Connect dials uri, pings the deployment and ensures the indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewStore(client.Database(database))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// NewStore uses the two collections of db.
func NewStore(db *mongo.Database) *Store {
	return NewStoreFromCollections(db.Collection(EventsCollection), db.Collection(ResponsesCollection))
}

// NewStoreFromCollections wires explicit collections.
func NewStoreFromCollections(events, responses *mongo.Collection) *Store {
	return &Store{events: events, responses: responses}
}

// EnsureIndexes creates the unique response key and the listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.responses.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_event_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create response indexes: %w", err)
	}
	_, err = s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tier", Value: 1}, {Key: "event_date", Value: 1}},
		Options: options.Index().SetName("tier_event_date"),
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

// Close disconnects the client when the store owns one.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

func (s *Store) ListEvents(ctx context.Context, tiers []tier.Level) ([]models.Event, error) {
	filter := bson.M{}
	if tiers != nil {
		if len(tiers) == 0 {
			return []models.Event{}, nil
		}
		filter["tier"] = bson.M{"$in": tiers}
	}

	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.events.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	var e models.Event
	err := s.events.FindOne(ctx, bson.M{"_id": eventID}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, models.ErrNoRecord
		}
		return models.Event{}, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return e, nil
}

func (s *Store) ListUserResponses(ctx context.Context, userID string) ([]models.Response, error) {
	cursor, err := s.responses.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list responses for user: %w", err)
	}
	responses := []models.Response{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return responses, nil
}

// ListEventResponses returns an event's responses, most recent first.
func (s *Store) ListEventResponses(ctx context.Context, eventID string) ([]models.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rsvp_date", Value: -1}})
	cursor, err := s.responses.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list responses for event: %w", err)
	}
	responses := []models.Response{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return responses, nil
}

// UpsertResponse writes r keyed by (UserID, EventID). With trackAttendance
// the response is swapped in one atomic write that hands back the response
// it replaced, and the seat change is derived from that. A full event (or
// any failed seat move) puts the previous response back.
func (s *Store) UpsertResponse(ctx context.Context, r models.Response, trackAttendance bool) (models.Response, error) {
	if err := s.requireEvent(ctx, r.EventID); err != nil {
		return models.Response{}, err
	}
	if !trackAttendance {
		return s.upsertResponse(ctx, r)
	}

	previous, stored, err := s.swapResponse(ctx, r)
	if err != nil {
		return models.Response{}, err
	}
	var prevStatus models.ResponseStatus
	if previous != nil {
		prevStatus = previous.Status
	}
	if err := s.moveSeats(ctx, r.EventID, models.SeatDelta(prevStatus, r.Status)); err != nil {
		if rerr := s.restoreResponse(ctx, stored, previous); rerr != nil {
			log.Error().Err(rerr).
				Str("user_id", r.UserID).
				Str("event_id", r.EventID).
				Msg("Error restoring response after failed seat change")
		}
		return models.Response{}, err
	}
	return stored, nil
}

// upsertResponse retries once on a duplicate key: two first-time RSVPs
// racing on the unique index leave one winner, and the loser's retry then
// takes the update path.
func (s *Store) upsertResponse(ctx context.Context, r models.Response) (models.Response, error) {
	var stored models.Response
	err := s.findAndUpsert(ctx, r, options.After, &stored)
	if mongo.IsDuplicateKeyError(err) {
		err = s.findAndUpsert(ctx, r, options.After, &stored)
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("upsert response: %w", err)
	}
	return stored, nil
}

// swapResponse writes r and returns the response it replaced (nil when r
// was inserted) together with the row as now stored.
func (s *Store) swapResponse(ctx context.Context, r models.Response) (*models.Response, models.Response, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.RSVPDate = r.RSVPDate.UTC()

	var prev models.Response
	err := s.findAndUpsert(ctx, r, options.Before, &prev)
	if mongo.IsDuplicateKeyError(err) {
		err = s.findAndUpsert(ctx, r, options.Before, &prev)
	}
	switch {
	case err == nil:
		r.ID = prev.ID
		return &prev, r, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, r, nil
	default:
		return nil, models.Response{}, fmt.Errorf("upsert response: %w", err)
	}
}

func (s *Store) findAndUpsert(ctx context.Context, r models.Response, returned options.ReturnDocument, out *models.Response) error {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}

	filter := bson.M{"user_id": r.UserID, "event_id": r.EventID}
	update := bson.M{
		"$set": bson.M{
			"status":    r.Status,
			"rsvp_date": r.RSVPDate.UTC(),
		},
		"$setOnInsert": bson.M{"_id": id},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(returned)
	return s.responses.FindOneAndUpdate(ctx, filter, update, opts).Decode(out)
}

// restoreResponse undoes a swap: an inserted row is removed, a replaced
// one gets its previous status and date back.
func (s *Store) restoreResponse(ctx context.Context, stored models.Response, previous *models.Response) error {
	if previous == nil {
		_, err := s.responses.DeleteOne(ctx, bson.M{"_id": stored.ID})
		if err != nil {
			return fmt.Errorf("remove response %s: %w", stored.ID, err)
		}
		return nil
	}
	_, err := s.responses.UpdateOne(ctx, bson.M{"_id": previous.ID}, bson.M{
		"$set": bson.M{"status": previous.Status, "rsvp_date": previous.RSVPDate},
	})
	if err != nil {
		return fmt.Errorf("restore response %s: %w", previous.ID, err)
	}
	return nil
}

func (s *Store) requireEvent(ctx context.Context, eventID string) error {
	n, err := s.events.CountDocuments(ctx, bson.M{"_id": eventID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check event %s: %w", eventID, err)
	}
	if n == 0 {
		return models.ErrNoRecord
	}
	return nil
}

// moveSeats applies delta to the attendee counter. Taking a seat only
// matches while current_attendees < max_attendees; releasing one never
// drops below zero.
func (s *Store) moveSeats(ctx context.Context, eventID string, delta int) error {
	if delta == 0 {
		return nil
	}

	filter := bson.M{"_id": eventID}
	if delta > 0 {
		filter["$expr"] = bson.M{"$lt": bson.A{"$current_attendees", "$max_attendees"}}
	} else {
		filter["current_attendees"] = bson.M{"$gt": 0}
	}

	res, err := s.events.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"current_attendees": delta}})
	if err != nil {
		return fmt.Errorf("adjust attendees: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the event is missing or the guard failed.
	if err := s.requireEvent(ctx, eventID); err != nil {
		return err
	}
	if delta > 0 {
		return models.ErrEventFull
	}
	return nil
}

// SaveEvent inserts or replaces an event document. The attendee counter is
// only written on insert.
func (s *Store) SaveEvent(ctx context.Context, e models.Event) error {
	update := bson.M{
		"$set": bson.M{
			"title":         e.Title,
			"description":   e.Description,
			"event_date":    e.EventDate.UTC(),
			"image_url":     e.ImageURL,
			"tier":          e.Tier,
			"location":      e.Location,
			"max_attendees": e.MaxAttendees,
			"updated_at":    nowUTC(),
		},
		"$setOnInsert": bson.M{
			"current_attendees": e.CurrentAttendees,
			"created_at":        nowUTC(),
		},
	}
	_, err := s.events.UpdateOne(ctx, bson.M{"_id": e.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	return nil
}
