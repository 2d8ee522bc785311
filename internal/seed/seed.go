// Package seed loads event fixtures into a store. Event rows are managed
// out of band; this is how local and demo databases get them.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

// File is the fixture document.
type File struct {
	Events []models.Event `yaml:"events"`
}

// Saver stores one event, inserting or updating it.
type Saver interface {
	SaveEvent(ctx context.Context, e models.Event) error
}

// Parse decodes and validates a fixture document. Unknown keys are
// rejected so typos do not silently drop fields.
func Parse(r io.Reader) ([]models.Event, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	seen := make(map[string]bool, len(f.Events))
	var errs []error
	for i := range f.Events {
		e := &f.Events[i]
		e.ID = strings.TrimSpace(e.ID)
		e.Tier = tier.Level(strings.ToLower(strings.TrimSpace(string(e.Tier))))
		if err := validate(*e); err != nil {
			errs = append(errs, fmt.Errorf("event %d (%s): %w", i, e.ID, err))
			continue
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Errorf("event %d: duplicate id %s", i, e.ID))
		}
		seen[e.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Events, nil
}

func validate(e models.Event) error {
	switch {
	case e.ID == "":
		return errors.New("id is required")
	case strings.TrimSpace(e.Title) == "":
		return errors.New("title is required")
	case e.EventDate.IsZero():
		return errors.New("event_date is required")
	case !e.Tier.Valid():
		return fmt.Errorf("unknown tier %q", e.Tier)
	case e.MaxAttendees <= 0:
		return errors.New("max_attendees must be positive")
	case e.CurrentAttendees < 0 || e.CurrentAttendees > e.MaxAttendees:
		return errors.New("current_attendees must be between 0 and max_attendees")
	}
	return nil
}

// Apply saves every event, at most limit at a time.
func Apply(ctx context.Context, store Saver, evs []models.Event, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, e := range evs {
		e := e
		g.Go(func() error {
			if err := store.SaveEvent(ctx, e); err != nil {
				return err
			}
			log.Debug().Str("event_id", e.ID).Str("tier", string(e.Tier)).Msg("Seeded event")
			return nil
		})
	}
	return g.Wait()
}
