package events

import (
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"golang.org/x/text/cases"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

// AllTiers is the filter value that disables tier filtering.
const AllTiers = "all"

// Filter narrows an annotated listing. Both predicates are optional and
// AND-combined.
type Filter struct {
	Tier   string `schema:"tier"`
	Search string `schema:"search"`
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ParseFilter reads tier and search from query parameters.
func ParseFilter(values url.Values) (Filter, error) {
	var f Filter
	if err := decoder.Decode(&f, values); err != nil {
		return Filter{}, err
	}
	f.Tier = strings.ToLower(strings.TrimSpace(f.Tier))
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

// Active reports whether any predicate is set.
func (f Filter) Active() bool {
	return f.Search != "" || (f.Tier != "" && f.Tier != AllTiers)
}

// Apply returns the events matching f, preserving input order.
func (f Filter) Apply(in []models.EventWithResponse) []models.EventWithResponse {
	out := in
	if f.Tier != "" && f.Tier != AllTiers {
		out = keep(out, func(e models.EventWithResponse) bool {
			return string(e.Tier) == f.Tier
		})
	}
	if f.Search != "" {
		fold := cases.Fold()
		term := fold.String(f.Search)
		out = keep(out, func(e models.EventWithResponse) bool {
			return strings.Contains(fold.String(e.Title), term) ||
				strings.Contains(fold.String(e.Description), term)
		})
	}
	return out
}

func keep(in []models.EventWithResponse, pred func(models.EventWithResponse) bool) []models.EventWithResponse {
	out := make([]models.EventWithResponse, 0, len(in))
	for _, e := range in {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Partition splits events into those the caller can open and those shown
// locked, keeping order within each group.
func Partition(in []models.EventWithResponse) (accessible, restricted []models.EventWithResponse) {
	for _, e := range in {
		if e.IsAccessible {
			accessible = append(accessible, e)
		} else {
			restricted = append(restricted, e)
		}
	}
	return accessible, restricted
}

// TierOptions lists the tier filter choices offered to a caller.
func TierOptions(level tier.Level) []tier.Level {
	return tier.AccessibleTiers(level)
}
