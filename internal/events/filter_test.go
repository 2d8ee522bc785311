package events

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiered-events/app/internal/models"
	"github.com/tiered-events/app/internal/tier"
)

func annotated(id string, level tier.Level, title, description string, accessible bool) models.EventWithResponse {
	return models.EventWithResponse{
		Event: models.Event{
			ID:          id,
			Title:       title,
			Description: description,
			Tier:        level,
		},
		IsAccessible: accessible,
	}
}

func ids(in []models.EventWithResponse) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		out = append(out, e.ID)
	}
	return out
}

func TestFilterTierAndSearch(t *testing.T) {
	in := []models.EventWithResponse{
		annotated("1", tier.Gold, "Leadership Summit", "Annual", true),
		annotated("2", tier.Gold, "Wine tasting", "Before the SUMMIT dinner", true),
		annotated("3", tier.Silver, "Summit warmup", "Networking", true),
		annotated("4", tier.Gold, "Masterclass", "Deep dive", true),
		annotated("5", tier.Platinum, "Summit gala", "Black tie", false),
	}

	got := Filter{Tier: "gold", Search: "summit"}.Apply(in)
	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestFilterAllAndEmptyAreNoOps(t *testing.T) {
	in := []models.EventWithResponse{
		annotated("1", tier.Free, "A", "", true),
		annotated("2", tier.Gold, "B", "", false),
	}
	assert.Equal(t, []string{"1", "2"}, ids(Filter{Tier: AllTiers}.Apply(in)))
	assert.Equal(t, []string{"1", "2"}, ids(Filter{}.Apply(in)))
	assert.False(t, Filter{Tier: AllTiers}.Active())
	assert.True(t, Filter{Search: "x"}.Active())
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	in := []models.EventWithResponse{
		annotated("1", tier.Free, "STRASSE Fest", "", true),
		annotated("2", tier.Free, "Yoga", "morning FLOW session", true),
	}
	assert.Equal(t, []string{"2"}, ids(Filter{Search: "Flow"}.Apply(in)))
	assert.Equal(t, []string{"1"}, ids(Filter{Search: "strasse"}.Apply(in)))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{"tier": {" Gold "}, "search": {" summit "}, "page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, Filter{Tier: "gold", Search: "summit"}, f)
}

func TestPartitionKeepsOrder(t *testing.T) {
	in := []models.EventWithResponse{
		annotated("1", tier.Free, "", "", true),
		annotated("2", tier.Platinum, "", "", false),
		annotated("3", tier.Silver, "", "", true),
	}
	open, locked := Partition(in)
	assert.Equal(t, []string{"1", "3"}, ids(open))
	assert.Equal(t, []string{"2"}, ids(locked))
}

func TestTierOptions(t *testing.T) {
	assert.Equal(t, []tier.Level{tier.Free, tier.Silver}, TierOptions(tier.Silver))
}
