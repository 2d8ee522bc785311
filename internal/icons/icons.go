// Package icons picks deterministic placeholder images from the DiceBear
// avatar service. The same seed always yields the same URL, so events and
// users get a stable picture without one being stored.
package icons

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf16"

	"github.com/tiered-events/app/internal/tier"
)

// DefaultBaseURL is the public DiceBear endpoint.
const DefaultBaseURL = "https://api.dicebear.com/8.x"

const (
	DefaultEventSize  = 200
	DefaultAvatarSize = 40
)

var avatarStyles = []string{
	"adventurer", "avataaars", "big-ears", "bottts", "croodles",
	"fun-emoji", "icons", "identicon", "initials", "lorelei",
	"micah", "miniavs", "notionists", "open-peeps", "personas",
	"pixel-art", "rings", "shapes", "thumbs",
}

var eventStyles = []string{
	"adventurer", "avataaars", "big-ears", "croodles", "fun-emoji",
	"lorelei", "micah", "notionists", "open-peeps", "personas",
}

// themeFor returns the style set used for events of a given level.
func themeFor(l tier.Level) []string {
	switch l {
	case tier.Free:
		return []string{"fun-emoji", "croodles", "shapes"}
	case tier.Silver:
		return []string{"adventurer", "avataaars", "open-peeps"}
	case tier.Gold:
		return []string{"lorelei", "notionists", "personas"}
	case tier.Platinum:
		return []string{"micah", "big-ears", "pixel-art"}
	default:
		return eventStyles
	}
}

// StringHash folds text into a non-negative integer with a 31x rolling
// accumulator over UTF-16 code units, wrapping at 32 bits.
func StringHash(text string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(text)) {
		h = h<<5 - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// SelectStyle picks a style from themes keyed by seed. An empty theme set
// yields "".
func SelectStyle(themes []string, seed string) string {
	if len(themes) == 0 {
		return ""
	}
	return themes[StringHash(seed)%int64(len(themes))]
}

// Selector builds icon URLs against a configurable service base.
type Selector struct {
	BaseURL string
}

// NewSelector returns a Selector for baseURL, or the public endpoint when
// baseURL is empty.
func NewSelector(baseURL string) Selector {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Selector{BaseURL: baseURL}
}

// BuildIconURL formats the image request for a style and seed.
func (s Selector) BuildIconURL(style, seed string, size int) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%s/svg?seed=%s&size=%d&backgroundColor=random", base, style, encodeComponent(seed), size)
}

// EventIcon returns a placeholder for an event.
func (s Selector) EventIcon(eventID string, size int) string {
	return s.BuildIconURL(SelectStyle(eventStyles, eventID), eventID, size)
}

// UserAvatar returns an avatar for a user.
func (s Selector) UserAvatar(userID string, size int) string {
	return s.BuildIconURL(SelectStyle(avatarStyles, userID), userID, size)
}

// MembershipEventIcon returns a placeholder themed by the event's level.
func (s Selector) MembershipEventIcon(eventID string, level tier.Level, size int) string {
	seed := eventID + "-" + string(level)
	return s.BuildIconURL(SelectStyle(themeFor(level), seed), seed, size)
}

// BuildIconURL formats a request against the public endpoint.
func BuildIconURL(style, seed string, size int) string {
	return Selector{}.BuildIconURL(style, seed, size)
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes like a browser's encodeURIComponent.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
