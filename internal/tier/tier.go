package tier

import "strings"

// Level is a membership level. Events carry the minimum level required to
// view and attend them.
type Level string

const (
	Free     Level = "free"
	Silver   Level = "silver"
	Gold     Level = "gold"
	Platinum Level = "platinum"
)

// All returns every level in ascending rank order.
func All() []Level {
	return []Level{Free, Silver, Gold, Platinum}
}

// Parse converts a raw profile or query value into a Level.
// Empty and unrecognised values fall back to Free.
func Parse(raw string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(raw)))
	if !l.Valid() {
		return Free
	}
	return l
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	switch l {
	case Free, Silver, Gold, Platinum:
		return true
	default:
		return false
	}
}

func (l Level) String() string {
	return string(l)
}

// Rank returns the fixed ordinal of a level, 0 for anything unrecognised.
func Rank(l Level) int {
	switch l {
	case Free:
		return 0
	case Silver:
		return 1
	case Gold:
		return 2
	case Platinum:
		return 3
	default:
		return 0
	}
}

// AccessibleTiers returns every level at or below l in rank order.
// The result always contains Free and l itself; an unrecognised level
// degrades to just Free.
func AccessibleTiers(l Level) []Level {
	switch l {
	case Free:
		return []Level{Free}
	case Silver:
		return []Level{Free, Silver}
	case Gold:
		return []Level{Free, Silver, Gold}
	case Platinum:
		return []Level{Free, Silver, Gold, Platinum}
	default:
		return []Level{Free}
	}
}

// IsAccessible reports whether a member at userLevel may see and attend an
// event gated at eventTier.
func IsAccessible(userLevel, eventTier Level) bool {
	for _, l := range AccessibleTiers(userLevel) {
		if l == eventTier {
			return true
		}
	}
	return false
}

// Next returns the level one rank above l. ok is false at the top.
func Next(l Level) (next Level, ok bool) {
	switch l {
	case Silver:
		return Gold, true
	case Gold:
		return Platinum, true
	case Platinum:
		return "", false
	default:
		return Silver, true
	}
}
