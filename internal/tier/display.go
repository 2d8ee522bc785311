package tier

// DisplayName is the human label for a level.
func DisplayName(l Level) string {
	switch l {
	case Free:
		return "Free"
	case Silver:
		return "Silver"
	case Gold:
		return "Gold"
	case Platinum:
		return "Platinum"
	default:
		return "Free"
	}
}

// BadgeStyle returns the CSS classes used for a level badge.
func BadgeStyle(l Level) string {
	switch l {
	case Silver:
		return "bg-slate-100 text-slate-800 border-slate-200"
	case Gold:
		return "bg-yellow-100 text-yellow-800 border-yellow-200"
	case Platinum:
		return "bg-purple-100 text-purple-800 border-purple-200"
	default:
		return "bg-gray-100 text-gray-800 border-gray-200"
	}
}

// Gradient returns the CSS gradient classes for a level.
func Gradient(l Level) string {
	switch l {
	case Silver:
		return "from-slate-400 to-slate-600"
	case Gold:
		return "from-yellow-400 to-yellow-600"
	case Platinum:
		return "from-purple-400 to-purple-600"
	default:
		return "from-gray-400 to-gray-600"
	}
}

// Benefits summarises what a level unlocks.
func Benefits(l Level) string {
	switch l {
	case Silver:
		return "Advanced training sessions and networking events"
	case Gold:
		return "VIP masterclasses and exclusive conferences"
	case Platinum:
		return "Ultra-exclusive galas and executive roundtables"
	default:
		return "Access to community events and basic workshops"
	}
}
