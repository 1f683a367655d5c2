package mmr

type display struct {
	short, color, icon string
}

var displays = map[string]display{
	HighPositive:      {"High", "#16a34a", "✅"},
	Positive:          {"Positive", "#22c55e", "🟢"},
	EmergingPositive:  {"Emerging", "#84cc16", "🟡"},
	PartialIndicators: {"Partial", "#f59e0b", "🟠"},
	Failing:           {"Failing", "#ef4444", "🔴"},
	SystemicFail:      {"Systemic", "#dc2626", "❌"},
}

var unknownDisplay = display{"Unknown", "#6b7280", "❓"}

func lookupDisplay(outcome string) display {
	if d, ok := displays[outcome]; ok {
		return d
	}
	if outcome == NoAssessment {
		return display{NoAssessment, unknownDisplay.color, unknownDisplay.icon}
	}
	return unknownDisplay
}

// ShortLabel returns the compact label for an outcome.
func ShortLabel(outcome string) string { return lookupDisplay(outcome).short }

// Color returns the hex colour used when rendering an outcome.
func Color(outcome string) string { return lookupDisplay(outcome).color }

// Icon returns the emoji badge for an outcome.
func Icon(outcome string) string { return lookupDisplay(outcome).icon }

var bandColors = map[Band]string{
	BandPositive: "green",
	BandPartial:  "yellow",
	BandFail:     "red",
}

// BandColor returns the traffic-light colour name for a pillar band.
func BandColor(b Band) string {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return "gray"
}
