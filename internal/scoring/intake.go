package scoring

import "math"

// InitialScore is the intake heuristic applied when the scrape path persists
// a product for the first time. It only has the source-provided signals to
// work with, so it seeds a neutral baseline and rewards the growth metric
// and an explicit trend label. The cleanup job later overwrites this with
// the full Compute score once recurrence data exists.
func InitialScore(growthPercent *float64, trendLabel *string) int {
	score := 50.0
	if growthPercent != nil {
		score += math.Min(30, *growthPercent/2)
	}
	if trendLabel != nil && *trendLabel != "" {
		score += 10
	}
	return int(math.Round(clamp(score, 0, 100)))
}

// Saturability estimates market saturation on a 0-100 scale. Strong source
// growth lowers it (the market still has room); an active markdown raises it
// (retailers discounting suggests oversupply).
func Saturability(growthPercent, markdownPercent *float64) int {
	sat := 50.0
	if growthPercent != nil {
		sat -= math.Min(30, *growthPercent/2)
	}
	if markdownPercent != nil && *markdownPercent > 0 {
		sat += math.Min(20, *markdownPercent/2)
	}
	return int(math.Round(clamp(sat, 0, 100)))
}
