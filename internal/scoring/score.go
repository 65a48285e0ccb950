// Package scoring computes trend suitability scores for scraped products.
//
// Two heuristics live here. Compute is the full engine used by the cleanup
// job: it weighs recurrence, freshness, multi-zone presence, source growth
// and user engagement into a 0-100 score and a retention decision.
// InitialScore and Saturability are the lighter intake heuristics applied
// when a product is first persisted by the scrape path.
package scoring

import "math"

// Retention threshold: products scoring below this are discarded by cleanup.
const KeepThreshold = 30

// Component caps.
const (
	maxRecurrencePoints = 40.0
	maxFreshnessPoints  = 25.0
	maxMultiZonePoints  = 20.0
	maxGrowthPoints     = 10.0
	maxEngagementPoints = 5.0
	multiSegmentBonus   = 5.0
)

// Factors holds the observed signals for one product. All counts and day
// deltas must be non-negative; MarketZoneCount must be at least 1.
type Factors struct {
	RecurrenceCount    int
	DaysSinceFirstSeen int
	DaysSinceLastSeen  int
	MarketZoneCount    int

	SourceGrowthPercent *float64
	FavoritesCount      *int
	MultiSegment        bool
}

// Result is the outcome of scoring one product.
type Result struct {
	Score      int
	ShouldKeep bool
	Reason     string
}

// Compute converts observed factors into a 0-100 score and a keep/discard
// decision. It is a pure function: no I/O, deterministic for a given input.
func Compute(f Factors) Result {
	recurrence := math.Min(maxRecurrencePoints, float64(f.RecurrenceCount)*5)

	var freshness float64
	switch {
	case f.DaysSinceFirstSeen <= 7:
		freshness += 15
	case f.DaysSinceFirstSeen <= 14:
		freshness += 10
	case f.DaysSinceFirstSeen <= 30:
		freshness += 5
	}
	switch {
	case f.DaysSinceLastSeen == 0:
		freshness += 10
	case f.DaysSinceLastSeen <= 3:
		freshness += 7
	case f.DaysSinceLastSeen <= 7:
		freshness += 3
	default:
		freshness -= float64(f.DaysSinceLastSeen-7) * 2
	}
	freshness = clamp(freshness, 0, maxFreshnessPoints)

	multiZone := math.Min(maxMultiZonePoints, float64(f.MarketZoneCount-1)*10)

	var growth float64
	if f.SourceGrowthPercent != nil {
		growth = math.Min(maxGrowthPoints, *f.SourceGrowthPercent/10)
	}

	var engagement float64
	if f.FavoritesCount != nil {
		engagement = math.Min(maxEngagementPoints, float64(*f.FavoritesCount)/2)
	}

	total := recurrence + freshness + multiZone + growth + engagement
	if f.MultiSegment {
		total += multiSegmentBonus
	}
	total = clamp(total, 0, 100)

	score := int(math.Round(total))
	return Result{
		Score:      score,
		ShouldKeep: score >= KeepThreshold,
		Reason:     reasonFor(score, f.DaysSinceLastSeen),
	}
}

func reasonFor(score, daysSinceLastSeen int) string {
	switch {
	case score >= 70:
		return "strong trend"
	case score >= 50:
		return "moderate trend"
	case score >= KeepThreshold:
		return "emerging trend"
	case daysSinceLastSeen > 14:
		return "stale"
	default:
		return "insufficient recurrence"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
