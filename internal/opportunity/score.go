package opportunity

import (
	"math"

	"github.com/gigfeed/gigfeed/internal/places"
)

// PriorityLevel tiers an opportunity score.
type PriorityLevel string

// Priority tiers.
const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// Score term bounds. Pain points can contribute at most 40 points, missing
// features 30, and the business profile 30.
const (
	painTermBound    = 40.0
	missingTermBound = 30.0
	profileTermBound = 30.0
)

// OpportunityScore ranks a business as an outreach target on a 0-100 scale.
// More severe pain points, more confidently missing features, a larger
// review base, and a lower rating all push the score up. The result is
// always clamped to [0, 100].
func OpportunityScore(pains []PainPoint, missing []MissingFeature, biz places.Business) int {
	var painSum float64
	for _, p := range pains {
		painSum += p.Severity
	}
	painTerm := boundedTerm(painSum*2.5, painTermBound)

	var missingSum float64
	for _, mf := range missing {
		missingSum += mf.Confidence
	}
	missingTerm := boundedTerm(missingSum*10, missingTermBound)

	reviewTerm := boundedTerm(float64(biz.ReviewCount)/10, profileTermBound/2)
	ratingTerm := boundedTerm((5-biz.Rating)*3, profileTermBound/2)
	profileTerm := reviewTerm + ratingTerm

	score := int(math.Round(painTerm + missingTerm + profileTerm))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// PriorityFor maps a score to its tier.
func PriorityFor(score int) PriorityLevel {
	switch {
	case score >= 70:
		return PriorityHigh
	case score >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
