package opportunity

import (
	"github.com/gigfeed/gigfeed/internal/places"
	"github.com/gigfeed/gigfeed/internal/webscan"
)

// MissingFeature is one website capability inferred absent, with a confidence
// derived from how much of the site's signal surface was detected at all.
type MissingFeature struct {
	Name             string  `json:"name"`
	Confidence       float64 `json:"confidence"`
	SuggestedService string  `json:"suggested_service,omitempty"`
}

// serviceForFeature maps an absent capability to the outreach service that
// fills the gap.
var serviceForFeature = map[string]string{
	webscan.FeatureOnlinePresence: "website design and hosting",
	"online_booking":              "online booking integration",
	"contact_form":                "contact form and lead capture setup",
	"analytics":                   "traffic analytics setup",
	"mobile_viewport":             "mobile-friendly redesign",
	"social_links":                "social media presence setup",
	"live_chat":                   "live chat integration",
	"seo_meta":                    "search engine optimization",
}

// DeriveMissingFeatures converts a website scan into missing-feature
// findings. A business with no website at all is a single fully-confident
// online-presence gap. Otherwise, confidence in each absence is one minus
// the site's overall detection ratio, clamped to [0,1]: the fewer
// capabilities a site shows anywhere, the more we trust that an undetected
// one is genuinely missing rather than just unseen.
func DeriveMissingFeatures(biz places.Business, scan webscan.Result) []MissingFeature {
	if biz.Website == "" {
		return []MissingFeature{{
			Name:             webscan.FeatureOnlinePresence,
			Confidence:       1.0,
			SuggestedService: serviceForFeature[webscan.FeatureOnlinePresence],
		}}
	}

	total := len(scan.DetectedFeatures) + len(scan.MissingFeatures)
	if total == 0 {
		return nil
	}
	confidence := clamp01(1 - float64(len(scan.DetectedFeatures))/float64(total))

	features := make([]MissingFeature, 0, len(scan.MissingFeatures))
	for _, name := range scan.MissingFeatures {
		features = append(features, MissingFeature{
			Name:             name,
			Confidence:       confidence,
			SuggestedService: serviceForFeature[name],
		})
	}
	return features
}

// SuggestServices collects the distinct services implied by the missing
// features, preserving order.
func SuggestServices(missing []MissingFeature) []string {
	var services []string
	seen := map[string]bool{}
	for _, mf := range missing {
		if mf.SuggestedService == "" || seen[mf.SuggestedService] {
			continue
		}
		seen[mf.SuggestedService] = true
		services = append(services, mf.SuggestedService)
	}
	return services
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
