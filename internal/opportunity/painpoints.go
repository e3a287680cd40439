package opportunity

import (
	"sort"
	"strings"
	"time"

	"github.com/gigfeed/gigfeed/internal/places"
)

// PainPoint is one recurring complaint theme derived from reviews.
type PainPoint struct {
	Category string   `json:"category"`
	Severity float64  `json:"severity"`
	Count    int      `json:"count"`
	Examples []string `json:"examples,omitempty"`
}

// maxSeverity caps a pain point's severity score.
const maxSeverity = 10.0

// recencyWindow is how far back a review still counts toward the recency
// term.
const recencyWindow = 180 * 24 * time.Hour

const maxExamplesPerPainPoint = 2

// painSignal maps one complaint category to the review phrases that indicate
// it.
type painSignal struct {
	Category string
	Keywords []string
}

var painPointTable = []painSignal{
	{
		Category: "slow_response",
		Keywords: []string{"no response", "never called back", "waited", "took forever", "ignored", "slow"},
	},
	{
		Category: "booking_friction",
		Keywords: []string{"couldn't book", "could not book", "phone only", "no online booking", "hard to get an appointment", "busy line"},
	},
	{
		Category: "pricing_transparency",
		Keywords: []string{"hidden fees", "overpriced", "charged more", "no prices", "surprise charge"},
	},
	{
		Category: "service_quality",
		Keywords: []string{"rude", "unprofessional", "disappointed", "poor service", "messy", "sloppy"},
	},
	{
		Category: "outdated_presence",
		Keywords: []string{"website is down", "wrong hours", "outdated", "no website", "couldn't find information", "could not find information"},
	},
}

// hedgeWords mark positive reviews that still carry a complaint.
var hedgeWords = []string{"but", "however", "wish", "although", "except", "only downside"}

// reviewHasSignal reports whether a review is worth scanning for complaints:
// low ratings always, high ratings only when hedged.
func reviewHasSignal(r places.Review) bool {
	if r.Rating <= 3 {
		return true
	}
	if r.Rating >= 4 {
		lower := strings.ToLower(r.Text)
		for _, hedge := range hedgeWords {
			if strings.Contains(lower, hedge) {
				return true
			}
		}
	}
	return false
}

// DerivePainPoints scans signal reviews against the pain-point table and
// scores each matched category. Severity combines a bounded frequency term,
// a bounded recency term, and a bounded absolute-count bonus, capped at
// maxSeverity. The result is sorted by severity, highest first.
func DerivePainPoints(reviews []places.Review, now time.Time) []PainPoint {
	var signal []places.Review
	for _, r := range reviews {
		if reviewHasSignal(r) {
			signal = append(signal, r)
		}
	}
	if len(signal) == 0 {
		return nil
	}

	var points []PainPoint
	for _, ps := range painPointTable {
		var (
			count    int
			recent   int
			examples []string
		)
		for _, r := range signal {
			lower := strings.ToLower(r.Text)
			matched := false
			for _, kw := range ps.Keywords {
				if strings.Contains(lower, kw) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			count++
			if now.Sub(r.Date) <= recencyWindow {
				recent++
			}
			if len(examples) < maxExamplesPerPainPoint {
				examples = append(examples, strings.TrimSpace(r.Text))
			}
		}
		if count == 0 {
			continue
		}

		frequency := float64(count) / float64(len(signal))
		severity := boundedTerm(frequency*5, 4) + boundedTerm(float64(recent), 3) + boundedTerm(float64(count), 3)
		if severity > maxSeverity {
			severity = maxSeverity
		}
		points = append(points, PainPoint{
			Category: ps.Category,
			Severity: severity,
			Count:    count,
			Examples: examples,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Severity > points[j].Severity
	})
	return points
}

func boundedTerm(value, bound float64) float64 {
	if value > bound {
		return bound
	}
	if value < 0 {
		return 0
	}
	return value
}
