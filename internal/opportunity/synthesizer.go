package opportunity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/places"
	"github.com/gigfeed/gigfeed/internal/webscan"
)

// Per-search resource bounds. Three categories of three businesses each caps
// collaborator cost at nine detail lookups per call.
const (
	maxBusinessesPerCategory = 3
	minReviewCount           = 5
	defaultPace              = 150 * time.Millisecond
	defaultLimit             = 9
)

// PlacesClient is the places-search collaborator surface the synthesizer
// consumes.
type PlacesClient interface {
	SearchBusinesses(ctx context.Context, req places.SearchRequest) ([]places.Business, error)
	GetBusinessDetails(ctx context.Context, sourceID string) (places.Business, []places.Review, error)
}

// SiteScanner is the website-scan collaborator surface.
type SiteScanner interface {
	Analyze(ctx context.Context, url string) webscan.Result
}

// PitchWriter is the optional text-summary collaborator. Failures fall back
// to the local template.
type PitchWriter interface {
	Pitch(ctx context.Context, lead BusinessLead) (string, error)
}

// BusinessLead is the internal analysis unit; it never leaves the package
// except rendered down to a feed.Record.
type BusinessLead struct {
	Business          places.Business
	Reviews           []places.Review
	PainPoints        []PainPoint
	MissingFeatures   []MissingFeature
	SuggestedServices []string
	OpportunityScore  int
	PriorityLevel     PriorityLevel
}

// Config controls the synthesizer.
type Config struct {
	// Location is the default search area when the caller supplies none.
	Location string
	// Pace is the advisory delay between business detail calls.
	Pace time.Duration
}

// Synthesizer implements feed.Adapter by generating outreach leads from
// places data.
type Synthesizer struct {
	cfg     Config
	places  PlacesClient
	scanner SiteScanner
	pitcher PitchWriter
	clock   feed.Clock
	logger  *zap.Logger
}

// New builds a Synthesizer. pitcher may be nil.
func New(
	cfg Config,
	placesClient PlacesClient,
	scanner SiteScanner,
	pitcher PitchWriter,
	clock feed.Clock,
	logger *zap.Logger,
) *Synthesizer {
	if cfg.Pace <= 0 {
		cfg.Pace = defaultPace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		cfg:     cfg,
		places:  placesClient,
		scanner: scanner,
		pitcher: pitcher,
		clock:   clock,
		logger:  logger,
	}
}

// Tag implements feed.Adapter.
func (s *Synthesizer) Tag() feed.SourceTag { return feed.SourceOpportunity }

// Search runs the full lead pipeline: resolve categories, fetch businesses
// per category, analyze each, and render the qualifying ones. A single
// failing category or business is skipped, never fatal for the batch.
func (s *Synthesizer) Search(ctx context.Context, query string, opts feed.SearchOptions) feed.SourceResult {
	now := s.clock.Now()

	location := opts.Location
	if location == "" {
		location = s.cfg.Location
	}
	if location == "" {
		return feed.Failure(s.Tag(), now,
			"opportunity search needs a location; set options.location or sources.opportunity.location")
	}

	categories := ResolveCategories(query)

	var (
		records       []feed.Record
		seen          = map[string]bool{}
		searchesOK    int
		lastSearchErr error
	)
	for _, category := range categories {
		businesses, err := s.places.SearchBusinesses(ctx, places.SearchRequest{
			Query:      category,
			Location:   location,
			MinReviews: minReviewCount,
		})
		if err != nil {
			lastSearchErr = err
			s.logger.Warn("business search failed, skipping category",
				zap.String("category", category),
				zap.Error(err),
			)
			continue
		}
		searchesOK++

		if len(businesses) > maxBusinessesPerCategory {
			businesses = businesses[:maxBusinessesPerCategory]
		}
		for _, biz := range businesses {
			if seen[biz.SourceID] {
				continue
			}
			seen[biz.SourceID] = true

			if err := s.pace(ctx); err != nil {
				return s.partialResult(records, now, err)
			}
			rec, ok := s.analyzeBusiness(ctx, biz, query, now)
			if ok {
				records = append(records, rec)
			}
		}
	}

	if searchesOK == 0 && lastSearchErr != nil {
		return feed.Failure(s.Tag(), now, fmt.Sprintf("all business searches failed: %v", lastSearchErr))
	}

	records = feed.ApplyLimit(records, opts.EffectiveLimit(defaultLimit))
	return feed.SourceResult{
		Source:    s.Tag(),
		Success:   true,
		Records:   records,
		ScrapedAt: now,
	}
}

// analyzeBusiness runs one business through details, pain-point, and
// website analysis. Errors skip the business; a lead with no actionable
// content is dropped.
func (s *Synthesizer) analyzeBusiness(ctx context.Context, biz places.Business, query string, now time.Time) (feed.Record, bool) {
	full, reviews, err := s.places.GetBusinessDetails(ctx, biz.SourceID)
	if err != nil {
		s.logger.Warn("business details failed, skipping",
			zap.String("business", biz.Name),
			zap.Error(err),
		)
		return feed.Record{}, false
	}
	if full.SourceID == "" {
		full = biz
	}

	painPoints := DerivePainPoints(reviews, now)

	var scan webscan.Result
	if full.Website != "" {
		scan = s.scanner.Analyze(ctx, full.Website)
	}
	missing := DeriveMissingFeatures(full, scan)
	services := SuggestServices(missing)

	if len(painPoints) == 0 && len(missing) == 0 && len(services) == 0 {
		s.logger.Debug("no actionable content, dropping lead", zap.String("business", full.Name))
		return feed.Record{}, false
	}

	score := OpportunityScore(painPoints, missing, full)
	lead := BusinessLead{
		Business:          full,
		Reviews:           reviews,
		PainPoints:        painPoints,
		MissingFeatures:   missing,
		SuggestedServices: services,
		OpportunityScore:  score,
		PriorityLevel:     PriorityFor(score),
	}
	return s.render(ctx, lead, query, now), true
}

// pace waits the advisory delay between detail calls, bailing out on
// cancellation.
func (s *Synthesizer) pace(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.Pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Synthesizer) partialResult(records []feed.Record, now time.Time, err error) feed.SourceResult {
	result := feed.Failure(s.Tag(), now, fmt.Sprintf("search interrupted: %v", err))
	result.Records = records
	return result
}
