package opportunity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/places"
)

const maxRenderedPains = 2

// render turns a scored lead into a canonical record. The description prefers
// the pitch collaborator and falls back to the local template when the
// collaborator is absent or fails. RendererHint carries the service query so
// downstream consumers can tell generated leads from scraped listings.
func (s *Synthesizer) render(ctx context.Context, lead BusinessLead, query string, now time.Time) feed.Record {
	description := ""
	if s.pitcher != nil {
		pitch, err := s.pitcher.Pitch(ctx, lead)
		if err != nil {
			s.logger.Warn("pitch generation failed, using local template",
				zap.String("business", lead.Business.Name),
				zap.Error(err),
			)
		} else {
			description = pitch
		}
	}
	if description == "" {
		description = localPitch(lead)
	}

	biz := lead.Business
	return feed.Record{
		ID:           feed.RecordID(feed.SourceOpportunity, biz.SourceID),
		Source:       feed.SourceOpportunity,
		SourceURL:    biz.Website,
		Title:        renderTitle(lead),
		Description:  feed.Clip(description, feed.MaxDescriptionLen),
		Skills:       lead.SuggestedServices,
		Client:       clientInfo(biz),
		RendererHint: strings.TrimSpace(query),
		ScrapedAt:    now,
	}
}

func renderTitle(lead BusinessLead) string {
	biz := lead.Business
	subject := biz.Category
	if subject == "" {
		subject = "local business"
	}
	return fmt.Sprintf("%s priority lead: %s (%s, score %d)",
		titleCase(string(lead.PriorityLevel)), biz.Name, subject, lead.OpportunityScore)
}

// localPitch is the template fallback: name, location, the loudest pain
// points, the most confident gaps, and the services that fix them.
func localPitch(lead BusinessLead) string {
	biz := lead.Business
	var b strings.Builder

	fmt.Fprintf(&b, "%s", biz.Name)
	if biz.City != "" {
		fmt.Fprintf(&b, " in %s", biz.City)
	}
	fmt.Fprintf(&b, " (%.1f stars, %d reviews).", biz.Rating, biz.ReviewCount)

	if len(lead.PainPoints) > 0 {
		pains := lead.PainPoints
		if len(pains) > maxRenderedPains {
			pains = pains[:maxRenderedPains]
		}
		names := make([]string, 0, len(pains))
		for _, p := range pains {
			names = append(names, strings.ReplaceAll(p.Category, "_", " "))
		}
		fmt.Fprintf(&b, " Customers report %s.", strings.Join(names, " and "))
	}

	if len(lead.MissingFeatures) > 0 {
		names := make([]string, 0, len(lead.MissingFeatures))
		for _, mf := range lead.MissingFeatures {
			names = append(names, strings.ReplaceAll(mf.Name, "_", " "))
		}
		fmt.Fprintf(&b, " Their web presence lacks %s.", strings.Join(names, ", "))
	}

	if len(lead.SuggestedServices) > 0 {
		fmt.Fprintf(&b, " Suggested offer: %s.", strings.Join(lead.SuggestedServices, "; "))
	}
	return b.String()
}

func clientInfo(biz places.Business) *feed.ClientInfo {
	return &feed.ClientInfo{
		Name:     biz.Name,
		Rating:   biz.Rating,
		Location: strings.Join(nonEmptyStrings(biz.City, biz.Country), ", "),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func nonEmptyStrings(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
