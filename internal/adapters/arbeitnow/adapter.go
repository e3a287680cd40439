// Package arbeitnow adapts the Arbeitnow job-board API into the canonical
// feed shape. The upstream endpoint has no search parameter, so the query is
// matched client-side against title and description.
package arbeitnow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/fetchhttp"
	"github.com/gigfeed/gigfeed/internal/language"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://www.arbeitnow.com"

const defaultLimit = 20

// Config controls the adapter.
type Config struct {
	BaseURL string
}

// Adapter implements feed.Adapter for Arbeitnow.
type Adapter struct {
	cfg    Config
	client *fetchhttp.Client
	clock  feed.Clock
	logger *zap.Logger
}

// New builds an Adapter.
func New(cfg Config, client *fetchhttp.Client, clock feed.Clock, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, client: client, clock: clock, logger: logger}
}

// Tag implements feed.Adapter.
func (a *Adapter) Tag() feed.SourceTag { return feed.SourceArbeitnow }

type apiResponse struct {
	Data []apiJob `json:"data"`
}

type apiJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

// Search fetches the board feed and filters it down to the query terms.
func (a *Adapter) Search(ctx context.Context, query string, opts feed.SearchOptions) feed.SourceResult {
	now := a.clock.Now()

	resp, err := a.client.Get(ctx, a.cfg.BaseURL+"/api/job-board-api", nil)
	if err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("arbeitnow request failed: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("arbeitnow returned status %d", resp.StatusCode))
	}

	var payload apiResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("arbeitnow payload unparseable: %v", err))
	}

	terms := strings.Fields(strings.ToLower(query))
	lang := opts.EffectiveLanguage()
	records := make([]feed.Record, 0, len(payload.Data))
	for _, job := range payload.Data {
		description := feed.SanitizeDescription(job.Description)
		if !matchesQuery(job.Title, description, terms) {
			continue
		}
		if !language.IsIn(job.Title+" "+description, lang) {
			continue
		}
		rec := feed.Record{
			ID:          feed.RecordID(a.Tag(), job.Slug),
			Source:      a.Tag(),
			SourceURL:   job.URL,
			Title:       job.Title,
			Description: description,
			Skills:      append(append([]string{}, job.Tags...), job.JobTypes...),
			ScrapedAt:   now,
		}
		if job.CompanyName != "" {
			rec.Client = &feed.ClientInfo{Name: job.CompanyName, Location: job.Location}
		}
		if job.CreatedAt > 0 {
			posted := time.Unix(job.CreatedAt, 0).UTC()
			rec.PostedAt = &posted
		}
		records = append(records, rec)
	}

	records = feed.FilterByBudget(records, opts.MinBudget, opts.MaxBudget)
	records = feed.ApplyLimit(records, opts.EffectiveLimit(defaultLimit))

	a.logger.Debug("arbeitnow search complete",
		zap.String("query", query),
		zap.Int("upstream", len(payload.Data)),
		zap.Int("records", len(records)),
	)
	return feed.SourceResult{
		Source:    a.Tag(),
		Success:   true,
		Records:   records,
		ScrapedAt: now,
	}
}

// matchesQuery requires every query term to appear in the title or
// description. An empty query matches everything.
func matchesQuery(title, description string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(title + " " + description)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
