// Package remotive adapts the Remotive public remote-jobs API into the
// canonical feed shape.
package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/fetchhttp"
	"github.com/gigfeed/gigfeed/internal/language"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://remotive.com"

const defaultLimit = 20

// Config controls the adapter.
type Config struct {
	BaseURL string
}

// Adapter implements feed.Adapter for Remotive.
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
func (a *Adapter) Tag() feed.SourceTag { return feed.SourceRemotive }

type apiResponse struct {
	JobCount int      `json:"job-count"`
	Jobs     []apiJob `json:"jobs"`
}

type apiJob struct {
	ID          int64    `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	CompanyName string   `json:"company_name"`
	Tags        []string `json:"tags"`
	JobType     string   `json:"job_type"`
	Publication string   `json:"publication_date"`
	Location    string   `json:"candidate_required_location"`
	Salary      string   `json:"salary"`
	Description string   `json:"description"`
}

// Search queries the remote-jobs endpoint and normalizes the response.
// Failures come back as an unsuccessful SourceResult, never an error.
func (a *Adapter) Search(ctx context.Context, query string, opts feed.SearchOptions) feed.SourceResult {
	now := a.clock.Now()
	limit := opts.EffectiveLimit(defaultLimit)

	endpoint := fmt.Sprintf("%s/api/remote-jobs?search=%s&limit=%d",
		a.cfg.BaseURL, url.QueryEscape(query), limit)

	resp, err := a.client.Get(ctx, endpoint, nil)
	if err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("remotive request failed: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("remotive returned status %d", resp.StatusCode))
	}

	var payload apiResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("remotive payload unparseable: %v", err))
	}

	lang := opts.EffectiveLanguage()
	records := make([]feed.Record, 0, len(payload.Jobs))
	for _, job := range payload.Jobs {
		description := feed.SanitizeDescription(job.Description)
		if !language.IsIn(job.Title+" "+description, lang) {
			continue
		}
		rec := feed.Record{
			ID:          feed.RecordID(a.Tag(), strconv.FormatInt(job.ID, 10)),
			Source:      a.Tag(),
			SourceURL:   job.URL,
			Title:       job.Title,
			Description: description,
			Budget:      feed.ParseBudgetText(job.Salary),
			Skills:      job.Tags,
			ScrapedAt:   now,
		}
		if job.CompanyName != "" {
			rec.Client = &feed.ClientInfo{Name: job.CompanyName, Location: job.Location}
		}
		if posted, err := time.Parse("2006-01-02T15:04:05", job.Publication); err == nil {
			rec.PostedAt = &posted
		}
		records = append(records, rec)
	}

	records = feed.FilterByBudget(records, opts.MinBudget, opts.MaxBudget)
	records = feed.ApplyLimit(records, limit)

	a.logger.Debug("remotive search complete",
		zap.String("query", query),
		zap.Int("upstream", len(payload.Jobs)),
		zap.Int("records", len(records)),
	)
	return feed.SourceResult{
		Source:    a.Tag(),
		Success:   true,
		Records:   records,
		ScrapedAt: now,
	}
}
