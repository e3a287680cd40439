// Package jooble adapts the Jooble aggregator API into the canonical feed
// shape. Jooble is a paid source; the adapter reports a configuration failure
// when no API key is set instead of attempting a request.
package jooble

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/fetchhttp"
	"github.com/gigfeed/gigfeed/internal/language"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://jooble.org"

const defaultLimit = 20

// Config controls the adapter.
type Config struct {
	BaseURL string
	APIKey  string
}

// Adapter implements feed.Adapter for Jooble.
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
func (a *Adapter) Tag() feed.SourceTag { return feed.SourceJooble }

type apiRequest struct {
	Keywords string `json:"keywords"`
	Location string `json:"location,omitempty"`
}

type apiResponse struct {
	TotalCount int      `json:"totalCount"`
	Jobs       []apiJob `json:"jobs"`
}

type apiJob struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Salary   string `json:"salary"`
	Source   string `json:"source"`
	Type     string `json:"type"`
	Link     string `json:"link"`
	Company  string `json:"company"`
	Updated  string `json:"updated"`
}

// Search posts the query to the Jooble API and normalizes the response.
func (a *Adapter) Search(ctx context.Context, query string, opts feed.SearchOptions) feed.SourceResult {
	now := a.clock.Now()
	if a.cfg.APIKey == "" {
		return feed.Failure(a.Tag(), now,
			"jooble API key is not configured; set sources.jooble.api_key (env GIGFEED_SOURCES_JOOBLE_API_KEY) to enable this source")
	}

	body, err := json.Marshal(apiRequest{Keywords: query, Location: opts.Location})
	if err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("jooble request encoding failed: %v", err))
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	endpoint := fmt.Sprintf("%s/api/%s", a.cfg.BaseURL, a.cfg.APIKey)
	resp, err := a.client.Do(ctx, http.MethodPost, endpoint, body, headers)
	if err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("jooble request failed: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("jooble returned status %d", resp.StatusCode))
	}

	var payload apiResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("jooble payload unparseable: %v", err))
	}

	lang := opts.EffectiveLanguage()
	records := make([]feed.Record, 0, len(payload.Jobs))
	for _, job := range payload.Jobs {
		description := feed.SanitizeDescription(job.Snippet)
		if !language.IsIn(job.Title+" "+description, lang) {
			continue
		}
		rec := feed.Record{
			ID:          feed.RecordID(a.Tag(), strconv.FormatInt(job.ID, 10)),
			Source:      a.Tag(),
			SourceURL:   job.Link,
			Title:       job.Title,
			Description: description,
			Budget:      feed.ParseBudgetText(job.Salary),
			ScrapedAt:   now,
		}
		if job.Company != "" {
			rec.Client = &feed.ClientInfo{Name: job.Company, Location: job.Location}
		}
		if posted, err := time.Parse(time.RFC3339, job.Updated); err == nil {
			rec.PostedAt = &posted
		}
		records = append(records, rec)
	}

	records = feed.FilterByBudget(records, opts.MinBudget, opts.MaxBudget)
	records = feed.ApplyLimit(records, opts.EffectiveLimit(defaultLimit))

	a.logger.Debug("jooble search complete",
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
