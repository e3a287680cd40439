// Package wwr scrapes the We Work Remotely listing pages into the canonical
// feed shape. Unlike the JSON sources this adapter parses HTML, so records go
// through the shared description sanitizer.
package wwr

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/fetchhttp"
	"github.com/gigfeed/gigfeed/internal/language"
)

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://weworkremotely.com"

const defaultLimit = 25

// Config controls the adapter.
type Config struct {
	BaseURL string
}

// Adapter implements feed.Adapter for We Work Remotely.
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
func (a *Adapter) Tag() feed.SourceTag { return feed.SourceWWR }

// Search scrapes the search listing page and normalizes each posting row.
func (a *Adapter) Search(ctx context.Context, query string, opts feed.SearchOptions) feed.SourceResult {
	now := a.clock.Now()

	endpoint := fmt.Sprintf("%s/remote-jobs/search?term=%s", a.cfg.BaseURL, url.QueryEscape(query))
	resp, err := a.client.Get(ctx, endpoint, nil)
	if err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("weworkremotely request failed: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("weworkremotely returned status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return feed.Failure(a.Tag(), now, fmt.Sprintf("weworkremotely page unparseable: %v", err))
	}

	lang := opts.EffectiveLanguage()
	var records []feed.Record
	doc.Find("section.jobs li").Each(func(_ int, li *goquery.Selection) {
		rec, ok := a.parseListing(li, now)
		if !ok {
			return
		}
		if !language.IsIn(rec.Title+" "+rec.Description, lang) {
			return
		}
		records = append(records, rec)
	})

	records = feed.FilterByBudget(records, opts.MinBudget, opts.MaxBudget)
	records = feed.ApplyLimit(records, opts.EffectiveLimit(defaultLimit))

	a.logger.Debug("weworkremotely search complete",
		zap.String("query", query),
		zap.Int("records", len(records)),
	)
	return feed.SourceResult{
		Source:    a.Tag(),
		Success:   true,
		Records:   records,
		ScrapedAt: now,
	}
}

// parseListing maps one listing row to a record. Rows without a job link or
// title (ads, view-all links) are skipped.
func (a *Adapter) parseListing(li *goquery.Selection, now time.Time) (feed.Record, bool) {
	link := li.Find("a[href^='/remote-jobs/']").First()
	href, ok := link.Attr("href")
	if !ok || strings.HasPrefix(href, "/remote-jobs/search") {
		return feed.Record{}, false
	}

	title := strings.TrimSpace(li.Find("span.title").First().Text())
	if title == "" {
		return feed.Record{}, false
	}
	company := strings.TrimSpace(li.Find("span.company").First().Text())
	region := strings.TrimSpace(li.Find("span.region").First().Text())

	slug := strings.Trim(strings.TrimPrefix(href, "/remote-jobs/"), "/")
	description := feed.SanitizeDescription(strings.Join(nonEmpty(company, region), " - "))

	rec := feed.Record{
		ID:          feed.RecordID(a.Tag(), slug),
		Source:      a.Tag(),
		SourceURL:   a.cfg.BaseURL + href,
		Title:       title,
		Description: description,
		ScrapedAt:   now,
	}
	if company != "" {
		rec.Client = &feed.ClientInfo{Name: company, Location: region}
	}
	return rec, true
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
