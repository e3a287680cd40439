// Package feed defines the canonical record model shared across source adapters.
package feed

import (
	"context"
	"time"
)

// SourceTag identifies which adapter produced a record.
type SourceTag string

// Known source tags. The aggregator accepts any registered tag; these are the
// ones the stock binary wires up.
const (
	SourceRemotive    SourceTag = "remotive"
	SourceArbeitnow   SourceTag = "arbeitnow"
	SourceJooble      SourceTag = "jooble"
	SourceWWR         SourceTag = "weworkremotely"
	SourceOpportunity SourceTag = "opportunity"
)

// BudgetType classifies how a listing compensates.
type BudgetType string

// Budget type values.
const (
	BudgetFixed   BudgetType = "fixed"
	BudgetHourly  BudgetType = "hourly"
	BudgetUnknown BudgetType = "unknown"
)

// Budget captures the compensation signal of a listing, when the upstream
// source exposes one.
type Budget struct {
	Min      float64    `json:"min,omitempty"`
	Max      float64    `json:"max,omitempty"`
	Type     BudgetType `json:"type"`
	Currency string     `json:"currency"`
}

// ClientInfo describes the party behind a listing.
type ClientInfo struct {
	Name       string  `json:"name,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	JobsPosted int     `json:"jobs_posted,omitempty"`
	Location   string  `json:"location,omitempty"`
}

// Record is the canonical unit every adapter produces. Exactly one source is
// responsible for each record, and ID is deterministic per (source, external
// id) pair.
type Record struct {
	ID           string      `json:"id"`
	Source       SourceTag   `json:"source"`
	SourceURL    string      `json:"source_url"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Budget       *Budget     `json:"budget,omitempty"`
	Skills       []string    `json:"skills,omitempty"`
	PostedAt     *time.Time  `json:"posted_at,omitempty"`
	Deadline     *time.Time  `json:"deadline,omitempty"`
	Client       *ClientInfo `json:"client_info,omitempty"`
	RendererHint string      `json:"renderer_hint,omitempty"`
	ScrapedAt    time.Time   `json:"scraped_at"`
}

// SourceResult is the unit an adapter returns to the aggregator. Adapters
// never fail with an error; failures are carried in Error with Success false.
type SourceResult struct {
	Source    SourceTag `json:"source"`
	Success   bool      `json:"success"`
	Records   []Record  `json:"records"`
	Error     string    `json:"error,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Failure builds a failed SourceResult with an empty record set.
func Failure(source SourceTag, at time.Time, msg string) SourceResult {
	return SourceResult{
		Source:    source,
		Success:   false,
		Records:   []Record{},
		Error:     msg,
		ScrapedAt: at,
	}
}

// DefaultLanguage is assumed when SearchOptions.Language is unset.
const DefaultLanguage = "en"

// SearchOptions carries the cross-source filters a caller may request.
type SearchOptions struct {
	Limit     int      `json:"limit,omitempty"`
	MinBudget float64  `json:"min_budget,omitempty"`
	MaxBudget float64  `json:"max_budget,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Language  string   `json:"language,omitempty"`
	Location  string   `json:"location,omitempty"`
}

// EffectiveLimit returns the requested limit, or def when unset.
func (o SearchOptions) EffectiveLimit(def int) int {
	if o.Limit > 0 {
		return o.Limit
	}
	return def
}

// EffectiveLanguage returns the requested language, defaulting to English.
func (o SearchOptions) EffectiveLanguage() string {
	if o.Language == "" {
		return DefaultLanguage
	}
	return o.Language
}

// Adapter translates one upstream source into canonical records.
type Adapter interface {
	Tag() SourceTag
	Search(ctx context.Context, query string, opts SearchOptions) SourceResult
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}
