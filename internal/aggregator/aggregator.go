// Package aggregator fans a search out to every requested source adapter and
// collects the per-source results. Aggregation is all-settled: one slow or
// failing source never hides the others.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/metrics"
)

// Archiver persists raw per-source results for later audit. It matches the
// blob store port. Archival is best effort; failures are logged, never
// surfaced to the caller.
type Archiver interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Aggregator owns the registered adapters and runs them concurrently.
type Aggregator struct {
	adapters map[feed.SourceTag]feed.Adapter
	clock    feed.Clock
	archiver Archiver
	logger   *zap.Logger
}

// New builds an Aggregator over an explicit adapter registry. archiver may be
// nil.
func New(adapters map[feed.SourceTag]feed.Adapter, clock feed.Clock, archiver Archiver, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		adapters: adapters,
		clock:    clock,
		archiver: archiver,
		logger:   logger,
	}
}

// Sources lists the registered source tags, sorted.
func (a *Aggregator) Sources() []feed.SourceTag {
	tags := make([]feed.SourceTag, 0, len(a.adapters))
	for tag := range a.adapters {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SearchAll runs the query against every requested source concurrently and
// returns one result per source, in request order. An empty sources slice
// means all registered sources. Unknown tags and adapter panics become failed
// results for that source only.
func (a *Aggregator) SearchAll(ctx context.Context, query string, sources []feed.SourceTag, opts feed.SearchOptions) []feed.SourceResult {
	if len(sources) == 0 {
		sources = a.Sources()
	}

	metrics.IncActiveSearches()
	defer metrics.DecActiveSearches()

	results := make([]feed.SourceResult, len(sources))
	var wg sync.WaitGroup
	for i, tag := range sources {
		wg.Add(1)
		go func(idx int, tag feed.SourceTag) {
			defer wg.Done()
			results[idx] = a.searchOne(ctx, tag, query, opts)
		}(i, tag)
	}
	wg.Wait()

	a.archive(ctx, query, results)
	return results
}

// searchOne runs a single adapter with panic containment and metrics.
func (a *Aggregator) searchOne(ctx context.Context, tag feed.SourceTag, query string, opts feed.SearchOptions) (result feed.SourceResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("adapter panicked",
				zap.String("source", string(tag)),
				zap.Any("panic", r),
			)
			result = feed.Failure(tag, a.clock.Now(), fmt.Sprintf("adapter panicked: %v", r))
		}
		metrics.ObserveSourceSearch(string(tag), result.Success, len(result.Records), time.Since(start))
	}()

	adapter, ok := a.adapters[tag]
	if !ok {
		return feed.Failure(tag, a.clock.Now(), a.unknownSourceMsg(tag))
	}

	result = adapter.Search(ctx, query, opts)
	a.logger.Info("source search finished",
		zap.String("source", string(tag)),
		zap.Bool("success", result.Success),
		zap.Int("records", len(result.Records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

func (a *Aggregator) unknownSourceMsg(tag feed.SourceTag) string {
	available := make([]string, 0, len(a.adapters))
	for _, t := range a.Sources() {
		available = append(available, string(t))
	}
	return fmt.Sprintf("adapter not implemented for %s, available: %s", tag, strings.Join(available, ", "))
}

// archive writes the raw result set to the archiver, one object per search.
func (a *Aggregator) archive(ctx context.Context, query string, results []feed.SourceResult) {
	if a.archiver == nil {
		return
	}
	payload, err := json.Marshal(results)
	if err != nil {
		a.logger.Warn("archive marshal failed", zap.Error(err))
		return
	}
	now := a.clock.Now().UTC()
	path := fmt.Sprintf("searches/%s/%s-%d.json",
		now.Format("2006/01/02"), sanitizePathSegment(query), now.UnixNano())
	uri, err := a.archiver.PutObject(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		a.logger.Warn("archive write failed", zap.String("path", path), zap.Error(err))
		return
	}
	a.logger.Debug("search archived", zap.String("uri", uri))
}

// sanitizePathSegment keeps archive object names filesystem and URL safe.
func sanitizePathSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "empty"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "empty"
	}
	return out
}
