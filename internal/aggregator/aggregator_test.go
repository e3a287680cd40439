package aggregator

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

type stubAdapter struct {
	tag    feed.SourceTag
	delay  time.Duration
	result feed.SourceResult
	panics bool
}

func (s *stubAdapter) Tag() feed.SourceTag { return s.tag }

func (s *stubAdapter) Search(ctx context.Context, _ string, _ feed.SearchOptions) feed.SourceResult {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return s.result
}

type memArchiver struct {
	mu    sync.Mutex
	paths []string
	data  [][]byte
}

func (m *memArchiver) PutObject(_ context.Context, path, _ string, r io.Reader) (string, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	m.data = append(m.data, payload)
	return "memory://" + path, nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() feed.Clock {
	return feed.ClockFunc(func() time.Time { return testNow })
}

func okResult(tag feed.SourceTag, ids ...string) feed.SourceResult {
	records := make([]feed.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, feed.Record{ID: id, Source: tag, ScrapedAt: testNow})
	}
	return feed.SourceResult{Source: tag, Success: true, Records: records, ScrapedAt: testNow}
}

func newAggregator(archiver Archiver, adapters ...feed.Adapter) *Aggregator {
	registry := make(map[feed.SourceTag]feed.Adapter, len(adapters))
	for _, a := range adapters {
		registry[a.Tag()] = a
	}
	return New(registry, fixedClock(), archiver, zap.NewNop())
}

func TestSearchAllResultOrder(t *testing.T) {
	t.Parallel()

	agg := newAggregator(nil,
		&stubAdapter{tag: feed.SourceRemotive, result: okResult(feed.SourceRemotive, "r1")},
		&stubAdapter{tag: feed.SourceJooble, result: okResult(feed.SourceJooble, "j1", "j2")},
	)

	sources := []feed.SourceTag{feed.SourceJooble, feed.SourceRemotive}
	results := agg.SearchAll(context.Background(), "golang", sources, feed.SearchOptions{})
	require.Len(t, results, 2)
	require.Equal(t, feed.SourceJooble, results[0].Source)
	require.Equal(t, feed.SourceRemotive, results[1].Source)
	require.Len(t, results[0].Records, 2)
}

func TestSearchAllDefaultsToAllSources(t *testing.T) {
	t.Parallel()

	agg := newAggregator(nil,
		&stubAdapter{tag: feed.SourceRemotive, result: okResult(feed.SourceRemotive)},
		&stubAdapter{tag: feed.SourceArbeitnow, result: okResult(feed.SourceArbeitnow)},
	)

	results := agg.SearchAll(context.Background(), "golang", nil, feed.SearchOptions{})
	require.Len(t, results, 2)
	// Sorted registry order.
	require.Equal(t, feed.SourceArbeitnow, results[0].Source)
	require.Equal(t, feed.SourceRemotive, results[1].Source)
}

func TestSearchAllPartialFailureIsolation(t *testing.T) {
	t.Parallel()

	failing := feed.Failure(feed.SourceWWR, testNow, "status 502")
	agg := newAggregator(nil,
		&stubAdapter{tag: feed.SourceRemotive, result: okResult(feed.SourceRemotive, "r1")},
		&stubAdapter{tag: feed.SourceWWR, result: failing},
	)

	results := agg.SearchAll(context.Background(),
		"golang", []feed.SourceTag{feed.SourceRemotive, feed.SourceWWR}, feed.SearchOptions{})
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Equal(t, "status 502", results[1].Error)
}

func TestSearchAllUnknownSource(t *testing.T) {
	t.Parallel()

	agg := newAggregator(nil,
		&stubAdapter{tag: feed.SourceRemotive, result: okResult(feed.SourceRemotive)},
		&stubAdapter{tag: feed.SourceJooble, result: okResult(feed.SourceJooble)},
	)

	results := agg.SearchAll(context.Background(),
		"golang", []feed.SourceTag{"upwork"}, feed.SearchOptions{})
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
	require.Equal(t, feed.SourceTag("upwork"), results[0].Source)
	require.Equal(t,
		"adapter not implemented for upwork, available: jooble, remotive",
		results[0].Error)
}

func TestSearchAllPanicContainment(t *testing.T) {
	t.Parallel()

	agg := newAggregator(nil,
		&stubAdapter{tag: feed.SourceRemotive, result: okResult(feed.SourceRemotive, "r1")},
		&stubAdapter{tag: feed.SourceJooble, panics: true},
	)

	results := agg.SearchAll(context.Background(),
		"golang", []feed.SourceTag{feed.SourceRemotive, feed.SourceJooble}, feed.SearchOptions{})
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Contains(t, results[1].Error, "adapter panicked")
}

func TestSearchAllRunsConcurrently(t *testing.T) {
	t.Parallel()

	const delay = 150 * time.Millisecond
	agg := newAggregator(nil,
		&stubAdapter{tag: feed.SourceRemotive, delay: delay, result: okResult(feed.SourceRemotive)},
		&stubAdapter{tag: feed.SourceArbeitnow, delay: delay, result: okResult(feed.SourceArbeitnow)},
		&stubAdapter{tag: feed.SourceJooble, delay: delay, result: okResult(feed.SourceJooble)},
	)

	start := time.Now()
	results := agg.SearchAll(context.Background(), "golang", nil, feed.SearchOptions{})
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	// Wall clock tracks the slowest source, not the sum.
	require.Less(t, elapsed, 3*delay)
}

func TestSearchAllArchives(t *testing.T) {
	t.Parallel()

	archiver := &memArchiver{}
	agg := newAggregator(archiver,
		&stubAdapter{tag: feed.SourceRemotive, result: okResult(feed.SourceRemotive, "r1")},
	)

	agg.SearchAll(context.Background(), "Go Backend!", nil, feed.SearchOptions{})
	require.Len(t, archiver.paths, 1)
	require.Contains(t, archiver.paths[0], "searches/2025/06/01/go-backend-")
	require.Contains(t, string(archiver.data[0]), `"r1"`)
}

func TestSanitizePathSegment(t *testing.T) {
	t.Parallel()

	require.Equal(t, "go-backend", sanitizePathSegment(" Go Backend "))
	require.Equal(t, "empty", sanitizePathSegment("!!!"))
	require.Equal(t, "empty", sanitizePathSegment(""))
}
