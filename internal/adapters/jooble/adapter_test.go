package jooble

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/fetchhttp"
)

const samplePayload = `{
  "totalCount": 2,
  "jobs": [
    {
      "id": 9001,
      "title": "Freelance Web Designer",
      "location": "Remote",
      "snippet": "Redesign a small retail storefront with modern tooling.",
      "salary": "$45 per hour",
      "source": "partner-board",
      "type": "Contract",
      "link": "https://jooble.org/jdp/9001",
      "company": "Storefront Labs",
      "updated": "2026-08-28T09:00:00Z"
    },
    {
      "id": 9002,
      "title": "WordPress Developer",
      "location": "Austin, TX",
      "snippet": "Maintain plugins for a marketing agency.",
      "salary": "",
      "source": "partner-board",
      "type": "Full-time",
      "link": "https://jooble.org/jdp/9002",
      "company": "AgencyCo",
      "updated": "2026-08-27T15:30:00Z"
    }
  ]
}`

func newTestAdapter(t *testing.T, key string, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := fetchhttp.New(fetchhttp.Config{Timeout: 5 * time.Second})
	clock := feed.ClockFunc(func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) })
	return New(Config{BaseURL: srv.URL, APIKey: key}, client, clock, zap.NewNop())
}

func TestSearchPostsKeywordsWithKeyInPath(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/test-key", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "web design", req["keywords"])
		require.Equal(t, "Berlin", req["location"])
		_, _ = w.Write([]byte(samplePayload))
	})

	result := adapter.Search(context.Background(), "web design", feed.SearchOptions{Location: "Berlin"})
	require.True(t, result.Success)
	require.Len(t, result.Records, 2)

	first := result.Records[0]
	require.Equal(t, feed.RecordID(feed.SourceJooble, "9001"), first.ID)
	require.Equal(t, "https://jooble.org/jdp/9001", first.SourceURL)
	require.NotNil(t, first.Budget)
	require.Equal(t, feed.BudgetHourly, first.Budget.Type)
	require.Equal(t, 45.0, first.Budget.Min)
	require.NotNil(t, first.Client)
	require.Equal(t, "Storefront Labs", first.Client.Name)
}

func TestSearchMissingAPIKey(t *testing.T) {
	t.Parallel()

	called := false
	adapter := newTestAdapter(t, "", func(http.ResponseWriter, *http.Request) {
		called = true
	})

	result := adapter.Search(context.Background(), "web design", feed.SearchOptions{})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "api_key")
	require.Empty(t, result.Records)
	require.False(t, result.ScrapedAt.IsZero())
	require.False(t, called, "no network call should happen without a key")
}

func TestSearchUpstreamErrorStatus(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	result := adapter.Search(context.Background(), "go", feed.SearchOptions{})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "403")
}
