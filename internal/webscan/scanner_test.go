package webscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gigfeed/gigfeed/internal/fetchhttp"
)

const richPage = `<html><head>
<meta name="viewport" content="width=device-width">
<meta name="description" content="Best salon in town">
<script src="https://www.googletagmanager.com/gtag/js"></script>
</head><body>
<h1>Salon Rio</h1>
<p>Book online or visit us. Find us on instagram.com/salonrio too.</p>
<form><input type="email"><textarea></textarea></form>
</body></html>`

const barePage = `<html><head></head><body><h1>Salon Rio</h1><p>Call us.</p>` +
	`<div>padding padding padding padding padding padding padding padding padding padding</div></body></html>`

func newTestScanner(t *testing.T, handler http.HandlerFunc) (*Scanner, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	scanner := NewScanner(
		Config{Timeout: 5 * time.Second},
		fetchhttp.New(fetchhttp.Config{Timeout: 5 * time.Second}),
		nil,
		nil,
	)
	return scanner, srv.URL
}

func TestAnalyzeDetectsSignals(t *testing.T) {
	t.Parallel()

	scanner, url := newTestScanner(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(richPage))
	})

	result := scanner.Analyze(context.Background(), url)
	require.True(t, result.Accessible)
	require.Empty(t, result.Error)
	require.Contains(t, result.DetectedFeatures, FeatureOnlinePresence)
	require.Contains(t, result.DetectedFeatures, "online_booking")
	require.Contains(t, result.DetectedFeatures, "contact_form")
	require.Contains(t, result.DetectedFeatures, "analytics")
	require.Contains(t, result.DetectedFeatures, "mobile_viewport")
	require.Contains(t, result.DetectedFeatures, "social_links")
	require.Contains(t, result.DetectedFeatures, "seo_meta")
	require.Contains(t, result.MissingFeatures, "live_chat")
}

func TestAnalyzeReportsMissingSignals(t *testing.T) {
	t.Parallel()

	scanner, url := newTestScanner(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(barePage))
	})

	result := scanner.Analyze(context.Background(), url)
	require.True(t, result.Accessible)
	require.Contains(t, result.MissingFeatures, "online_booking")
	require.Contains(t, result.MissingFeatures, "analytics")
	require.Contains(t, result.MissingFeatures, "mobile_viewport")
	require.NotContains(t, result.MissingFeatures, FeatureOnlinePresence)
}

func TestAnalyzeInaccessibleSite(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(
		Config{Timeout: time.Second},
		fetchhttp.New(fetchhttp.Config{Timeout: time.Second}),
		nil,
		nil,
	)

	result := scanner.Analyze(context.Background(), "http://127.0.0.1:1/nowhere")
	require.False(t, result.Accessible)
	require.NotEmpty(t, result.Error)
	// Inaccessible sites report every feature missing.
	require.Equal(t, FeatureNames(), result.MissingFeatures)
}

func TestAnalyzeEmptyURL(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(Config{}, fetchhttp.New(fetchhttp.Config{}), nil, nil)
	result := scanner.Analyze(context.Background(), "")
	require.False(t, result.Accessible)
	require.False(t, result.HasSSL)
	require.Equal(t, FeatureNames(), result.MissingFeatures)
}

func TestAnalyzePromotesRenderedPages(t *testing.T) {
	t.Parallel()

	shell := `<html><body><div id="root"></div><script src="/app.js"></script></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(shell))
	}))
	t.Cleanup(srv.Close)

	renderer := &fakeRenderer{body: []byte(richPage)}
	scanner := NewScanner(
		Config{Timeout: 5 * time.Second},
		fetchhttp.New(fetchhttp.Config{Timeout: 5 * time.Second}),
		renderer,
		nil,
	)

	result := scanner.Analyze(context.Background(), srv.URL)
	require.True(t, result.Accessible)
	require.True(t, result.UsedHeadless)
	require.Contains(t, result.DetectedFeatures, "online_booking")
	require.Equal(t, 1, renderer.calls)
}

func TestCheckWebsiteAccessibility(t *testing.T) {
	t.Parallel()

	scanner, url := newTestScanner(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	result := scanner.CheckAccessibility(context.Background(), url)
	require.True(t, result.Accessible)
	require.Positive(t, result.LoadTime)
	require.True(t, strings.HasPrefix(url, "http://"))
	require.False(t, result.HasSSL)
}

func TestLooksRendered(t *testing.T) {
	t.Parallel()

	require.True(t, LooksRendered(200, nil))
	require.True(t, LooksRendered(200, []byte(`<div id="root"></div>`)))
	require.True(t, LooksRendered(200, []byte(`<html><script>var x=1;var y=2;</script><p>hi</p></html>`)))
	require.False(t, LooksRendered(200, []byte(richPage)))
	require.False(t, LooksRendered(404, []byte(`<div id="root"></div>`)))
}

type fakeRenderer struct {
	body  []byte
	calls int
}

func (f *fakeRenderer) Render(context.Context, string) ([]byte, error) {
	f.calls++
	return f.body, nil
}
