package webscan

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/fetchhttp"
)

// Result is the outcome of analyzing one website.
type Result struct {
	URL              string        `json:"url"`
	Accessible       bool          `json:"accessible"`
	HasSSL           bool          `json:"has_ssl"`
	LoadTime         time.Duration `json:"load_time"`
	DetectedFeatures []string      `json:"detected_features"`
	MissingFeatures  []string      `json:"missing_features"`
	UsedHeadless     bool          `json:"used_headless"`
	Error            string        `json:"error,omitempty"`
}

// Renderer produces a fully rendered DOM for pages the static pass cannot
// see into.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Config controls the scanner.
type Config struct {
	// Timeout bounds the whole analysis of one site. Timeouts mean
	// "inaccessible", they never fail the caller.
	Timeout time.Duration
}

// Scanner fetches and inspects business websites.
type Scanner struct {
	cfg      Config
	fetch    *fetchhttp.Client
	renderer Renderer
	logger   *zap.Logger
}

// NewScanner builds a Scanner. renderer may be nil to disable the headless
// pass.
func NewScanner(cfg Config, fetch *fetchhttp.Client, renderer Renderer, logger *zap.Logger) *Scanner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{cfg: cfg, fetch: fetch, renderer: renderer, logger: logger}
}

// Analyze fetches the site and reports which capability signals are present.
// Fetch failures and timeouts produce an inaccessible Result with every
// feature missing; they never return an error.
func (s *Scanner) Analyze(ctx context.Context, rawURL string) Result {
	result := Result{URL: rawURL, HasSSL: strings.HasPrefix(rawURL, "https://")}
	if rawURL == "" {
		result.MissingFeatures = FeatureNames()
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.fetch.Get(fetchCtx, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("site fetch failed: %v", err)
		result.MissingFeatures = FeatureNames()
		return result
	}
	result.LoadTime = resp.Duration
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		result.Error = fmt.Sprintf("site returned status %d", resp.StatusCode)
		result.MissingFeatures = FeatureNames()
		return result
	}
	result.Accessible = true

	body := resp.Body
	if s.renderer != nil && LooksRendered(resp.StatusCode, body) {
		rendered, renderErr := s.renderer.Render(fetchCtx, rawURL)
		if renderErr != nil {
			s.logger.Warn("headless render failed, using static body",
				zap.String("url", rawURL),
				zap.Error(renderErr),
			)
		} else {
			body = rendered
			result.UsedHeadless = true
		}
	}

	detected, missing := scanSignals(body)
	result.DetectedFeatures = detected
	result.MissingFeatures = missing
	return result
}

// CheckAccessibility performs a lightweight reachability probe without the
// signal scan.
func (s *Scanner) CheckAccessibility(ctx context.Context, rawURL string) Result {
	result := Result{URL: rawURL, HasSSL: strings.HasPrefix(rawURL, "https://")}
	if rawURL == "" {
		return result
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.fetch.Get(fetchCtx, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("site fetch failed: %v", err)
		return result
	}
	result.LoadTime = resp.Duration
	result.Accessible = resp.StatusCode >= 200 && resp.StatusCode < 400
	if !result.Accessible {
		result.Error = fmt.Sprintf("site returned status %d", resp.StatusCode)
	}
	return result
}

func scanSignals(body []byte) (detected, missing []string) {
	lower := strings.ToLower(string(body))
	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))

	// The site responded, so online presence is established regardless of
	// what else is on the page.
	detected = append(detected, FeatureOnlinePresence)

	for _, sig := range featureSignals {
		if signalPresent(sig, lower, doc, docErr == nil) {
			detected = append(detected, sig.Name)
		} else {
			missing = append(missing, sig.Name)
		}
	}
	return detected, missing
}

func signalPresent(sig featureSignal, lowerBody string, doc *goquery.Document, docOK bool) bool {
	for _, kw := range sig.Keywords {
		if strings.Contains(lowerBody, kw) {
			return true
		}
	}
	for _, script := range sig.Scripts {
		if strings.Contains(lowerBody, script) {
			return true
		}
	}
	if docOK {
		for _, selector := range sig.Selectors {
			if doc.Find(selector).Length() > 0 {
				return true
			}
		}
	}
	return false
}
