package opportunity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/places"
	"github.com/gigfeed/gigfeed/internal/webscan"
)

type fakePlaces struct {
	mu          sync.Mutex
	searchFn    func(req places.SearchRequest) ([]places.Business, error)
	detailsFn   func(sourceID string) (places.Business, []places.Review, error)
	searchReqs  []places.SearchRequest
	detailCalls []string
}

func (f *fakePlaces) SearchBusinesses(_ context.Context, req places.SearchRequest) ([]places.Business, error) {
	f.mu.Lock()
	f.searchReqs = append(f.searchReqs, req)
	f.mu.Unlock()
	return f.searchFn(req)
}

func (f *fakePlaces) GetBusinessDetails(_ context.Context, sourceID string) (places.Business, []places.Review, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, sourceID)
	f.mu.Unlock()
	return f.detailsFn(sourceID)
}

type fakeScanner struct {
	result webscan.Result
	urls   []string
}

func (f *fakeScanner) Analyze(_ context.Context, url string) webscan.Result {
	f.urls = append(f.urls, url)
	result := f.result
	result.URL = url
	return result
}

type fakePitcher struct {
	pitch string
	err   error
}

func (f *fakePitcher) Pitch(context.Context, BusinessLead) (string, error) {
	return f.pitch, f.err
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testClock() feed.Clock {
	return feed.ClockFunc(func() time.Time { return testNow })
}

func badReviews() []places.Review {
	return []places.Review{
		{Rating: 2, Text: "Waited forever, no response to my calls.", Date: testNow.AddDate(0, 0, -10)},
		{Rating: 1, Text: "Service was slow and the staff was rude.", Date: testNow.AddDate(0, 0, -20)},
	}
}

func dinerBusiness() places.Business {
	return places.Business{
		SourceID:    "b1",
		Name:        "Rosa's Diner",
		Category:    "restaurant",
		City:        "Austin",
		Country:     "US",
		Rating:      3.2,
		ReviewCount: 48,
	}
}

func newTestSynthesizer(pc PlacesClient, sc SiteScanner, pw PitchWriter) *Synthesizer {
	cfg := Config{Location: "Austin", Pace: time.Millisecond}
	return New(cfg, pc, sc, pw, testClock(), zap.NewNop())
}

func TestSynthesizerSearch(t *testing.T) {
	t.Parallel()

	pc := &fakePlaces{
		searchFn: func(req places.SearchRequest) ([]places.Business, error) {
			if req.Query == "restaurant" {
				return []places.Business{dinerBusiness()}, nil
			}
			return nil, nil
		},
		detailsFn: func(string) (places.Business, []places.Review, error) {
			return dinerBusiness(), badReviews(), nil
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.True(t, result.Success)
	require.Equal(t, feed.SourceOpportunity, result.Source)
	require.Equal(t, testNow, result.ScrapedAt)
	require.Len(t, result.Records, 1)

	rec := result.Records[0]
	require.Equal(t, feed.RecordID(feed.SourceOpportunity, "b1"), rec.ID)
	require.Equal(t, feed.SourceOpportunity, rec.Source)
	require.Equal(t, "web design", rec.RendererHint)
	require.Contains(t, rec.Title, "Rosa's Diner")
	require.Contains(t, rec.Description, "Rosa's Diner in Austin")
	require.Contains(t, rec.Skills, "website design and hosting")
	require.NotNil(t, rec.Client)
	require.Equal(t, "Austin, US", rec.Client.Location)
	require.InDelta(t, 3.2, rec.Client.Rating, 0.001)

	// Three categories, each searched with the shared floor and location.
	require.Len(t, pc.searchReqs, 3)
	for _, req := range pc.searchReqs {
		require.Equal(t, "Austin", req.Location)
		require.Equal(t, minReviewCount, req.MinReviews)
	}
}

func TestSynthesizerMissingLocation(t *testing.T) {
	t.Parallel()

	s := New(Config{Pace: time.Millisecond}, &fakePlaces{}, &fakeScanner{}, nil, testClock(), zap.NewNop())

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "location")
	require.Empty(t, result.Records)
}

func TestSynthesizerCategoryFailureIsolation(t *testing.T) {
	t.Parallel()

	pc := &fakePlaces{
		searchFn: func(req places.SearchRequest) ([]places.Business, error) {
			if req.Query == "restaurant" {
				return nil, errors.New("quota exceeded")
			}
			if req.Query == "hair salon" {
				return []places.Business{dinerBusiness()}, nil
			}
			return nil, nil
		},
		detailsFn: func(string) (places.Business, []places.Review, error) {
			return dinerBusiness(), badReviews(), nil
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.True(t, result.Success)
	require.Len(t, result.Records, 1)
}

func TestSynthesizerAllSearchesFail(t *testing.T) {
	t.Parallel()

	pc := &fakePlaces{
		searchFn: func(places.SearchRequest) ([]places.Business, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "all business searches failed")
	require.Contains(t, result.Error, "quota exceeded")
}

func TestSynthesizerDetailsFailureSkips(t *testing.T) {
	t.Parallel()

	second := dinerBusiness()
	second.SourceID = "b2"
	second.Name = "Blue Plate"

	pc := &fakePlaces{
		searchFn: func(req places.SearchRequest) ([]places.Business, error) {
			if req.Query == "restaurant" {
				return []places.Business{dinerBusiness(), second}, nil
			}
			return nil, nil
		},
		detailsFn: func(sourceID string) (places.Business, []places.Review, error) {
			if sourceID == "b1" {
				return places.Business{}, nil, errors.New("not found")
			}
			return second, badReviews(), nil
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.True(t, result.Success)
	require.Len(t, result.Records, 1)
	require.Contains(t, result.Records[0].Title, "Blue Plate")
}

func TestSynthesizerDeduplicatesBusinesses(t *testing.T) {
	t.Parallel()

	pc := &fakePlaces{
		searchFn: func(places.SearchRequest) ([]places.Business, error) {
			// Same business surfaces under every category.
			return []places.Business{dinerBusiness()}, nil
		},
		detailsFn: func(string) (places.Business, []places.Review, error) {
			return dinerBusiness(), badReviews(), nil
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.True(t, result.Success)
	require.Len(t, result.Records, 1)
	require.Len(t, pc.detailCalls, 1)
}

func TestSynthesizerDropsLeadWithoutContent(t *testing.T) {
	t.Parallel()

	healthy := dinerBusiness()
	healthy.Website = "https://rosas.example"
	healthy.Rating = 4.9

	pc := &fakePlaces{
		searchFn: func(req places.SearchRequest) ([]places.Business, error) {
			if req.Query == "restaurant" {
				return []places.Business{healthy}, nil
			}
			return nil, nil
		},
		detailsFn: func(string) (places.Business, []places.Review, error) {
			reviews := []places.Review{{Rating: 5, Text: "Fantastic all around.", Date: testNow}}
			return healthy, reviews, nil
		},
	}
	sc := &fakeScanner{result: webscan.Result{
		Accessible:       true,
		DetectedFeatures: webscan.FeatureNames(),
	}}
	s := newTestSynthesizer(pc, sc, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.True(t, result.Success)
	require.Empty(t, result.Records)
	require.Equal(t, []string{"https://rosas.example"}, sc.urls)
}

func TestSynthesizerPitchCollaborator(t *testing.T) {
	t.Parallel()

	pc := &fakePlaces{
		searchFn: func(req places.SearchRequest) ([]places.Business, error) {
			if req.Query == "restaurant" {
				return []places.Business{dinerBusiness()}, nil
			}
			return nil, nil
		},
		detailsFn: func(string) (places.Business, []places.Review, error) {
			return dinerBusiness(), badReviews(), nil
		},
	}

	s := newTestSynthesizer(pc, &fakeScanner{}, &fakePitcher{pitch: "Custom outreach pitch."})
	result := s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.Len(t, result.Records, 1)
	require.Equal(t, "Custom outreach pitch.", result.Records[0].Description)

	// A failing collaborator falls back to the local template.
	s = newTestSynthesizer(pc, &fakeScanner{}, &fakePitcher{err: errors.New("model unavailable")})
	result = s.Search(context.Background(), "web design", feed.SearchOptions{})
	require.Len(t, result.Records, 1)
	require.Contains(t, result.Records[0].Description, "Rosa's Diner")
}

func TestSynthesizerLimit(t *testing.T) {
	t.Parallel()

	second := dinerBusiness()
	second.SourceID = "b2"
	second.Name = "Blue Plate"

	pc := &fakePlaces{
		searchFn: func(req places.SearchRequest) ([]places.Business, error) {
			if req.Query == "restaurant" {
				return []places.Business{dinerBusiness(), second}, nil
			}
			return nil, nil
		},
		detailsFn: func(sourceID string) (places.Business, []places.Review, error) {
			biz := dinerBusiness()
			if sourceID == "b2" {
				biz = second
			}
			return biz, badReviews(), nil
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	result := s.Search(context.Background(), "web design", feed.SearchOptions{Limit: 1})
	require.True(t, result.Success)
	require.Len(t, result.Records, 1)
	require.Contains(t, result.Records[0].Title, "Rosa's Diner")
}

func TestSynthesizerCancellation(t *testing.T) {
	t.Parallel()

	pc := &fakePlaces{
		searchFn: func(places.SearchRequest) ([]places.Business, error) {
			return []places.Business{dinerBusiness()}, nil
		},
		detailsFn: func(string) (places.Business, []places.Review, error) {
			return dinerBusiness(), badReviews(), nil
		},
	}
	s := newTestSynthesizer(pc, &fakeScanner{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := s.Search(ctx, "web design", feed.SearchOptions{})
	require.False(t, result.Success)
	require.Contains(t, result.Error, "search interrupted")
}
