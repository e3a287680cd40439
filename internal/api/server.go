package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/config"
	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/metrics"
	"github.com/gigfeed/gigfeed/internal/storage"
)

// Searcher is the aggregation surface the server fronts.
type Searcher interface {
	SearchAll(ctx context.Context, query string, sources []feed.SourceTag, opts feed.SearchOptions) []feed.SourceResult
	Sources() []feed.SourceTag
}

// Publisher emits search-completed events. May be nil; publishing is best
// effort.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Server wires HTTP handlers to the aggregator and record store.
type Server struct {
	router    chi.Router
	searcher  Searcher
	store     storage.RecordStore
	publisher Publisher
	clock     feed.Clock
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	searcher Searcher,
	store storage.RecordStore,
	publisher Publisher,
	clock feed.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		searcher:  searcher,
		store:     store,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey, logger))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.search)
		r.Get("/sources", s.sources)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.listRecords)
			r.Route("/{record_id}", func(r chi.Router) {
				r.Get("/", s.getRecord)
				r.Post("/status", s.updateRecordStatus)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) sources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"sources": s.searcher.Sources()})
}

type searchRequest struct {
	Query   string             `json:"query"`
	Sources []string           `json:"sources"`
	Options feed.SearchOptions `json:"options"`
}

type searchResponse struct {
	SearchID string              `json:"search_id"`
	Query    string              `json:"query"`
	Results  []feed.SourceResult `json:"results"`
}

// searchEvent is the payload published after every aggregated search.
type searchEvent struct {
	SearchID     string            `json:"search_id"`
	Query        string            `json:"query"`
	Sources      []feed.SourceTag  `json:"sources"`
	TotalRecords int               `json:"total_records"`
	Failures     map[string]string `json:"failures,omitempty"`
	CompletedAt  time.Time         `json:"completed_at"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, s.logger, http.StatusBadRequest, "query is required")
		return
	}

	sources := make([]feed.SourceTag, 0, len(req.Sources))
	for _, src := range req.Sources {
		sources = append(sources, feed.SourceTag(src))
	}

	searchID := uuid.NewString()
	results := s.searcher.SearchAll(r.Context(), req.Query, sources, req.Options)

	s.persistRecords(r.Context(), results)
	s.publishSearchEvent(r.Context(), searchID, req.Query, results)

	writeJSON(w, s.logger, http.StatusOK, searchResponse{
		SearchID: searchID,
		Query:    req.Query,
		Results:  results,
	})
}

// persistRecords stores every returned record as pending review. Store
// failures degrade to log lines so the search response is never blocked.
func (s *Server) persistRecords(ctx context.Context, results []feed.SourceResult) {
	if s.store == nil {
		return
	}
	for _, result := range results {
		if !result.Success {
			continue
		}
		for _, rec := range result.Records {
			if err := s.store.Upsert(ctx, s.cfg.Feed.Tenant, rec); err != nil {
				s.logger.Warn("record upsert failed",
					zap.String("record_id", rec.ID),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Server) publishSearchEvent(ctx context.Context, searchID, query string, results []feed.SourceResult) {
	if s.publisher == nil {
		return
	}
	event := searchEvent{
		SearchID:    searchID,
		Query:       query,
		CompletedAt: s.clock.Now(),
	}
	for _, result := range results {
		event.Sources = append(event.Sources, result.Source)
		event.TotalRecords += len(result.Records)
		if !result.Success {
			if event.Failures == nil {
				event.Failures = make(map[string]string)
			}
			event.Failures[string(result.Source)] = result.Error
		}
	}
	if _, err := s.publisher.Publish(ctx, s.cfg.Feed.EventTopic, event); err != nil {
		s.logger.Warn("search event publish failed",
			zap.String("search_id", searchID),
			zap.Error(err),
		)
	}
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, s.logger, http.StatusNotImplemented, "record store is not configured")
		return
	}
	filter := storage.ListFilter{
		Status: storage.RecordStatus(r.URL.Query().Get("status")),
		Source: feed.SourceTag(r.URL.Query().Get("source")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, s.logger, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	records, err := s.store.List(r.Context(), s.cfg.Feed.Tenant, filter)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidStatus) {
			writeError(w, s.logger, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, s.logger, http.StatusInternalServerError, "failed to list records")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, s.logger, http.StatusNotImplemented, "record store is not configured")
		return
	}
	recordID := chi.URLParam(r, "record_id")
	stored, err := s.store.Get(r.Context(), s.cfg.Feed.Tenant, recordID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, s.logger, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, s.logger, http.StatusInternalServerError, "failed to fetch record")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, stored)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateRecordStatus(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, s.logger, http.StatusNotImplemented, "record store is not configured")
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, s.logger, http.StatusBadRequest, "missing status")
		return
	}
	recordID := chi.URLParam(r, "record_id")
	err := s.store.UpdateStatus(r.Context(), s.cfg.Feed.Tenant, recordID, storage.RecordStatus(req.Status))
	switch {
	case errors.Is(err, storage.ErrInvalidStatus):
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, s.logger, http.StatusNotFound, "record not found")
	case err != nil:
		writeError(w, s.logger, http.StatusInternalServerError, "failed to update record")
	default:
		writeJSON(w, s.logger, http.StatusOK, map[string]string{
			"record_id": recordID,
			"status":    req.Status,
		})
	}
}
