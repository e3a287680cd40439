// Package main wires together the feed service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/gigfeed/gigfeed/internal/adapters/arbeitnow"
	"github.com/gigfeed/gigfeed/internal/adapters/jooble"
	"github.com/gigfeed/gigfeed/internal/adapters/remotive"
	"github.com/gigfeed/gigfeed/internal/adapters/wwr"
	"github.com/gigfeed/gigfeed/internal/aggregator"
	"github.com/gigfeed/gigfeed/internal/api"
	"github.com/gigfeed/gigfeed/internal/config"
	"github.com/gigfeed/gigfeed/internal/feed"
	"github.com/gigfeed/gigfeed/internal/fetchhttp"
	"github.com/gigfeed/gigfeed/internal/logging"
	"github.com/gigfeed/gigfeed/internal/metrics"
	"github.com/gigfeed/gigfeed/internal/opportunity"
	"github.com/gigfeed/gigfeed/internal/places"
	pubsubpublisher "github.com/gigfeed/gigfeed/internal/publisher/pubsub"
	"github.com/gigfeed/gigfeed/internal/storage"
	gcsblob "github.com/gigfeed/gigfeed/internal/storage/gcs"
	localblob "github.com/gigfeed/gigfeed/internal/storage/local"
	memstorage "github.com/gigfeed/gigfeed/internal/storage/memory"
	pgstorage "github.com/gigfeed/gigfeed/internal/storage/postgres"
	"github.com/gigfeed/gigfeed/internal/webscan"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := feed.SystemClock()
	httpClient := fetchhttp.New(fetchhttp.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})

	adapters := buildAdapters(cfg, httpClient, clock, logger)
	if len(adapters) == 0 {
		logger.Fatal("no source adapters enabled")
	}

	store, err := buildRecordStore(ctx, cfg, clock)
	if err != nil {
		logger.Fatal("record store init failed", zap.Error(err))
	}

	archiver, err := buildArchiver(ctx, cfg)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	var publisher api.Publisher
	if cfg.PubSub.Enabled {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("pubsub client init failed", zap.Error(err))
		}
		pub := pubsubpublisher.New(client)
		defer func() {
			if closeErr := pub.Close(); closeErr != nil {
				logger.Warn("pubsub close failed", zap.Error(closeErr))
			}
		}()
		publisher = pub
	}

	agg := aggregator.New(adapters, clock, archiver, logger.Named("aggregator"))
	apiServer := api.NewServer(agg, store, publisher, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildAdapters(
	cfg config.Config,
	httpClient *fetchhttp.Client,
	clock feed.Clock,
	logger *zap.Logger,
) map[feed.SourceTag]feed.Adapter {
	adapters := make(map[feed.SourceTag]feed.Adapter)
	if cfg.Sources.Remotive.Enabled {
		a := remotive.New(remotive.Config{BaseURL: cfg.Sources.Remotive.BaseURL},
			httpClient, clock, logger.Named("remotive"))
		adapters[a.Tag()] = a
	}
	if cfg.Sources.Arbeitnow.Enabled {
		a := arbeitnow.New(arbeitnow.Config{BaseURL: cfg.Sources.Arbeitnow.BaseURL},
			httpClient, clock, logger.Named("arbeitnow"))
		adapters[a.Tag()] = a
	}
	if cfg.Sources.Jooble.Enabled {
		a := jooble.New(jooble.Config{
			BaseURL: cfg.Sources.Jooble.BaseURL,
			APIKey:  cfg.Sources.Jooble.APIKey,
		}, httpClient, clock, logger.Named("jooble"))
		adapters[a.Tag()] = a
	}
	if cfg.Sources.WWR.Enabled {
		a := wwr.New(wwr.Config{BaseURL: cfg.Sources.WWR.BaseURL},
			httpClient, clock, logger.Named("wwr"))
		adapters[a.Tag()] = a
	}
	if cfg.Sources.Opportunity.Enabled {
		synth, err := buildSynthesizer(cfg, httpClient, clock, logger)
		if err != nil {
			logger.Warn("opportunity source init failed, continuing without it", zap.Error(err))
		} else {
			adapters[synth.Tag()] = synth
		}
	}
	return adapters
}

func buildSynthesizer(
	cfg config.Config,
	httpClient *fetchhttp.Client,
	clock feed.Clock,
	logger *zap.Logger,
) (*opportunity.Synthesizer, error) {
	placesClient, err := places.NewClient(places.Config{
		BaseURL: cfg.Sources.Opportunity.PlacesBaseURL,
		APIKey:  cfg.Sources.Opportunity.PlacesAPIKey,
	}, httpClient, logger.Named("places"))
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}

	var renderer webscan.Renderer
	if cfg.Webscan.HeadlessEnabled {
		chromeRenderer, err := webscan.NewChromedpRenderer(webscan.RendererConfig{
			MaxParallel:       cfg.Webscan.MaxParallel,
			UserAgent:         cfg.HTTP.UserAgent,
			NavigationTimeout: time.Duration(cfg.Webscan.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless renderer init failed, falling back to static scans", zap.Error(err))
		} else {
			renderer = chromeRenderer
		}
	}
	scanner := webscan.NewScanner(webscan.Config{Timeout: cfg.WebscanTimeout()},
		httpClient, renderer, logger.Named("webscan"))

	return opportunity.New(opportunity.Config{
		Location: cfg.Sources.Opportunity.Location,
		Pace:     cfg.OpportunityPace(),
	}, placesClient, scanner, nil, clock, logger.Named("opportunity")), nil
}

func buildRecordStore(ctx context.Context, cfg config.Config, clock feed.Clock) (storage.RecordStore, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return pgstorage.NewRecordStore(ctx, pgstorage.RecordStoreConfig{
			DSN:             cfg.Storage.DSN,
			Table:           cfg.Storage.Table,
			MaxConns:        cfg.Storage.MaxConns,
			MinConns:        cfg.Storage.MinConns,
			MaxConnLifetime: time.Duration(cfg.Storage.MaxConnLifetime) * time.Second,
		}, clock)
	default:
		return memstorage.NewRecordStore(clock), nil
	}
}

func buildArchiver(ctx context.Context, cfg config.Config) (aggregator.Archiver, error) {
	switch cfg.Blob.Backend {
	case "gcs":
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return gcsblob.New(client, gcsblob.Config{Bucket: cfg.Blob.GCSBucket})
	case "local":
		return localblob.New(localblob.Config{BaseDir: cfg.Blob.BaseDir})
	case "memory":
		return memstorage.NewBlobStore(), nil
	default:
		return nil, nil
	}
}
