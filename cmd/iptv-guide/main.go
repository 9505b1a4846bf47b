package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"github.com/alorle/iptv-guide/cache"
	"github.com/alorle/iptv-guide/circuitbreaker"
	"github.com/alorle/iptv-guide/config"
	"github.com/alorle/iptv-guide/fetcher"
	"github.com/alorle/iptv-guide/internal/adapter/driven"
	"github.com/alorle/iptv-guide/internal/adapter/driver"
	"github.com/alorle/iptv-guide/internal/application"
	"github.com/alorle/iptv-guide/internal/parser"
	"github.com/alorle/iptv-guide/internal/playlist"
	"github.com/alorle/iptv-guide/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level := logging.ParseLevel(cfg.Resilience.LogLevel)
	if level == slog.LevelDebug {
		cfg.Print()
	}

	// Create structured logger
	logger := logging.New(level, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting iptv-guide",
		"address", cfg.HTTP.Address,
		"port", cfg.HTTP.Port,
		"db_path", cfg.Database.Path,
		"cache_backend", cfg.Cache.Backend,
		"sources", len(cfg.Sources),
		"log_level", cfg.Resilience.LogLevel,
	)

	// Open BoltDB
	db, err := bbolt.Open(cfg.Database.Path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("error closing database: %v", err)
		}
	}()

	// Create driven adapters
	store, err := driven.NewPlaylistBoltDBStore(db)
	if err != nil {
		log.Fatalf("failed to create playlist store: %v", err)
	}

	storage, err := cache.Open(cache.Options{
		Backend:    cfg.Cache.Backend,
		Dir:        cfg.Cache.Dir,
		MemorySize: cfg.Cache.MemorySize,
		RedisURL:   cfg.Cache.RedisURL,
		Retention:  cfg.Cache.TTL,
	})
	if err != nil {
		log.Fatalf("failed to open cache: %v", err)
	}
	if closer, ok := storage.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Printf("error closing cache: %v", err)
			}
		}()
	}

	f := fetcher.New(fetcher.Options{
		Timeout:     cfg.Fetch.Timeout,
		RateLimit:   cfg.Fetch.RateLimit,
		MaxBodySize: cfg.Fetch.MaxBodySize,
		UserAgent:   cfg.Fetch.UserAgent,
		Retry: fetcher.RetryPolicy{
			Attempts:       cfg.Resilience.RetryAttempts,
			InitialBackoff: cfg.Resilience.RetryInitialBackoff,
			MaxBackoff:     cfg.Resilience.RetryMaxBackoff,
		},
		Breaker: circuitbreaker.Config{
			FailureThreshold: cfg.Resilience.CBFailureThreshold,
			Timeout:          cfg.Resilience.CBTimeout,
			HalfOpenRequests: cfg.Resilience.CBHalfOpenRequests,
		},
	}, storage, logger)

	remoteConfig := driven.NewRemoteConfigYAML(cfg.RemoteConfig.Path)

	// Create application services
	ingestService, err := application.NewIngestService(f, parser.NewService(logger), store, application.IngestOptions{
		Workers:      cfg.Ingest.Workers,
		AutoFetchEPG: cfg.Ingest.AutoFetchEPG,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create ingest service: %v", err)
	}
	defer ingestService.Close()

	guideService := application.NewGuideService(store)
	playlistService := application.NewPlaylistService(store)
	promotionService := application.NewPromotionService(
		remoteConfig,
		f,
		cache.NewRemote[[]application.Promotion](storage, cfg.Cache.RemoteTTL, logger),
		logger,
	)

	var cachePinger application.Pinger
	if p, ok := storage.(application.Pinger); ok {
		cachePinger = p
	}
	healthService := application.NewHealthService(store, cachePinger, f, logger)

	// Create HTTP handlers
	router := driver.NewRouter(logger,
		driver.NewPlaylistHTTPHandler(ingestService, playlistService, guideService, logger),
		driver.NewSelectionHTTPHandler(guideService, logger),
		driver.NewPromotionHTTPHandler(promotionService, logger),
		driver.NewHealthHTTPHandler(healthService, logger),
	)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Fetch.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		refreshSources(gctx, ingestService, cfg, logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}

	logger.Info("server stopped")
}

// refreshSources ingests the configured sources once at startup and then on
// every refresh interval until ctx is done.
func refreshSources(ctx context.Context, ingest *application.IngestService, cfg *config.Config, logger *slog.Logger) {
	reqs := sourceRequests(cfg.Sources, logger)
	if len(reqs) == 0 {
		return
	}

	run := func() {
		for _, o := range ingest.IngestAll(ctx, reqs) {
			if o.Err != nil {
				logger.Warn("Source ingestion failed", "id", o.ID, "error", o.Err)
				continue
			}
			logger.Info("Source ingested",
				"id", o.ID,
				"channels", o.Result.Channels,
				"programs", o.Result.Programs,
				"skipped", o.Result.Skipped,
			)
		}
	}

	run()
	if cfg.Ingest.RefreshInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.Ingest.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

func sourceRequests(sources []config.SourceConfig, logger *slog.Logger) []application.IngestRequest {
	reqs := make([]application.IngestRequest, 0, len(sources))
	for _, src := range sources {
		format := playlist.FormatUnknown
		if src.Format != "" {
			f, err := playlist.ParseFormat(src.Format)
			if err != nil {
				logger.Warn("Skipping source with unknown format", "id", src.ID, "format", src.Format)
				continue
			}
			format = f
		}
		reqs = append(reqs, application.IngestRequest{
			ID:     src.ID,
			Name:   src.Name,
			URL:    src.URL,
			Format: format,
			EPGURL: src.EPGURL,
		})
	}
	return reqs
}
