// Command server wires the compliance core behind its HTTP collaborator.
// Business logic lives in the internal service packages; main only selects
// the storage backend, builds the dependency graph, and supervises the API
// and metrics listeners.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"canopy/internal/airlock"
	"canopy/internal/audit"
	"canopy/internal/graph"
	"canopy/internal/lifecycle"
	"canopy/internal/platform/config"
	"canopy/internal/platform/httpserver"
	"canopy/internal/platform/logger"
	"canopy/internal/platform/metrics"
	platformredis "canopy/internal/platform/redis"
	"canopy/internal/portfolio"
	"canopy/internal/storage"
	httptransport "canopy/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		assets        storage.AssetStore
		liabilities   storage.LiabilityStore
		interventions storage.InterventionStore
		verifications storage.VerificationStore
		links         storage.DeliverableLinkStore
	)

	switch cfg.StorageBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := storage.NewPostgresStores(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("migrate postgres", "error", err)
			os.Exit(1)
		}
		assets = pg.Assets
		liabilities = pg.Liabilities
		interventions = pg.Interventions
		verifications = pg.Verifications
		links = pg.Links
	case "memory":
		assets = storage.NewInMemoryAssetStore()
		liabilities = storage.NewInMemoryLiabilityStore()
		interventions = storage.NewInMemoryInterventionStore()
		verifications = storage.NewInMemoryVerificationStore()
		links = storage.NewInMemoryDeliverableLinkStore()
	default:
		log.Error("unknown storage backend", "backend", cfg.StorageBackend)
		os.Exit(1)
	}

	// A configured Redis overlays the verification and link stores so
	// multiple instances share stamp state while the rest of the graph
	// stays on the base backend.
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		verifications = storage.NewRedisVerificationStore(redisClient.Client)
		links = storage.NewRedisDeliverableLinkStore(redisClient.Client)
	}

	trail := audit.NewService(audit.NewInMemoryStore())
	graphSvc := graph.NewService(assets, liabilities, interventions, verifications, trail, log)
	machine := lifecycle.NewMachine(verifications, lifecycle.Config{
		MaxRevisionCycles: cfg.MaxRevisionCycles,
		StampValidity:     cfg.StampValidity,
	}, trail, log)
	gate := airlock.NewGate(assets, verifications, links, airlock.NewMetrics(), trail, log)
	portfolioSvc := portfolio.NewService(assets)

	handler := httptransport.NewHandler(graphSvc, machine, gate, portfolioSvc, trail, metrics.New(), log)
	apiServer := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := httpserver.New(cfg.MetricsAddr, metricsMux)

	log.Info("starting canopy", "addr", cfg.Addr, "metrics_addr", cfg.MetricsAddr, "backend", cfg.StorageBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
