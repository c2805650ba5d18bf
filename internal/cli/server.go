package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboarding-service/internal/app"
	"onboarding-service/internal/config"
	"onboarding-service/internal/domain"
	"onboarding-service/internal/infra/memory"
	pgloader "onboarding-service/internal/infra/postgres"
	rediscache "onboarding-service/internal/infra/redis"
	transport "onboarding-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the onboarding server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.Log.Level, cfg.Log.Format)
	logger := log.Logger

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var loader memory.CatalogLoader = memory.NewBuiltinCatalogLoader()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = rediscache.NewCatalogRepository(redisClient, loader, catalogTTL, logger)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	// A broken catalog is a configuration error; refuse to serve.
	for _, p := range domain.Personas() {
		c, err := catalogs.GetCatalog(ctx, p)
		if err != nil {
			return fmt.Errorf("load %s catalog: %w", p, err)
		}
		logger.Info().Str("persona", string(p)).Int("questions", len(c.Questions)).Msg("catalog loaded")
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = rediscache.NewSessionStore(redisClient, redisTTL, logger)
	} else {
		store = memory.NewSessionStore()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := app.NewOnboardingService(store, catalogs, app.NewLogSink(logger),
		app.WithTransition(app.NewTransition(transitionConfig(cfg))),
		app.WithMetrics(app.NewMetrics(reg)),
		app.WithLogger(logger),
	)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("GET /catalogs/{persona}", transport.NewCatalogHandler(catalogs, logger))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("starting onboarding service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// transitionConfig overlays configured durations on the defaults.
func transitionConfig(cfg config.Config) app.TransitionConfig {
	tc := app.DefaultTransitionConfig()
	tc.Enabled = cfg.TransitionEnabled()
	tc.MinDelay = config.TTLDuration(cfg.Transition.MinDelay, tc.MinDelay)
	tc.MaxDelay = config.TTLDuration(cfg.Transition.MaxDelay, tc.MaxDelay)
	tc.Intervals[domain.PersonaCreator] = config.TTLDuration(cfg.Transition.CreatorInterval, tc.Intervals[domain.PersonaCreator])
	tc.Intervals[domain.PersonaEntrepreneur] = config.TTLDuration(cfg.Transition.EntrepreneurInterval, tc.Intervals[domain.PersonaEntrepreneur])
	return tc
}
