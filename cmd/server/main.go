package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"transport-request-service/internal/adapters/cache"
	"transport-request-service/internal/adapters/distance"
	"transport-request-service/internal/adapters/repositories"
	"transport-request-service/internal/api"
	"transport-request-service/internal/config"
	"transport-request-service/internal/platform/db"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
	"transport-request-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, routing provider, caches) behind ports and starts the HTTP server.
func main() {
	foundDotEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !foundDotEnv {
		logger.Info("no .env file found (using environment variables)")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := repositories.Migrate(pg); err != nil {
		return err
	}

	provider, closeProvider, err := buildProvider(ctx, cfg, pg)
	if err != nil {
		return err
	}
	defer closeProvider()

	transfers := repositories.NewPgTransferRepository(pg)
	locations := repositories.NewPgLocationDirectory(pg)

	sessions := services.NewSessionStore(services.SessionDeps{
		Transfers:  transfers,
		Locations:  locations,
		Rates:      repositories.NewPgCarrierRateRepository(pg),
		Aggregator: services.NewDistanceAggregator(provider),
	})
	submitter := &services.Submitter{
		Store:   repositories.NewPgTransportRequestStore(pg),
		Status:  transfers,
		Timeout: cfg.PersistTimeout,
	}

	router := api.NewRouter(api.Deps{
		Transfers: transfers,
		Locations: locations,
		Sessions:  sessions,
		Submitter: submitter,
	})

	// Timeouts are tuned for cold-cache distance lookups (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("distance_provider", cfg.DistanceProvider),
			zap.String("distance_cache", cfg.DistanceCache),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// buildProvider selects the routing provider and, for ORS, its caches.
// The returned func releases cache connections.
func buildProvider(ctx context.Context, cfg config.Config, pg *sql.DB) (ports.DistanceProvider, func(), error) {
	noop := func() {}

	if cfg.DistanceProvider == "placeholder" {
		return distance.NewBreakerDistanceProvider("placeholder", distance.NewPlaceholderDistanceProvider()), noop, nil
	}

	var (
		distanceCache ports.DistanceCache
		geocodeCache  ports.GeocodeCache
		closeFn       = noop
	)

	switch cfg.DistanceCache {
	case "postgres":
		distanceCache = cache.NewPgDistanceCache(pg)
		geocodeCache = cache.NewPgGeocodeCache(pg)
	case "sqlite":
		lite, err := db.OpenSqlite(cfg.SqliteCachePath)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSqliteSchema(ctx, lite); err != nil {
			lite.Close()
			return nil, nil, err
		}
		distanceCache = cache.NewSqliteDistanceCache(lite)
		geocodeCache = cache.NewSqliteGeocodeCache(lite)
		closeFn = func() { lite.Close() }
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %q: %w", cfg.RedisAddr, err)
		}
		distanceCache = cache.NewRedisDistanceCache(client, cfg.RedisCacheTTL)
		geocodeCache = cache.NewRedisGeocodeCache(client)
		closeFn = func() { client.Close() }
	}

	ors, err := distance.NewORSDistanceProvider(cfg.ORSAPIKey, distanceCache, geocodeCache)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return distance.NewBreakerDistanceProvider("ors", ors), closeFn, nil
}
