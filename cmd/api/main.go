// Package main provides the entry point for the domain registry API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/narvanalabs/domain-registry/internal/api"
	"github.com/narvanalabs/domain-registry/internal/auth"
	"github.com/narvanalabs/domain-registry/internal/domains"
	"github.com/narvanalabs/domain-registry/internal/events"
	"github.com/narvanalabs/domain-registry/internal/metrics"
	"github.com/narvanalabs/domain-registry/internal/shutdown"
	"github.com/narvanalabs/domain-registry/internal/store"
	"github.com/narvanalabs/domain-registry/internal/store/memory"
	pgstore "github.com/narvanalabs/domain-registry/internal/store/postgres"
	"github.com/narvanalabs/domain-registry/internal/validation"
	"github.com/narvanalabs/domain-registry/pkg/config"
	"github.com/narvanalabs/domain-registry/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.FromConfig(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) (err error) {
	closers := shutdown.NewCoordinator(cfg.ShutdownTimeout, log.WithComponent("shutdown").Logger)
	defer func() {
		err = errors.Join(err, closers.Shutdown(context.Background()))
	}()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers.RegisterCloser("store", st)

	if cfg.SeedFile != "" {
		data, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := store.Seed(ctx, st, data); err != nil {
			return err
		}
		log.Info("seed data loaded", "file", cfg.SeedFile, "users", len(data.Users), "apps", len(data.Apps))
	}

	authService := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, st.APIKeys(), st.Users(), log.WithComponent("auth").Logger)

	// Without Redis the broker receives events directly. With Redis every
	// instance publishes there and relays the channel into its own broker.
	broker := events.NewBroker(log.WithComponent("events").Logger)
	var (
		publisher events.Publisher = broker
		redisPub  *events.RedisPublisher
	)
	if cfg.Redis.Addr != "" {
		redisPub = events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		closers.RegisterCloser("redis", redisPub)
		publisher = redisPub
	}

	domainService := domains.New(st,
		auth.NewGate(st.Apps(), st.Orgs(), log.WithComponent("gate").Logger),
		domains.WithLogger(log.WithComponent("domains").Logger),
		domains.WithValidator(validation.NewHostnameValidator(cfg.ReservedDomainSuffixes)),
		domains.WithPublisher(publisher),
		domains.WithMetrics(metrics.New(prometheus.DefaultRegisterer)),
	)

	server := api.NewServer(cfg, st, authService, domainService, broker, log.WithComponent("api").Logger)
	if redisPub != nil {
		server.HealthChecker().AddOptional("redis", redisPub)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	if redisPub != nil {
		g.Go(func() error {
			redisPub.Relay(ctx, broker, log.WithComponent("relay").Logger)
			return nil
		})
	}
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.DriverPostgres:
		pg, err := pgstore.NewPostgresStore(pgstore.DefaultConfig(cfg.DatabaseDSN), log.WithComponent("store").Logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
