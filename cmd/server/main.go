package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"namedex/internal/platform/config"
	"namedex/internal/platform/httpserver"
	kafkaconsumer "namedex/internal/platform/kafka/consumer"
	"namedex/internal/platform/logger"
	platformredis "namedex/internal/platform/redis"
	"namedex/internal/rebuild"
	rebuildmetrics "namedex/internal/rebuild/metrics"
	regstore "namedex/internal/registry/store"
	"namedex/internal/resolver"
	resolvermetrics "namedex/internal/resolver/metrics"
	httptransport "namedex/internal/transport/http"
	variantmetrics "namedex/internal/variant/metrics"
	variantstore "namedex/internal/variant/store"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("namedex exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	variantMetrics := variantmetrics.New()
	resolverMetrics := resolvermetrics.New()
	rebuildMetrics := rebuildmetrics.New()

	var (
		source    regstore.PersonSource
		directory regstore.PersonDirectory
		variants  variantstore.Store
		health    = make(map[string]httptransport.HealthChecker)
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}

		pg := regstore.NewPostgres(db)
		vs := variantstore.NewPostgres(db, cfg.QueryTimeout, variantMetrics)
		// The registry tables are owned upstream; only the variant index is
		// ours to create.
		if err := vs.EnsureSchema(ctx); err != nil {
			return err
		}

		source, directory, variants = pg, pg, vs
		health["postgres"] = dbHealth{db: db}
	} else {
		log.Warn("no postgres configured, using in-memory stores; data will not survive restarts")
		mem := regstore.NewMemory()
		source, directory = mem, mem
		variants = variantstore.NewMemory()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var locker rebuild.Locker
	if redisClient != nil {
		defer redisClient.Close()
		locker = rebuild.NewRedisLocker(redisClient, cfg.RebuildLockTTL)
		health["redis"] = redisClient
	} else {
		log.Warn("no redis configured, rebuild lock is process-local only")
		locker = rebuild.NewMutexLocker()
	}

	rebuilds := rebuild.New(source, variants, locker, log, rebuildMetrics)
	resolvers, err := resolver.NewFactory(variants, directory, cfg.ResolveCacheSize, log, resolverMetrics)
	if err != nil {
		return fmt.Errorf("build resolver factory: %w", err)
	}

	handler := httptransport.NewHandler(resolvers, rebuilds, health, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, cfg.JWTSigningKey, log))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting namedex", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.KafkaBrokers,
			Group:   cfg.KafkaGroup,
			Topics:  []string{cfg.KafkaTopic},
		}, rebuild.NewChangeHandler(rebuilds, log), log)
		if err != nil {
			return err
		}
		defer consumer.Close()

		g.Go(func() error {
			log.Info("consuming registry changes", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroup)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("namedex stopped")
	return nil
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
