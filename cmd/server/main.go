package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bighelpmob/missionhub/internal/config"
	"github.com/bighelpmob/missionhub/internal/database"
	"github.com/bighelpmob/missionhub/internal/handler/health"
	"github.com/bighelpmob/missionhub/internal/i18n"
	"github.com/bighelpmob/missionhub/internal/mailer"
	"github.com/bighelpmob/missionhub/internal/mailqueue"
	"github.com/bighelpmob/missionhub/internal/migrations"
	"github.com/bighelpmob/missionhub/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if cfg.DBPath != database.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath, database.WithBusyTimeout(cfg.DBBusyTimeout))
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, err := migrations.Version(ctx, db)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

	store := server.NewSQLiteStore(db)
	if cfg.AdminEmail != "" {
		created, err := store.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("ensuring admin: %w", err)
		}
		if created {
			logger.Info("initial admin created", "email", cfg.AdminEmail)
		}
	}
	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, store); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}
	roles, err := store.Roles(ctx)
	if err != nil {
		return fmt.Errorf("loading roles: %w", err)
	}

	// --- Redis ---
	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	// --- Mail ---
	var sender mailer.Sender = mailer.NewLogSender(logger)
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom, logger)
	} else {
		logger.Warn("RESEND_API_KEY not set, outgoing mail will only be logged")
	}
	queue := mailqueue.New(rdb, cfg.MailQueueKey)
	worker := mailqueue.NewWorker(queue, mailer.New(sender, cfg.MailFrom, logger), logger)

	// --- HTTP Server ---
	srv := server.New(server.Options{
		Addr:       cfg.HTTPAddr,
		Logger:     logger,
		Store:      store,
		Delivery:   queue,
		Translator: i18n.New(cfg.Locale),
		Roles:      roles,
		SPADir:     cfg.SPADir,
		Health: health.NewHandler(logger, map[string]health.Checker{
			"sqlite": dbChecker{db},
			"redis":  redisChecker{rdb},
		}).Routes(),
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting mail worker", "key", cfg.MailQueueKey)
		return worker.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
