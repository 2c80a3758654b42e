package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/config"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository/memory"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository/postgres"
	redisrepo "github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository/redis"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository/sqlite"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/migrations"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
)

// memoryReportCacheSize bounds the in-process report cache used without Redis.
const memoryReportCacheSize = 1024

// storage is the review store selected by STORAGE_DRIVER.
type storage struct {
	name       string
	businesses repository.BusinessRepository
	reviews    repository.ReviewRepository
	snapshots  repository.SnapshotRepository
	ping       func(ctx context.Context) error
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("opened SQLite review store", slog.String("path", cfg.SQLitePath))
		return &storage{
			name:       config.StorageSQLite,
			businesses: sqlite.NewBusinessRepository(db),
			reviews:    sqlite.NewReviewRepository(db),
			snapshots:  sqlite.NewSnapshotRepository(db),
			ping:       db.Ping,
			close:      func() { _ = db.Close() },
		}, nil

	default:
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, cfg.ServiceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		if cfg.SlowQueryThresholdMs > 0 {
			database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
		}

		return &storage{
			name:       config.StoragePostgres,
			businesses: postgres.NewBusinessRepository(pool),
			reviews:    postgres.NewReviewRepository(pool),
			snapshots:  postgres.NewSnapshotRepository(pool),
			ping:       pool.Ping,
			close:      pool.Close,
		}, nil
	}
}

// openReportCache returns Redis when configured and reachable, otherwise an
// in-process LFU otherwise. The returned client is nil for the in-process cache.
func openReportCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.ReportCache, *goredis.Client) {
	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, cfg.RedisConfig(), logger)
		if err == nil {
			logger.Info("report cache backed by redis", slog.String("addr", cfg.RedisConfig().Addr()))
			return redisrepo.NewReportCache(client), client
		}
		logger.Warn("redis unavailable, falling back to in-process report cache",
			slog.String("error", err.Error()),
		)
	}
	return memory.NewReportCache(memoryReportCacheSize, cfg.ReportCacheTTL), nil
}
