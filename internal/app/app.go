package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/cache"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/config"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/event"
	handler "github.com/Arthurkhan/star-gazer-analysis-sub004/internal/handler/http"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend/providers"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/report"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/scheduler"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/health"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httpclient"
	pkgkafka "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/kafka"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/tracing"
)

// App wires together all dependencies and runs the analytics service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	storage        *storage
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	reviewIngested *pkgkafka.Consumer
	scheduler      *scheduler.Scheduler
	httpServer     *http.Server
	cancelRouter   context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.TracingConfig())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	reportCache, redisClient := openReportCache(ctx, cfg, logger)

	// Kafka is optional; without brokers events are dropped.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
	}
	eventProducer := event.NewProducer(producer, logger)

	recommender := recommend.NewService(
		newProvider(cfg, logger),
		cache.NewLFU[recommend.Result](cfg.RecommendCacheSize, cfg.RecommendCacheTTL),
		cfg.AITimeout,
		logger,
	)

	// Build the dependency graph.
	businessService := service.NewBusinessService(store.businesses, logger)
	reviewService := service.NewReviewService(store.reviews, store.businesses, eventProducer, logger, reportCache, recommender)
	analyticsService := service.NewAnalyticsService(service.AnalyticsDeps{
		Reviews:     store.reviews,
		Businesses:  store.businesses,
		Snapshots:   store.snapshots,
		Cache:       reportCache,
		CacheTTL:    cfg.ReportCacheTTL,
		Engine:      analytics.NewEngine(cfg.Analytics),
		Recommender: recommender,
		Producer:    eventProducer,
		Logger:      logger,
	})

	var pdf report.PDFRenderer
	if cfg.ChromeURL != "" {
		pdf = report.NewChromePDF(cfg.ChromeURL, cfg.PDFTimeout, logger)
		logger.Info("pdf export enabled", slog.String("chrome_url", cfg.ChromeURL))
	}
	exporter, err := report.NewExporter(pdf)
	if err != nil {
		store.close()
		return nil, fmt.Errorf("build report exporter: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		storage:        store,
		redis:          redisClient,
		producer:       producer,
		tracerShutdown: tracerShutdown,
	}

	// Other replicas invalidate their caches from review.ingested events.
	if producer != nil {
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.reviewIngested = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaConsumerGroup,
			Topic:    event.TopicReviewIngested,
			MinBytes: 1,
			MaxBytes: 10e6,
		},
			pkgkafka.IdempotentHandler(newIdempotencyStore(redisClient), event.NewReviewIngestedHandler(logger, reportCache, recommender), logger),
			logger,
			pkgkafka.WithDeadLetter(a.dlq),
		)
	}

	if cfg.SchedulerEnabled {
		a.scheduler = scheduler.New(time.UTC, logger)
		scanner := scheduler.NewRiskScanner(businessService, analyticsService, cfg.ScanWindowDays, cfg.ScanConcurrency, logger)
		if err := a.scheduler.AddJob(scheduler.RiskScanJob, cfg.ScanSchedule, scanner.Job()); err != nil {
			store.close()
			return nil, fmt.Errorf("schedule risk scan: %w", err)
		}
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register(store.name, store.ping)
	if redisClient != nil {
		healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	// HTTP router.
	routerCtx, cancelRouter := context.WithCancel(context.Background())
	a.cancelRouter = cancelRouter
	router := handler.NewRouter(routerCtx, handler.Services{
		Businesses: businessService,
		Reviews:    reviewService,
		Analytics:  analyticsService,
		Exporter:   exporter,
		Health:     healthHandler,
	}, handler.RouterConfig{
		ServiceName:       cfg.ServiceName,
		CORSOrigins:       cfg.CORSOrigins,
		JWTSecret:         cfg.JWTSecret,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		ResponseMaxAge:    cfg.ResponseMaxAge,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.PDFTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// newProvider returns the recommendation provider named by AI_PROVIDER, or
// nil when recommendations always use the rule-based fallback.
func newProvider(cfg *config.Config, logger *slog.Logger) recommend.Provider {
	switch cfg.AIProvider {
	case config.ProviderAnthropic:
		logger.Info("recommendations via anthropic", slog.String("model", cfg.AnthropicModel))
		return providers.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case config.ProviderOpenAI:
		logger.Info("recommendations via openai-compatible endpoint",
			slog.String("base_url", cfg.OpenAIBaseURL),
			slog.String("model", cfg.OpenAIModel),
		)
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = cfg.AITimeout
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpCfg),
			httpclient.DefaultCircuitBreakerConfig("openai"),
			logger,
		)
		return providers.NewOpenAIProvider(client, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil
	}
}

// newIdempotencyStore shares processed event IDs through Redis when it is
// available so replicas in one consumer group skip the same redeliveries.
func newIdempotencyStore(client *goredis.Client) pkgkafka.IdempotencyStore {
	if client != nil {
		return pkgkafka.NewRedisIdempotencyStore(client, "stargazer:events:", 24*time.Hour)
	}
	return pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
}

// Run starts the HTTP server, the Kafka consumer and the scheduler, then
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Kafka consumer.
	if a.reviewIngested != nil {
		go func() {
			if err := a.reviewIngested.Start(ctx); err != nil {
				errCh <- fmt.Errorf("review ingested consumer: %w", err)
			}
		}()
	}

	if a.scheduler != nil {
		a.scheduler.Start()
		for _, job := range a.scheduler.Jobs() {
			a.logger.Info("scheduled job",
				slog.String("job", job.Name),
				slog.Time("next_run", job.NextRun),
			)
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Scheduler (wait for a running scan)
// 3. Tracer (flush pending spans)
// 4. Kafka consumer, dead letter and event producers
// 5. Redis client
// 6. Review store
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.cancelRouter()

	// 2. Let a running risk scan finish within the same budget.
	if a.scheduler != nil {
		if err := a.scheduler.Stop(httpCtx); err != nil {
			a.logger.Error("scheduler stop error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Flush pending spans after the drain so request and scan spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Kafka clients.
	if a.reviewIngested != nil {
		if err := a.reviewIngested.Close(); err != nil {
			a.logger.Error("review ingested consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dead letter producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close Redis.
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 6. Close the review store.
	a.storage.close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt < 2 {
			base := time.Duration(1<<uint(attempt)) * time.Second
			jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
			wait := base + jitter
			logger.Warn("kafka producer ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", 3),
				slog.Duration("backoff", wait),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("kafka producer ping failed after 3 attempts: %w", lastErr)
}
