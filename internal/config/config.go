package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	pkgconfig "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/config"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/tracing"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds all configuration for the analytics service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"stargazer"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	JWTSecret       string        `env:"JWT_SECRET"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ResponseMaxAge  time.Duration `env:"RESPONSE_MAX_AGE" envDefault:"60s"`

	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"stargazer.db"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"stargazer"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"stargazer_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"stargazer"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis report cache; an empty host disables it.
	RedisHost      string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort      int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"10m"`

	// Kafka; no brokers disables publishing and consuming.
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"stargazer-analytics"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Scheduled risk scan
	SchedulerEnabled bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	ScanSchedule     string `env:"SCAN_SCHEDULE" envDefault:"0 3 * * *"`
	ScanWindowDays   int    `env:"SCAN_WINDOW_DAYS" envDefault:"90"`
	ScanConcurrency  int    `env:"SCAN_CONCURRENCY" envDefault:"4"`

	// Recommendations
	AIProvider         string        `env:"AI_PROVIDER" envDefault:"none"`
	AITimeout          time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	AnthropicAPIKey    string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel     string        `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel        string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	RecommendCacheSize int           `env:"RECOMMEND_CACHE_SIZE" envDefault:"256"`
	RecommendCacheTTL  time.Duration `env:"RECOMMEND_CACHE_TTL" envDefault:"30m"`

	// PDF export through a headless Chrome; empty disables PDF.
	ChromeURL  string        `env:"CHROME_URL"`
	PDFTimeout time.Duration `env:"PDF_TIMEOUT" envDefault:"30s"`

	// Analytics thresholds; ParamsFile overlays a TOML document on top.
	Analytics  analytics.Params `envPrefix:"ANALYTICS_"`
	ParamsFile string           `env:"ANALYTICS_PARAMS_FILE"`
}

// Load reads configuration from environment variables and the optional
// analytics params file, then validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load stargazer config: %w", err)
	}
	if cfg.ParamsFile != "" {
		if err := LoadParamsFile(cfg.ParamsFile, &cfg.Analytics); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadParamsFile overlays the TOML file at path onto p.
func LoadParamsFile(path string, p *analytics.Params) error {
	if err := pkgconfig.LoadTOMLFile(path, p); err != nil {
		return fmt.Errorf("load analytics params: %w", err)
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	switch c.StorageDriver {
	case StoragePostgres:
		if c.PostgresHost == "" {
			errs = append(errs, errors.New("POSTGRES_HOST is required"))
		}
		if c.PostgresUser == "" {
			errs = append(errs, errors.New("POSTGRES_USER is required"))
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageSQLite, c.StorageDriver))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate))
	}
	if c.ScanWindowDays < 1 {
		errs = append(errs, fmt.Errorf("SCAN_WINDOW_DAYS must be positive, got %d", c.ScanWindowDays))
	}
	if c.ScanConcurrency < 1 {
		errs = append(errs, fmt.Errorf("SCAN_CONCURRENCY must be positive, got %d", c.ScanConcurrency))
	}
	if c.RecommendCacheSize < 1 {
		errs = append(errs, fmt.Errorf("RECOMMEND_CACHE_SIZE must be positive, got %d", c.RecommendCacheSize))
	}
	switch c.AIProvider {
	case ProviderNone:
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	case ProviderOpenAI:
		if c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_BASE_URL is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be none, anthropic or openai, got %q", c.AIProvider))
	}
	if err := c.Analytics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analytics params: %w", err))
	}
	return errors.Join(errs...)
}

// PostgresConfig returns the pool settings for database.NewPostgresPool.
func (c *Config) PostgresConfig() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// RedisConfig returns the redis connection settings.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// TracingConfig returns the OpenTelemetry settings.
func (c *Config) TracingConfig() tracing.Config {
	return tracing.Config{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		Insecure:       c.OTELInsecure,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}

// KafkaEnabled reports whether brokers are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// RedisEnabled reports whether the report cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}
