// Command seed populates a running Star Gazer service with synthetic
// businesses and reviews through the HTTP API. Each business follows a
// steady, declining or improving rating curve so every analysis has
// something to find.
//
// Run: go run ./cmd/seed
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	handler "github.com/Arthurkhan/star-gazer-analysis-sub004/internal/handler/http"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	pkgconfig "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/config"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httpclient"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/logger"
)

type seedConfig struct {
	APIURL             string `env:"SEED_API_URL" envDefault:"http://localhost:8080/api/v1"`
	Token              string `env:"SEED_TOKEN"`
	Businesses         int    `env:"SEED_BUSINESSES" envDefault:"6"`
	ReviewsPerBusiness int    `env:"SEED_REVIEWS_PER_BUSINESS" envDefault:"400"`
	Months             int    `env:"SEED_MONTHS" envDefault:"12"`
	RandomSeed         int64  `env:"SEED_RANDOM_SEED" envDefault:"42"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Businesses < 1 || cfg.ReviewsPerBusiness < 1 || cfg.Months < 1 {
		return fmt.Errorf("SEED_BUSINESSES, SEED_REVIEWS_PER_BUSINESS and SEED_MONTHS must be positive")
	}
	log := logger.New("stargazer-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s := &seeder{
		client: httpclient.New(httpclient.DefaultConfig()),
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		token:  cfg.Token,
	}
	rng := rand.New(rand.NewSource(cfg.RandomSeed)) // #nosec G404 -- reproducible synthetic data
	end := time.Now().UTC().Truncate(24 * time.Hour)

	start := time.Now()
	var inserted, skipped int
	for i := 0; i < cfg.Businesses; i++ {
		req := businessAt(i)
		id, err := s.createBusiness(ctx, req)
		if err != nil {
			return fmt.Errorf("create business %q: %w", req.Name, err)
		}

		pr := profiles[i%len(profiles)]
		reviews := generateReviews(rng, i, pr, cfg.ReviewsPerBusiness, cfg.Months, end)
		for _, batch := range batches(reviews, service.MaxIngestBatch) {
			res, err := s.ingest(ctx, id, batch)
			if err != nil {
				return fmt.Errorf("ingest reviews for %q: %w", req.Name, err)
			}
			inserted += res.Inserted
			skipped += res.Skipped
		}
		log.Info("seeded business",
			slog.String("business_id", id),
			slog.String("name", req.Name),
			slog.String("profile", string(pr)),
			slog.Int("reviews", len(reviews)),
		)
	}

	log.Info("seed complete",
		slog.Int("businesses", cfg.Businesses),
		slog.Int("inserted", inserted),
		slog.Int("skipped", skipped),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

type seeder struct {
	client *httpclient.Client
	apiURL string
	token  string
}

func (s *seeder) post(ctx context.Context, path string, body, dst any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return httpclient.ParseResponseError(resp, "stargazer")
	}
	envelope := struct {
		Data any `json:"data"`
	}{Data: dst}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *seeder) createBusiness(ctx context.Context, req handler.CreateBusinessRequest) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/businesses", req, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (s *seeder) ingest(ctx context.Context, businessID string, reviews []handler.ReviewRequest) (*service.IngestResult, error) {
	var res service.IngestResult
	err := s.post(ctx, "/reviews", handler.IngestReviewsRequest{BusinessID: businessID, Reviews: reviews}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
