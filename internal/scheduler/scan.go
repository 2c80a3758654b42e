package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/logger"
)

// RiskScanJob is the name the risk scan is registered under.
const RiskScanJob = "risk-scan"

// BusinessLister lists the businesses to scan.
type BusinessLister interface {
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
}

// Snapshotter analyzes a query and persists the result.
type Snapshotter interface {
	CreateSnapshot(ctx context.Context, q service.Query) (*domain.Snapshot, error)
}

// ScanResult summarizes one risk scan.
type ScanResult struct {
	Window  domain.DateRange `json:"window"`
	Scanned int              `json:"scanned"`
	Failed  int              `json:"failed"`
	AtRisk  int              `json:"at_risk"`
}

// RiskScanner snapshots every business over a trailing window, judging
// seasonal risk against the month the scan runs in. Snapshot creation
// publishes risk_detected for businesses with indicators.
type RiskScanner struct {
	businesses  BusinessLister
	snapshots   Snapshotter
	windowDays  int
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewRiskScanner creates a scanner over the trailing windowDays, scanning up
// to concurrency businesses at once.
func NewRiskScanner(businesses BusinessLister, snapshots Snapshotter, windowDays, concurrency int, logger *slog.Logger) *RiskScanner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RiskScanner{
		businesses:  businesses,
		snapshots:   snapshots,
		windowDays:  windowDays,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Scan snapshots every business. A failing business does not stop the
// others; all failures are joined into the returned error.
func (s *RiskScanner) Scan(ctx context.Context) (ScanResult, error) {
	now := s.now()
	window := domain.TrailingDays(now, s.windowDays)
	result := ScanResult{Window: window}

	list, err := s.businesses.ListBusinesses(ctx)
	if err != nil {
		return result, fmt.Errorf("list businesses: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, b := range list {
		g.Go(func() error {
			bctx := logger.WithBusinessID(gctx, b.ID)
			snap, err := s.snapshots.CreateSnapshot(bctx, service.Query{
				Business:  domain.ForBusiness(b.ID),
				Range:     window,
				Reference: now,
			})

			mu.Lock()
			defer mu.Unlock()
			result.Scanned++
			if err != nil {
				result.Failed++
				businessesScanned.WithLabelValues("error").Inc()
				errs = append(errs, fmt.Errorf("business %s: %w", b.ID, err))
				s.logger.ErrorContext(bctx, "risk scan failed for business",
					slog.String("business_id", b.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			businessesScanned.WithLabelValues("ok").Inc()
			if snap.RiskCount > 0 {
				result.AtRisk++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.InfoContext(ctx, "risk scan finished",
		slog.String("window", window.String()),
		slog.Int("scanned", result.Scanned),
		slog.Int("failed", result.Failed),
		slog.Int("at_risk", result.AtRisk),
	)
	return result, errors.Join(errs...)
}

// Job adapts Scan to the scheduler.
func (s *RiskScanner) Job() Job {
	return func(ctx context.Context) error {
		_, err := s.Scan(ctx)
		return err
	}
}
