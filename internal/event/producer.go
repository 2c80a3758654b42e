package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	pkgkafka "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/kafka"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/logger"
)

// Kafka topics owned by the service.
var (
	TopicReviewIngested  = pkgkafka.Topic("review", "ingested")
	TopicReportGenerated = pkgkafka.Topic("analytics", "report_generated")
	TopicRiskDetected    = pkgkafka.Topic("analytics", "risk_detected")
)

// Aggregate type constant.
const AggregateTypeBusiness = "business"

// SourceService identifies events originating from this service.
const SourceService = "stargazer-analytics"

// aggregateID keys events by business; all-business events share one key.
func aggregateID(businessID string) string {
	return domain.ForBusiness(businessID).String()
}

// ReviewIngestedData is the payload for a review.ingested event.
type ReviewIngestedData struct {
	BusinessID string   `json:"business_id"`
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	ReviewIDs  []string `json:"review_ids,omitempty"`
}

// ReportGeneratedData is the payload for an analytics.report_generated event.
type ReportGeneratedData struct {
	BusinessID  string    `json:"business_id"`
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`
	ReviewCount int       `json:"review_count"`
	AvgRating   float64   `json:"avg_rating"`
	RiskCount   int       `json:"risk_count"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
}

// RiskDetectedData is the payload for an analytics.risk_detected event.
type RiskDetectedData struct {
	BusinessID string                    `json:"business_id"`
	From       time.Time                 `json:"from,omitempty"`
	To         time.Time                 `json:"to,omitempty"`
	Risks      []analytics.RiskIndicator `json:"risks"`
}

// Producer publishes analytics domain events to Kafka. A nil Producer, or
// one built without a Kafka producer, drops events silently.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishReviewIngested publishes a review.ingested event.
func (p *Producer) PublishReviewIngested(ctx context.Context, data ReviewIngestedData) error {
	return p.publish(ctx, TopicReviewIngested, data.BusinessID, data)
}

// PublishReportGenerated publishes an analytics.report_generated event.
func (p *Producer) PublishReportGenerated(ctx context.Context, data ReportGeneratedData) error {
	return p.publish(ctx, TopicReportGenerated, data.BusinessID, data)
}

// PublishRiskDetected publishes an analytics.risk_detected event.
func (p *Producer) PublishRiskDetected(ctx context.Context, data RiskDetectedData) error {
	return p.publish(ctx, TopicRiskDetected, data.BusinessID, data)
}

func (p *Producer) publish(ctx context.Context, topic, businessID string, data any) error {
	if !p.Enabled() {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID(businessID), AggregateTypeBusiness, SourceService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("event_id", event.EventID),
		slog.String("business_id", businessID),
	)
	return nil
}
