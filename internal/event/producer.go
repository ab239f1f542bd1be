package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/review-service/internal/domain"
	pkgkafka "github.com/utafrali/review-service/pkg/kafka"
	"github.com/utafrali/review-service/pkg/logger"
)

// Kafka topics for review domain events.
const (
	TopicReviewCreated  = "ecommerce.review.created"
	TopicReviewUpdated  = "ecommerce.review.updated"
	TopicReviewDeleted  = "ecommerce.review.deleted"
	TopicReviewReported = "ecommerce.review.reported"
	TopicReviewVoted    = "ecommerce.review.voted"
)

const (
	AggregateTypeReview = "review"
	SourceReviewService = "review-service"
)

// ReviewData is the payload of review.created, review.updated and
// review.deleted.
type ReviewData struct {
	ID          string             `json:"id"`
	ProductID   string             `json:"product_id"`
	AuthorID    string             `json:"author_id"`
	Rating      int                `json:"rating"`
	State       domain.ReviewState `json:"state"`
	IsViolation bool               `json:"is_violation"`
	DeletedBy   string             `json:"deleted_by,omitempty"`
}

// ReviewReportedData is the payload of review.reported.
type ReviewReportedData struct {
	ReportID     string `json:"report_id"`
	ReviewID     string `json:"review_id"`
	ProductID    string `json:"product_id"`
	ReporterID   string `json:"reporter_id"`
	Reason       string `json:"reason"`
	ReportsCount int    `json:"reports_count"`
}

// ReviewVotedData is the payload of review.voted.
type ReviewVotedData struct {
	ReviewID string `json:"review_id"`
	VoterID  string `json:"voter_id"`
	Value    int    `json:"value"`
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:          r.ID,
		ProductID:   r.ProductID,
		AuthorID:    r.AuthorID,
		Rating:      r.Rating,
		State:       r.State,
		IsViolation: r.IsViolation,
		DeletedBy:   r.DeletedBy(),
	}
}

// Publisher is the part of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a review event producer on top of kafka.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// publish wraps data in an envelope keyed by aggregateID. metadata is a
// flat list of key, value pairs.
func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any, metadata ...string) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	for i := 0; i+1 < len(metadata); i += 2 {
		evt.WithMetadata(metadata[i], metadata[i+1])
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", aggregateID),
		slog.String("event_id", evt.EventID),
	)
	return nil
}

// PublishReviewCreated publishes review.created.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, reviewData(r))
}

// PublishReviewUpdated publishes review.updated.
func (p *Producer) PublishReviewUpdated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, r.ID, reviewData(r))
}

// PublishReviewDeleted publishes review.deleted for either deletion path.
// The deleter is also set as the deleted_by metadata entry.
func (p *Producer) PublishReviewDeleted(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, r.ID, reviewData(r), "deleted_by", r.DeletedBy())
}

// PublishReviewReported publishes review.reported.
func (p *Producer) PublishReviewReported(ctx context.Context, r *domain.Review, rep *domain.Report) error {
	return p.publish(ctx, TopicReviewReported, r.ID, ReviewReportedData{
		ReportID:     rep.ID,
		ReviewID:     r.ID,
		ProductID:    r.ProductID,
		ReporterID:   rep.ReporterID,
		Reason:       rep.Reason,
		ReportsCount: r.ReportsCount,
	})
}

// PublishReviewVoted publishes review.voted.
func (p *Producer) PublishReviewVoted(ctx context.Context, v *domain.Vote) error {
	return p.publish(ctx, TopicReviewVoted, v.ReviewID, ReviewVotedData{
		ReviewID: v.ReviewID,
		VoterID:  v.VoterID,
		Value:    int(v.Value),
	})
}

// Discard drops every event. It stands in for Producer when Kafka is
// disabled.
type Discard struct{}

func (Discard) PublishReviewCreated(context.Context, *domain.Review) error { return nil }
func (Discard) PublishReviewUpdated(context.Context, *domain.Review) error { return nil }
func (Discard) PublishReviewDeleted(context.Context, *domain.Review) error { return nil }
func (Discard) PublishReviewReported(context.Context, *domain.Review, *domain.Report) error {
	return nil
}
func (Discard) PublishReviewVoted(context.Context, *domain.Vote) error { return nil }
