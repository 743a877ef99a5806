package out

import (
	"context"

	"newsroom/core/domain"
)

// MetricRepository persists the configurable scoring dimensions.
type MetricRepository interface {
	ListActive(ctx context.Context) ([]domain.AiMetric, error)
}

// ScoreRepository persists per-metric and per-review scores.
type ScoreRepository interface {
	// UpsertReview replaces any existing InfoAiReview + InfoAiScore rows
	// for (info, evaluator_key) with the given review and scores, in one
	// transaction (§4.3 "article stored exactly once").
	UpsertReview(ctx context.Context, review domain.InfoAiReview, scores []domain.InfoAiScore) error
	GetReview(ctx context.Context, infoID int64, evaluatorKey string) (*domain.InfoAiReview, error)
	ListScores(ctx context.Context, infoID int64, evaluatorKey string) ([]domain.InfoAiScore, error)
}
