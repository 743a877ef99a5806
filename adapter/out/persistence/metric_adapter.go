package persistence

import (
	"context"

	"newsroom/core/domain"
	"newsroom/core/port/out"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// MetricAdapter implements out.MetricRepository using PostgreSQL.
type MetricAdapter struct {
	db *sqlx.DB
}

// NewMetricAdapter creates a new MetricAdapter.
func NewMetricAdapter(db *sqlx.DB) *MetricAdapter {
	return &MetricAdapter{db: db}
}

type metricRow struct {
	ID            int64   `db:"id"`
	Key           string  `db:"key"`
	Label         string  `db:"label"`
	RateGuide     string  `db:"rate_guide"`
	DefaultWeight float64 `db:"default_weight"`
	Active        bool    `db:"active"`
	SortOrder     int     `db:"sort_order"`
}

func (r metricRow) toDomain() domain.AiMetric {
	return domain.AiMetric{
		ID: r.ID, Key: r.Key, Label: r.Label, RateGuide: r.RateGuide,
		DefaultWeight: r.DefaultWeight, Active: r.Active, SortOrder: r.SortOrder,
	}
}

func (a *MetricAdapter) ListActive(ctx context.Context) ([]domain.AiMetric, error) {
	var rows []metricRow
	query := `SELECT id, key, label, rate_guide, default_weight, active, sort_order
		FROM ai_metrics WHERE active ORDER BY sort_order, id`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make([]domain.AiMetric, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

var _ out.MetricRepository = (*MetricAdapter)(nil)

// ScoreAdapter implements out.ScoreRepository using PostgreSQL, backed
// directly by a pgxpool.Pool so UpsertReview can run its writes in one
// transaction (§4.3 "Commit after each article to bound loss on crash").
type ScoreAdapter struct {
	pool *pgxpool.Pool
}

// NewScoreAdapter creates a new ScoreAdapter.
func NewScoreAdapter(pool *pgxpool.Pool) *ScoreAdapter {
	return &ScoreAdapter{pool: pool}
}

func (a *ScoreAdapter) UpsertReview(ctx context.Context, review domain.InfoAiReview, scores []domain.InfoAiScore) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range scores {
		if _, err := tx.Exec(ctx, `
			INSERT INTO info_ai_scores (info_id, metric_id, score) VALUES ($1, $2, $3)
			ON CONFLICT (info_id, metric_id) DO UPDATE SET score = EXCLUDED.score`,
			s.InfoID, s.MetricID, s.Score); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO info_ai_reviews (
			info_id, evaluator_key, final_score, ai_comment, ai_summary,
			ai_summary_long, ai_key_concepts, raw_response, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (info_id, evaluator_key) DO UPDATE SET
			final_score = EXCLUDED.final_score,
			ai_comment = EXCLUDED.ai_comment,
			ai_summary = EXCLUDED.ai_summary,
			ai_summary_long = EXCLUDED.ai_summary_long,
			ai_key_concepts = EXCLUDED.ai_key_concepts,
			raw_response = EXCLUDED.raw_response,
			updated_at = NOW()`,
		review.InfoID, review.EvaluatorKey, review.FinalScore, review.AiComment, review.AiSummary,
		review.AiSummaryLong, pq.Array(review.AiKeyConcepts), review.RawResponse)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (a *ScoreAdapter) GetReview(ctx context.Context, infoID int64, evaluatorKey string) (*domain.InfoAiReview, error) {
	row := a.pool.QueryRow(ctx, `
		SELECT info_id, evaluator_key, final_score, ai_comment, ai_summary, ai_summary_long, ai_key_concepts, raw_response
		FROM info_ai_reviews WHERE info_id = $1 AND evaluator_key = $2`, infoID, evaluatorKey)

	var r domain.InfoAiReview
	var concepts pq.StringArray
	if err := row.Scan(&r.InfoID, &r.EvaluatorKey, &r.FinalScore, &r.AiComment, &r.AiSummary,
		&r.AiSummaryLong, &concepts, &r.RawResponse); err != nil {
		return nil, err
	}
	r.AiKeyConcepts = []string(concepts)
	return &r, nil
}

func (a *ScoreAdapter) ListScores(ctx context.Context, infoID int64, evaluatorKey string) ([]domain.InfoAiScore, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT s.info_id, s.metric_id, s.score
		FROM info_ai_scores s
		JOIN info_ai_reviews r ON r.info_id = s.info_id
		WHERE s.info_id = $1 AND r.evaluator_key = $2`, infoID, evaluatorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InfoAiScore
	for rows.Next() {
		var s domain.InfoAiScore
		if err := rows.Scan(&s.InfoID, &s.MetricID, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ out.ScoreRepository = (*ScoreAdapter)(nil)
