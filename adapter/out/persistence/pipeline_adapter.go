package persistence

import (
	"context"
	"database/sql"

	"newsroom/core/domain"
	"newsroom/core/port/out"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PipelineAdapter implements out.PipelineRepository using PostgreSQL.
type PipelineAdapter struct {
	db *sqlx.DB
}

// NewPipelineAdapter creates a new PipelineAdapter.
func NewPipelineAdapter(db *sqlx.DB) *PipelineAdapter {
	return &PipelineAdapter{db: db}
}

type pipelineRow struct {
	ID              int64         `db:"id"`
	Name            string        `db:"name"`
	Enabled         bool          `db:"enabled"`
	DebugEnabled    bool          `db:"debug_enabled"`
	EvaluatorKey    string        `db:"evaluator_key"`
	PipelineClassID int64         `db:"pipeline_class_id"`
	Weekdays        pq.Int64Array `db:"weekdays"`
	Description     string        `db:"description"`
}

func (a *PipelineAdapter) GetByID(ctx context.Context, id int64) (*domain.Pipeline, error) {
	var r pipelineRow
	query := `SELECT id, name, enabled, debug_enabled, evaluator_key, pipeline_class_id, weekdays, description
		FROM pipelines WHERE id = $1`
	if err := a.db.GetContext(ctx, &r, query, id); err != nil {
		return nil, err
	}
	return rowToPipeline(r), nil
}

func (a *PipelineAdapter) GetByName(ctx context.Context, name string) (*domain.Pipeline, error) {
	var r pipelineRow
	query := `SELECT id, name, enabled, debug_enabled, evaluator_key, pipeline_class_id, weekdays, description
		FROM pipelines WHERE name = $1`
	if err := a.db.GetContext(ctx, &r, query, name); err != nil {
		return nil, err
	}
	return rowToPipeline(r), nil
}

func (a *PipelineAdapter) List(ctx context.Context) ([]domain.Pipeline, error) {
	var rows []pipelineRow
	query := `SELECT id, name, enabled, debug_enabled, evaluator_key, pipeline_class_id, weekdays, description
		FROM pipelines ORDER BY id ASC`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make([]domain.Pipeline, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToPipeline(r))
	}
	return out, nil
}

func rowToPipeline(r pipelineRow) *domain.Pipeline {
	p := &domain.Pipeline{
		ID: r.ID, Name: r.Name, Enabled: r.Enabled, DebugEnabled: r.DebugEnabled,
		EvaluatorKey: r.EvaluatorKey, PipelineClassID: r.PipelineClassID, Description: r.Description,
	}
	if r.Weekdays != nil {
		days := make([]int, len(r.Weekdays))
		for i, d := range r.Weekdays {
			days[i] = int(d)
		}
		p.Weekdays = domain.NormalizeWeekdays(days)
	}
	return p
}

func (a *PipelineAdapter) GetClass(ctx context.Context, classID int64) (*domain.PipelineClass, error) {
	var row struct {
		ID         int64          `db:"id"`
		Key        string         `db:"key"`
		Categories pq.StringArray `db:"categories"`
		Evaluators pq.StringArray `db:"evaluators"`
		Writers    pq.StringArray `db:"writers"`
	}
	query := `SELECT id, key, categories, evaluators, writers FROM pipeline_classes WHERE id = $1`
	if err := a.db.GetContext(ctx, &row, query, classID); err != nil {
		return nil, err
	}
	return &domain.PipelineClass{
		ID: row.ID, Key: row.Key,
		Categories: []string(row.Categories),
		Evaluators: []string(row.Evaluators),
		Writers:    []string(row.Writers),
	}, nil
}

func (a *PipelineAdapter) GetFilters(ctx context.Context, pipelineID int64) (*domain.PipelineFilters, error) {
	var row struct {
		PipelineID    int64          `db:"pipeline_id"`
		AllCategories bool           `db:"all_categories"`
		Categories    pq.StringArray `db:"categories"`
		AllSrc        bool           `db:"all_src"`
		IncludeSrc    pq.StringArray `db:"include_src"`
	}
	query := `SELECT pipeline_id, all_categories, categories, all_src, include_src
		FROM pipeline_filters WHERE pipeline_id = $1`
	if err := a.db.GetContext(ctx, &row, query, pipelineID); err != nil {
		return nil, err
	}
	return &domain.PipelineFilters{
		PipelineID: row.PipelineID, AllCategories: row.AllCategories,
		Categories: []string(row.Categories), AllSrc: row.AllSrc,
		IncludeSrc: []string(row.IncludeSrc),
	}, nil
}

func (a *PipelineAdapter) GetWriter(ctx context.Context, pipelineID int64) (*domain.PipelineWriter, error) {
	var row struct {
		PipelineID       int64  `db:"pipeline_id"`
		Type             string `db:"type"`
		Hours            int    `db:"hours"`
		WeightsJSON      []byte `db:"weights_json"`
		SourceBonusJSON  []byte `db:"source_bonus_json"`
		LimitPerCategory []byte `db:"limit_per_category"`
		PerSourceCap     int    `db:"per_source_cap"`
		MinScore         float64 `db:"min_score"`
	}
	query := `SELECT pipeline_id, type, hours, weights_json, source_bonus_json, limit_per_category, per_source_cap, min_score
		FROM pipeline_writers WHERE pipeline_id = $1`
	if err := a.db.GetContext(ctx, &row, query, pipelineID); err != nil {
		return nil, err
	}

	w := &domain.PipelineWriter{
		PipelineID: row.PipelineID, Type: row.Type, Hours: row.Hours,
		PerSourceCap: row.PerSourceCap, MinScore: row.MinScore,
	}
	if len(row.WeightsJSON) > 0 {
		w.Weights = map[string]float64{}
		_ = json.Unmarshal(row.WeightsJSON, &w.Weights)
	}
	if len(row.SourceBonusJSON) > 0 {
		w.SourceBonus = map[string]float64{}
		_ = json.Unmarshal(row.SourceBonusJSON, &w.SourceBonus)
	}
	if len(row.LimitPerCategory) > 0 {
		w.LimitPerCategory = map[string]int{}
		_ = json.Unmarshal(row.LimitPerCategory, &w.LimitPerCategory)
	}
	return w, nil
}

func (a *PipelineAdapter) GetDeliveryEmail(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryEmail, error) {
	var d domain.PipelineDeliveryEmail
	query := `SELECT pipeline_id, email, subject_tpl FROM pipeline_delivery_emails WHERE pipeline_id = $1`
	err := a.db.GetContext(ctx, &d, query, pipelineID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *PipelineAdapter) GetDeliveryChat(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryChat, error) {
	var d domain.PipelineDeliveryChat
	query := `SELECT pipeline_id, app_id, app_secret, to_all_chat, chat_id, title_tpl
		FROM pipeline_delivery_chats WHERE pipeline_id = $1`
	err := a.db.GetContext(ctx, &d, query, pipelineID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var _ out.PipelineRepository = (*PipelineAdapter)(nil)
