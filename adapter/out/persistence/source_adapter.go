package persistence

import (
	"context"
	"database/sql"
	"time"

	"newsroom/core/domain"
	"newsroom/core/port/out"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SourceAdapter implements out.SourceRepository using PostgreSQL.
type SourceAdapter struct {
	db *sqlx.DB
}

// NewSourceAdapter creates a new SourceAdapter.
func NewSourceAdapter(db *sqlx.DB) *SourceAdapter {
	return &SourceAdapter{db: db}
}

const sourceSelectColumns = `id, key, label, category_key, script_path, enabled, addresses`

type sourceRow struct {
	ID          int64          `db:"id"`
	Key         string         `db:"key"`
	Label       string         `db:"label"`
	CategoryKey string         `db:"category_key"`
	ScriptPath  string         `db:"script_path"`
	Enabled     bool           `db:"enabled"`
	Addresses   pq.StringArray `db:"addresses"`
}

func (r sourceRow) toDomain() domain.Source {
	return domain.Source{
		ID:          r.ID,
		Key:         r.Key,
		Label:       r.Label,
		CategoryKey: r.CategoryKey,
		ScriptPath:  r.ScriptPath,
		Enabled:     r.Enabled,
		Addresses:   []string(r.Addresses),
	}
}

func (a *SourceAdapter) List(ctx context.Context) ([]domain.Source, error) {
	var rows []sourceRow
	query := `SELECT ` + sourceSelectColumns + ` FROM sources ORDER BY id`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make([]domain.Source, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (a *SourceAdapter) ListEnabled(ctx context.Context) ([]domain.Source, error) {
	var rows []sourceRow
	query := `SELECT ` + sourceSelectColumns + ` FROM sources WHERE enabled ORDER BY id`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make([]domain.Source, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (a *SourceAdapter) GetByKey(ctx context.Context, key string) (*domain.Source, error) {
	var r sourceRow
	query := `SELECT ` + sourceSelectColumns + ` FROM sources WHERE key = $1`
	if err := a.db.GetContext(ctx, &r, query, key); err != nil {
		return nil, err
	}
	d := r.toDomain()
	return &d, nil
}

var _ out.SourceRepository = (*SourceAdapter)(nil)

// SourceRunAdapter implements out.SourceRunRepository using PostgreSQL.
type SourceRunAdapter struct {
	db *sqlx.DB
}

// NewSourceRunAdapter creates a new SourceRunAdapter.
func NewSourceRunAdapter(db *sqlx.DB) *SourceRunAdapter {
	return &SourceRunAdapter{db: db}
}

func (a *SourceRunAdapter) GetLastRun(ctx context.Context, sourceID int64) (time.Time, error) {
	var t sql.NullTime
	err := a.db.GetContext(ctx, &t, `SELECT last_run_at FROM source_runs WHERE source_id = $1`, sourceID)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if !t.Valid {
		return time.Time{}, nil
	}
	return t.Time, nil
}

func (a *SourceRunAdapter) MarkRun(ctx context.Context, sourceID int64, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO source_runs (source_id, last_run_at) VALUES ($1, $2)
		ON CONFLICT (source_id) DO UPDATE SET last_run_at = EXCLUDED.last_run_at`,
		sourceID, at.UTC())
	return err
}

var _ out.SourceRunRepository = (*SourceRunAdapter)(nil)
