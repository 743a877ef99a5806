// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"

	"newsroom/core/domain"
	"newsroom/core/port/out"

	"github.com/jmoiron/sqlx"
)

// CategoryAdapter implements out.CategoryRepository using PostgreSQL.
type CategoryAdapter struct {
	db *sqlx.DB
}

// NewCategoryAdapter creates a new CategoryAdapter.
func NewCategoryAdapter(db *sqlx.DB) *CategoryAdapter {
	return &CategoryAdapter{db: db}
}

type categoryRow struct {
	Key     string `db:"key"`
	Label   string `db:"label"`
	Enabled bool   `db:"enabled"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{Key: r.Key, Label: r.Label, Enabled: r.Enabled}
}

func (a *CategoryAdapter) List(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := a.db.SelectContext(ctx, &rows, `SELECT key, label, enabled FROM categories ORDER BY key`); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (a *CategoryAdapter) GetByKey(ctx context.Context, key string) (*domain.Category, error) {
	var r categoryRow
	if err := a.db.GetContext(ctx, &r, `SELECT key, label, enabled FROM categories WHERE key = $1`, key); err != nil {
		return nil, err
	}
	c := r.toDomain()
	return &c, nil
}

var _ out.CategoryRepository = (*CategoryAdapter)(nil)
