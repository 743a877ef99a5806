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

// InfoAdapter implements out.InfoRepository using PostgreSQL.
type InfoAdapter struct {
	db *sqlx.DB
}

// NewInfoAdapter creates a new InfoAdapter.
func NewInfoAdapter(db *sqlx.DB) *InfoAdapter {
	return &InfoAdapter{db: db}
}

const infoSelectColumns = `id, link, source, category, publish, title, detail, store_link, creator, img_link`

type infoRow struct {
	ID        int64  `db:"id"`
	Link      string `db:"link"`
	Source    string `db:"source"`
	Category  string `db:"category"`
	Publish   string `db:"publish"`
	Title     string `db:"title"`
	Detail    string `db:"detail"`
	StoreLink string `db:"store_link"`
	Creator   string `db:"creator"`
	ImgLink   string `db:"img_link"`
}

func (r infoRow) toDomain() domain.Info {
	return domain.Info{
		ID:        r.ID,
		Link:      r.Link,
		Source:    r.Source,
		Category:  r.Category,
		Publish:   r.Publish,
		Title:     r.Title,
		Detail:    r.Detail,
		StoreLink: r.StoreLink,
		Creator:   r.Creator,
		ImgLink:   r.ImgLink,
	}
}

// InsertIfAbsent implements I4: insert-if-absent on the unique `link` column.
func (a *InfoAdapter) InsertIfAbsent(ctx context.Context, info *domain.Info) (bool, error) {
	var id int64
	err := a.db.QueryRowxContext(ctx, `
		INSERT INTO infos (link, source, category, publish, title, detail, store_link, creator, img_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (link) DO NOTHING
		RETURNING id`,
		info.Link, info.Source, info.Category, info.Publish, info.Title, info.Detail,
		info.StoreLink, info.Creator, info.ImgLink,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	info.ID = id
	return true, nil
}

func (a *InfoAdapter) GetByLink(ctx context.Context, link string) (*domain.Info, error) {
	var r infoRow
	query := `SELECT ` + infoSelectColumns + ` FROM infos WHERE link = $1`
	if err := a.db.GetContext(ctx, &r, query, link); err != nil {
		return nil, err
	}
	i := r.toDomain()
	return &i, nil
}

func (a *InfoAdapter) GetByID(ctx context.Context, id int64) (*domain.Info, error) {
	var r infoRow
	query := `SELECT ` + infoSelectColumns + ` FROM infos WHERE id = $1`
	if err := a.db.GetContext(ctx, &r, query, id); err != nil {
		return nil, err
	}
	i := r.toDomain()
	return &i, nil
}

func (a *InfoAdapter) UpdateDetail(ctx context.Context, id int64, detail string) error {
	_, err := a.db.ExecContext(ctx, `UPDATE infos SET detail = $1 WHERE id = $2`, detail, id)
	return err
}

func (a *InfoAdapter) ListMissingDetail(ctx context.Context, source string, limit int) ([]domain.Info, error) {
	var rows []infoRow
	query := `SELECT ` + infoSelectColumns + ` FROM infos
		WHERE source = $1 AND detail = ''
		ORDER BY id DESC LIMIT $2`
	if err := a.db.SelectContext(ctx, &rows, query, source, limit); err != nil {
		return nil, err
	}
	return toInfoSlice(rows), nil
}

func (a *InfoAdapter) ListMissingPublish(ctx context.Context, source string, limit int) ([]domain.Info, error) {
	var rows []infoRow
	query := `SELECT ` + infoSelectColumns + ` FROM infos
		WHERE source = $1 AND (publish IS NULL OR publish = '')
		ORDER BY id DESC LIMIT $2`
	if err := a.db.SelectContext(ctx, &rows, query, source, limit); err != nil {
		return nil, err
	}
	return toInfoSlice(rows), nil
}

func (a *InfoAdapter) UpdatePublish(ctx context.Context, id int64, publish string) error {
	_, err := a.db.ExecContext(ctx, `UPDATE infos SET publish = $1 WHERE id = $2`, publish, id)
	return err
}

func (a *InfoAdapter) ListWindow(ctx context.Context, since, until time.Time, categories, sources []string) ([]domain.Info, error) {
	query := `SELECT ` + infoSelectColumns + ` FROM infos
		WHERE publish <> '' AND publish::timestamptz >= $1 AND publish::timestamptz < $2
		AND ($3::text[] IS NULL OR category = ANY($3))
		AND ($4::text[] IS NULL OR source = ANY($4))
		ORDER BY id DESC`
	var rows []infoRow
	if err := a.db.SelectContext(ctx, &rows, query,
		since.UTC(), until.UTC(), nullableArray(categories), nullableArray(sources)); err != nil {
		return nil, err
	}
	return toInfoSlice(rows), nil
}

func (a *InfoAdapter) ListUnevaluated(ctx context.Context, since, until time.Time, evaluatorKey string, categories, sources []string) ([]domain.Info, error) {
	query := `SELECT ` + infoSelectColumns + ` FROM infos i
		WHERE i.publish <> '' AND i.publish::timestamptz >= $1 AND i.publish::timestamptz < $2
		AND ($3::text[] IS NULL OR i.category = ANY($3))
		AND ($4::text[] IS NULL OR i.source = ANY($4))
		AND NOT EXISTS (
			SELECT 1 FROM info_ai_reviews r
			WHERE r.info_id = i.id AND r.evaluator_key = $5
		)
		ORDER BY i.id DESC`
	var rows []infoRow
	if err := a.db.SelectContext(ctx, &rows, query,
		since.UTC(), until.UTC(), nullableArray(categories), nullableArray(sources), evaluatorKey); err != nil {
		return nil, err
	}
	return toInfoSlice(rows), nil
}

func toInfoSlice(rows []infoRow) []domain.Info {
	out := make([]domain.Info, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

// nullableArray returns nil (SQL NULL) for an empty/nil slice so the
// `col = ANY($n)` predicates above degrade to "no filter" rather than
// "matches nothing".
func nullableArray(values []string) interface{} {
	if len(values) == 0 {
		return nil
	}
	return pq.Array(values)
}

var _ out.InfoRepository = (*InfoAdapter)(nil)
