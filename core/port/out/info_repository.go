package out

import (
	"context"
	"time"

	"newsroom/core/domain"
)

// InfoRepository persists collected articles. Link is globally unique (I4);
// InsertIfAbsent must be a no-op (returning inserted=false) when the link
// already exists, never an error.
type InfoRepository interface {
	InsertIfAbsent(ctx context.Context, info *domain.Info) (inserted bool, err error)
	GetByLink(ctx context.Context, link string) (*domain.Info, error)
	GetByID(ctx context.Context, id int64) (*domain.Info, error)
	UpdateDetail(ctx context.Context, id int64, detail string) error

	// ListMissingDetail returns articles whose detail has not yet been
	// back-filled, for the collector's detail-fetch pass (§4.2 op 5-6).
	ListMissingDetail(ctx context.Context, source string, limit int) ([]domain.Info, error)

	// ListMissingPublish returns a source's articles still lacking a publish
	// timestamp, for the `collect backfill-publish` maintenance operation
	// (SPEC_FULL.md §4, grounded on backfill_publish.py).
	ListMissingPublish(ctx context.Context, source string, limit int) ([]domain.Info, error)

	// UpdatePublish sets the publish timestamp of an already-stored article.
	UpdatePublish(ctx context.Context, id int64, publish string) error

	// ListWindow returns articles published within [since, until), optionally
	// restricted to the given categories/sources, for the evaluator and
	// composer candidate windows (§4.3, §4.4).
	ListWindow(ctx context.Context, since, until time.Time, categories, sources []string) ([]domain.Info, error)

	// ListUnevaluated returns articles in the window that have no
	// InfoAiReview row for the given evaluator key yet (§4.3 candidate
	// selection).
	ListUnevaluated(ctx context.Context, since, until time.Time, evaluatorKey string, categories, sources []string) ([]domain.Info, error)
}
