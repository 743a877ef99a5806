package out

import (
	"context"
	"time"

	"newsroom/core/domain"
)

// SourceRepository persists scraper-adapter registrations.
type SourceRepository interface {
	List(ctx context.Context) ([]domain.Source, error)
	ListEnabled(ctx context.Context) ([]domain.Source, error)
	GetByKey(ctx context.Context, key string) (*domain.Source, error)
}

// SourceRunRepository tracks the last successful collection time per
// source, used by the runner to throttle re-collection (§4.5).
type SourceRunRepository interface {
	GetLastRun(ctx context.Context, sourceID int64) (time.Time, error)
	MarkRun(ctx context.Context, sourceID int64, at time.Time) error
}
