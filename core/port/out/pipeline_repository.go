package out

import (
	"context"

	"newsroom/core/domain"
)

// PipelineRepository resolves the admin-configured run profile and its
// compatibility class, filters, writer settings, and delivery targets.
type PipelineRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Pipeline, error)
	GetByName(ctx context.Context, name string) (*domain.Pipeline, error)
	// List returns every pipeline ordered by id ascending, for `--all`
	// runs (§5 "Across pipelines in --all: order by pipeline id ascending").
	List(ctx context.Context) ([]domain.Pipeline, error)
	GetClass(ctx context.Context, classID int64) (*domain.PipelineClass, error)
	GetFilters(ctx context.Context, pipelineID int64) (*domain.PipelineFilters, error)
	GetWriter(ctx context.Context, pipelineID int64) (*domain.PipelineWriter, error)

	// GetDeliveryEmail and GetDeliveryChat are mutually exclusive per I1;
	// exactly one returns a non-nil value for a valid pipeline.
	GetDeliveryEmail(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryEmail, error)
	GetDeliveryChat(ctx context.Context, pipelineID int64) (*domain.PipelineDeliveryChat, error)
}
