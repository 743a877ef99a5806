// Package out defines outbound ports (driven ports) for the application.
// These interfaces represent dependencies that the application needs.
package out

import (
	"context"

	"newsroom/core/domain"
)

// CategoryRepository persists the fixed set of content categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByKey(ctx context.Context, key string) (*domain.Category, error)
}
