package provider

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for provider profiles.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	ListActive(ctx context.Context) ([]*Provider, error)
	Save(ctx context.Context, provider *Provider) error
	Update(ctx context.Context, provider *Provider) error
}
