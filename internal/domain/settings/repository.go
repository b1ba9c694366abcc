package settings

import "context"

// Repository stores the single settings record.
// Get returns ErrNotFound (from the implementation) when nothing was saved yet.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
