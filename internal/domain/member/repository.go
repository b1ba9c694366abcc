package member

import (
	"context"
)

// Repository defines the operations for persisting and retrieving roster members.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByName(ctx context.Context, name string) (*Member, error) // case-insensitive
	Update(ctx context.Context, m *Member) error                 // Name, JoinDate, RankTitle, IsActive
	ListActive(ctx context.Context) ([]*Member, error)           // roster order: join date, then name
	ListAll(ctx context.Context) ([]*Member, error)
}
