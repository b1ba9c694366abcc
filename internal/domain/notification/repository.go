// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

// Repository keeps the history of delivered promotion notifications.
type Repository interface {
	RecordDeliveries(ctx context.Context, deliveries []*Delivery) error
	ListRecent(ctx context.Context, limit int) ([]*Delivery, error)
	ListByMembers(ctx context.Context, names []string, limit int) ([]*Delivery, error)

	// PurgeBefore deletes deliveries notified before the given date and
	// returns how many were removed.
	PurgeBefore(ctx context.Context, date time.Time) (int64, error)
}
