// internal/domain/notification/delivery.go
package notification

import "time"

// Delivery is a promotion notification that was actually sent.
// Corresponds to the 'promotion_deliveries' table.
type Delivery struct {
	ID          int64
	MemberName  string
	DaysElapsed int
	TargetRank  string
	CurrentRank string
	NotifiedOn  time.Time // calendar date of the check that produced it
	DeliveredAt time.Time
}
