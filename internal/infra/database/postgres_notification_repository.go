// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clan_rank_notifier/internal/domain/notification"

	"github.com/lib/pq" // For pq.Array and driver registration
)

const deliveryColumns = `id, member_name, days_elapsed, target_rank, current_rank, notified_on, delivered_at`

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) RecordDeliveries(ctx context.Context, deliveries []*notification.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for deliveries: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO promotion_deliveries (member_name, days_elapsed, target_rank, current_rank, notified_on, delivered_at)
                                         VALUES ($1, $2, $3, $4, $5, $6)
                                         RETURNING id`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for deliveries: %w", err)
	}
	defer stmt.Close()

	for _, d := range deliveries {
		if d.DeliveredAt.IsZero() {
			d.DeliveredAt = time.Now()
		}
		err := stmt.QueryRowContext(ctx, d.MemberName, d.DaysElapsed, d.TargetRank, d.CurrentRank, d.NotifiedOn, d.DeliveredAt).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("error recording delivery for %s: %w", d.MemberName, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit deliveries: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Delivery, error) {
	query := `SELECT ` + deliveryColumns + `
               FROM promotion_deliveries ORDER BY delivered_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing recent deliveries: %w", err)
	}
	return scanDeliveries(rows)
}

func (r *PostgresNotificationRepository) ListByMembers(ctx context.Context, names []string, limit int) ([]*notification.Delivery, error) {
	if len(names) == 0 {
		return []*notification.Delivery{}, nil
	}
	query := `SELECT ` + deliveryColumns + `
               FROM promotion_deliveries
               WHERE LOWER(member_name) = ANY($1)
               ORDER BY delivered_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(lowerNames(names)), limit)
	if err != nil {
		return nil, fmt.Errorf("error listing deliveries by member: %w", err)
	}
	return scanDeliveries(rows)
}

func (r *PostgresNotificationRepository) PurgeBefore(ctx context.Context, date time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM promotion_deliveries WHERE notified_on < $1`, date)
	if err != nil {
		return 0, fmt.Errorf("error purging deliveries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting purged deliveries: %w", err)
	}
	return n, nil
}

// lowerNames matches names the way the roster does, ignoring case.
func lowerNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ToLower(strings.TrimSpace(n)))
	}
	return out
}

func scanDeliveries(rows *sql.Rows) ([]*notification.Delivery, error) {
	defer rows.Close()

	deliveries := make([]*notification.Delivery, 0)
	for rows.Next() {
		d := &notification.Delivery{}
		if err := rows.Scan(&d.ID, &d.MemberName, &d.DaysElapsed, &d.TargetRank, &d.CurrentRank, &d.NotifiedOn, &d.DeliveredAt); err != nil {
			return nil, fmt.Errorf("error scanning delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deliveries: %w", err)
	}
	return deliveries, nil
}
