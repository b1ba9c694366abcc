package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clan_rank_notifier/internal/domain/settings"
)

var ErrSettingsNotFound = fmt.Errorf("rank settings not found")

// PostgresSettingsRepository stores the single settings row (id = 1).
type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (*settings.Settings, error) {
	query := `SELECT rules, eligible_ranks, ignored_users, mute_notifications, updated_at
               FROM rank_settings WHERE id = 1`
	s := &settings.Settings{}
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Rules, &s.EligibleRanks, &s.IgnoredUsers, &s.MuteNotifications, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("error getting rank settings: %w", err)
	}
	return s, nil
}

func (r *PostgresSettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	query := `INSERT INTO rank_settings (id, rules, eligible_ranks, ignored_users, mute_notifications, updated_at)
               VALUES (1, $1, $2, $3, $4, NOW())
               ON CONFLICT (id) DO UPDATE
               SET rules = EXCLUDED.rules,
                   eligible_ranks = EXCLUDED.eligible_ranks,
                   ignored_users = EXCLUDED.ignored_users,
                   mute_notifications = EXCLUDED.mute_notifications,
                   updated_at = NOW()
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, s.Rules, s.EligibleRanks, s.IgnoredUsers, s.MuteNotifications).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving rank settings: %w", err)
	}
	return nil
}
