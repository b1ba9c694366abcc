package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt" // For error wrapping

	"clan_rank_notifier/internal/domain/member"

	"github.com/lib/pq" // PostgreSQL driver and error codes
)

// Custom errors
var ErrMemberNotFound = fmt.Errorf("member not found")
var ErrDuplicateMemberName = fmt.Errorf("member with this name already exists")

const uniqueViolation = "23505"

const memberColumns = `id, name, join_date, rank_title, is_active, created_at, updated_at`

type PostgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*member.Member, error) {
	m := &member.Member{}
	if err := row.Scan(&m.ID, &m.Name, &m.JoinDate, &m.RankTitle, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *PostgresMemberRepository) Create(ctx context.Context, m *member.Member) error {
	query := `INSERT INTO members (name, join_date, rank_title, is_active)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, m.Name, m.JoinDate, m.RankTitle, m.IsActive).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMemberName
		}
		return fmt.Errorf("error creating member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) GetByName(ctx context.Context, name string) (*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE LOWER(name) = LOWER($1)`
	m, err := scanMember(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member by name: %w", err)
	}
	return m, nil
}

func (r *PostgresMemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `UPDATE members
               SET name = $1, join_date = $2, rank_title = $3, is_active = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, m.Name, m.JoinDate, m.RankTitle, m.IsActive, m.ID).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMemberNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateMemberName
		}
		return fmt.Errorf("error updating member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) ListActive(ctx context.Context) ([]*member.Member, error) {
	query := `SELECT ` + memberColumns + `
               FROM members WHERE is_active = TRUE ORDER BY join_date NULLS LAST, name`
	return r.list(ctx, query, "active")
}

func (r *PostgresMemberRepository) ListAll(ctx context.Context) ([]*member.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY id`
	return r.list(ctx, query, "all")
}

func (r *PostgresMemberRepository) list(ctx context.Context, query, which string) ([]*member.Member, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing %s members: %w", which, err)
	}
	defer rows.Close()

	members := make([]*member.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s member: %w", which, err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s members: %w", which, err)
	}
	return members, nil
}
