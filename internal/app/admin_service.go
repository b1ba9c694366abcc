package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"clan_rank_notifier/internal/domain/member"
	"clan_rank_notifier/internal/domain/notification"
	"clan_rank_notifier/internal/domain/settings"
	idb "clan_rank_notifier/internal/infra/database"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrMemberAlreadyExists = fmt.Errorf("member with this name already exists")
var ErrMemberAlreadyInactive = fmt.Errorf("member is already inactive")

const defaultHistoryLimit = 20

type AdminService struct {
	memberRepo      member.Repository
	notifRepo       notification.Repository
	promotions      PromotionService
	adminTelegramID int64
}

func NewAdminService(mr member.Repository, nr notification.Repository, ps PromotionService, adminID int64) *AdminService {
	return &AdminService{
		memberRepo:      mr,
		notifRepo:       nr,
		promotions:      ps,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) authorize(performingAdminID int64) error {
	if performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// IsAdmin reports whether telegramID belongs to the configured admin.
func (s *AdminService) IsAdmin(telegramID int64) bool {
	return telegramID == s.adminTelegramID
}

func nullableDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullableRank(rank string) sql.NullString {
	rank = strings.TrimSpace(rank)
	if rank == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: rank, Valid: true}
}

// AddMember puts a member on the roster. A zero joinDate or empty rank is
// stored as unknown. An inactive member with the same name is reactivated.
func (s *AdminService) AddMember(ctx context.Context, performingAdminID int64, name string, joinDate time.Time, rank string) (*member.Member, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyMemberName
	}

	existing, err := s.memberRepo.GetByName(ctx, name)
	if err == nil {
		if existing.IsActive {
			return nil, ErrMemberAlreadyExists
		}
		existing.Name = name
		existing.JoinDate = nullableDate(joinDate)
		existing.RankTitle = nullableRank(rank)
		existing.IsActive = true
		if err := s.memberRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate member in repository: %w", err)
		}
		return existing, nil
	}
	if !errors.Is(err, idb.ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}

	newMember := &member.Member{
		Name:      name,
		JoinDate:  nullableDate(joinDate),
		RankTitle: nullableRank(rank),
		IsActive:  true,
	}
	if err := s.memberRepo.Create(ctx, newMember); err != nil {
		if errors.Is(err, idb.ErrDuplicateMemberName) {
			return nil, ErrMemberAlreadyExists
		}
		return nil, fmt.Errorf("failed to create member in repository: %w", err)
	}
	return newMember, nil
}

// RemoveMember deactivates a member; deactivated members are not checked.
func (s *AdminService) RemoveMember(ctx context.Context, performingAdminID int64, name string) (*member.Member, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}

	target, err := s.memberRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, idb.ErrMemberNotFound) {
			return nil, idb.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member for removal: %w", err)
	}
	if !target.IsActive {
		return target, ErrMemberAlreadyInactive
	}

	target.IsActive = false
	if err := s.memberRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update member to inactive in repository: %w", err)
	}
	return target, nil
}

// SetMemberRank records a member's current rank title; an empty rank clears it.
func (s *AdminService) SetMemberRank(ctx context.Context, performingAdminID int64, name, rank string) (*member.Member, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}

	target, err := s.memberRepo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, idb.ErrMemberNotFound) {
			return nil, idb.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member for rank change: %w", err)
	}

	target.RankTitle = nullableRank(rank)
	if err := s.memberRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update member rank in repository: %w", err)
	}
	return target, nil
}

func (s *AdminService) ListActiveMembers(ctx context.Context, performingAdminID int64) ([]*member.Member, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListActive(ctx)
}

func (s *AdminService) ListAllMembers(ctx context.Context, performingAdminID int64) ([]*member.Member, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListAll(ctx)
}

func (s *AdminService) GetSettings(performingAdminID int64) (settings.Settings, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return settings.Settings{}, err
	}
	return s.promotions.CurrentSettings(), nil
}

// update saves a settings change through the promotion service, which
// recompiles the snapshot and re-checks the roster.
func (s *AdminService) update(ctx context.Context, performingAdminID int64, mutate func(st *settings.Settings) bool) (*CheckReport, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.promotions.UpdateSettings(ctx, TriggerSettings, mutate)
}

func (s *AdminService) UpdateRules(ctx context.Context, performingAdminID int64, rules string) (*CheckReport, error) {
	return s.update(ctx, performingAdminID, func(st *settings.Settings) bool {
		if st.Rules == rules {
			return false
		}
		st.Rules = rules
		return true
	})
}

func (s *AdminService) UpdateEligibleRanks(ctx context.Context, performingAdminID int64, csv string) (*CheckReport, error) {
	return s.update(ctx, performingAdminID, func(st *settings.Settings) bool {
		if st.EligibleRanks == csv {
			return false
		}
		st.EligibleRanks = csv
		return true
	})
}

func (s *AdminService) UpdateIgnoredUsers(ctx context.Context, performingAdminID int64, csv string) (*CheckReport, error) {
	return s.update(ctx, performingAdminID, func(st *settings.Settings) bool {
		if st.IgnoredUsers == csv {
			return false
		}
		st.IgnoredUsers = csv
		return true
	})
}

func (s *AdminService) SetMute(ctx context.Context, performingAdminID int64, mute bool) (*CheckReport, error) {
	return s.update(ctx, performingAdminID, func(st *settings.Settings) bool {
		if st.MuteNotifications == mute {
			return false
		}
		st.MuteNotifications = mute
		return true
	})
}

// IgnoreMember adds name to the ignore list.
func (s *AdminService) IgnoreMember(ctx context.Context, performingAdminID int64, name string) (*CheckReport, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.promotions.IgnoreMember(ctx, name)
}

// History returns recently delivered notifications, newest first.
func (s *AdminService) History(ctx context.Context, performingAdminID int64, limit int) ([]*notification.Delivery, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	deliveries, err := s.notifRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery history: %w", err)
	}
	return deliveries, nil
}

// MemberHistory returns delivered notifications for the given members.
func (s *AdminService) MemberHistory(ctx context.Context, performingAdminID int64, names []string, limit int) ([]*notification.Delivery, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	deliveries, err := s.notifRepo.ListByMembers(ctx, names, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list member delivery history: %w", err)
	}
	return deliveries, nil
}
