// internal/app/promotion_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"clan_rank_notifier/internal/domain/member"
	"clan_rank_notifier/internal/domain/notification"
	"clan_rank_notifier/internal/domain/promotion"
	"clan_rank_notifier/internal/domain/settings"
	domainTelegram "clan_rank_notifier/internal/domain/telegram"
	idb "clan_rank_notifier/internal/infra/database"
	"clan_rank_notifier/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

var ErrEmptyMemberName = errors.New("member name is empty")

// Trigger names what caused a roster check.
type Trigger string

const (
	TriggerStartup  Trigger = "startup"
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
	TriggerSettings Trigger = "settings"
	TriggerIgnore   Trigger = "ignore"
	TriggerHTTP     Trigger = "http"
)

// CheckReport summarises one roster check.
type CheckReport struct {
	Date            time.Time // calendar date the check ran for
	Trigger         Trigger
	Due             []promotion.DueRecord
	Pending         int // notifications produced by this check
	Delivered       int
	Muted           bool
	RulesConfigured int
	CheckedAt       time.Time
}

// PromotionService defines the operations the bot, scheduler and HTTP API use.
type PromotionService interface {
	CheckRoster(ctx context.Context, trigger Trigger) (*CheckReport, error)
	IgnoreMember(ctx context.Context, name string) (*CheckReport, error)
	ReloadSettings(ctx context.Context) error
	UpdateSettings(ctx context.Context, trigger Trigger, mutate func(s *settings.Settings) bool) (*CheckReport, error)
	CurrentSettings() settings.Settings
	LastReport() *CheckReport
	PurgeHistory(ctx context.Context, retention time.Duration) (int64, error)
}

// PromotionServiceImpl implements PromotionService.
//
// The compiled settings live behind an atomic pointer and are replaced as a
// whole. The notification state is only touched while holding mu, so
// overlapping checks never lose or duplicate a notification.
type PromotionServiceImpl struct {
	memberRepo     member.Repository
	settingsRepo   settings.Repository
	notifRepo      notification.Repository
	telegramClient domainTelegram.Client
	logger         *logrus.Entry
	notifyChatID   int64
	location       *time.Location
	now            func() time.Time

	snapshot   atomic.Pointer[promotion.Snapshot]
	lastReport atomic.Pointer[CheckReport]

	mu    sync.Mutex
	state *promotion.NotificationState

	settingsMu sync.Mutex // serialises read-modify-write of stored settings
}

func NewPromotionService(
	mr member.Repository,
	sr settings.Repository,
	nr notification.Repository,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	notifyChatID int64,
	location *time.Location,
) *PromotionServiceImpl {
	if location == nil {
		location = time.Local
	}
	return &PromotionServiceImpl{
		memberRepo:     mr,
		settingsRepo:   sr,
		notifRepo:      nr,
		telegramClient: tc,
		logger:         logger,
		notifyChatID:   notifyChatID,
		location:       location,
		now:            time.Now,
		state:          promotion.NewNotificationState(),
	}
}

// SetClock replaces the time source; used by tests.
func (s *PromotionServiceImpl) SetClock(now func() time.Time) { s.now = now }

// ReloadSettings reads the stored settings and swaps in a freshly compiled
// snapshot. Defaults are stored on first use.
func (s *PromotionServiceImpl) ReloadSettings(ctx context.Context) error {
	st, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}
	s.swap(*st)
	return nil
}

func (s *PromotionServiceImpl) loadSettings(ctx context.Context) (*settings.Settings, error) {
	st, err := s.settingsRepo.Get(ctx)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, idb.ErrSettingsNotFound) {
		return nil, fmt.Errorf("failed to load rank settings: %w", err)
	}

	s.logger.Info("No rank settings stored yet. Saving defaults.")
	defaults := settings.Defaults()
	if err := s.settingsRepo.Save(ctx, &defaults); err != nil {
		return nil, fmt.Errorf("failed to save default rank settings: %w", err)
	}
	return &defaults, nil
}

func (s *PromotionServiceImpl) swap(st settings.Settings) *promotion.Snapshot {
	snap := promotion.Compile(st)
	s.snapshot.Store(snap)
	metrics.RulesConfigured.Set(float64(snap.Rules.Len()))
	s.logger.WithFields(logrus.Fields{
		"rules":          snap.Rules.Len(),
		"eligible_ranks": len(snap.Filters.EligibleRanks),
		"ignored_users":  len(snap.Filters.IgnoredUsers),
		"muted":          snap.Mute,
	}).Info("Rank settings applied")
	return snap
}

// CurrentSettings returns the settings behind the active snapshot.
func (s *PromotionServiceImpl) CurrentSettings() settings.Settings {
	if snap := s.snapshot.Load(); snap != nil {
		return snap.Settings
	}
	return settings.Defaults()
}

func (s *PromotionServiceImpl) LastReport() *CheckReport {
	return s.lastReport.Load()
}

// UpdateSettings applies mutate to the stored settings. When mutate reports a
// change the settings are saved and recompiled. The roster is re-checked
// either way.
func (s *PromotionServiceImpl) UpdateSettings(ctx context.Context, trigger Trigger, mutate func(st *settings.Settings) bool) (*CheckReport, error) {
	s.settingsMu.Lock()
	st, err := s.loadSettings(ctx)
	if err != nil {
		s.settingsMu.Unlock()
		return nil, err
	}
	if !mutate(st) {
		s.settingsMu.Unlock()
		s.logger.WithField("trigger", trigger).Debug("Rank settings unchanged")
		return s.CheckRoster(ctx, trigger)
	}
	if err := s.settingsRepo.Save(ctx, st); err != nil {
		s.settingsMu.Unlock()
		return nil, fmt.Errorf("failed to save rank settings: %w", err)
	}
	s.swap(*st)
	s.settingsMu.Unlock()

	return s.CheckRoster(ctx, trigger)
}

// IgnoreMember adds name to the ignore list and re-checks the roster.
func (s *PromotionServiceImpl) IgnoreMember(ctx context.Context, name string) (*CheckReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyMemberName
	}
	s.logger.WithField("member", name).Info("Adding member to ignore list")
	return s.UpdateSettings(ctx, TriggerIgnore, func(st *settings.Settings) bool {
		updated := promotion.AddIgnored(st.IgnoredUsers, name)
		if updated == st.IgnoredUsers {
			return false
		}
		st.IgnoredUsers = updated
		return true
	})
}

// CheckRoster evaluates the active roster and delivers new notifications
// unless they are muted.
func (s *PromotionServiceImpl) CheckRoster(ctx context.Context, trigger Trigger) (*CheckReport, error) {
	started := time.Now()
	log := s.logger.WithField("trigger", trigger)
	metrics.RosterChecks.WithLabelValues(string(trigger)).Inc()

	snap := s.snapshot.Load()
	if snap == nil {
		if err := s.ReloadSettings(ctx); err != nil {
			return nil, err
		}
		snap = s.snapshot.Load()
	}

	now := s.now()
	today := promotion.DateOf(now.In(s.location))
	report := &CheckReport{
		Date:            today,
		Trigger:         trigger,
		Muted:           snap.Mute,
		RulesConfigured: snap.Rules.Len(),
		CheckedAt:       now,
	}

	if snap.Rules.Len() == 0 {
		log.Warn("No promotion rules configured. Skipping roster check.")
		metrics.MembersDue.Set(0)
		s.lastReport.Store(report)
		return report, nil
	}

	active, err := s.memberRepo.ListActive(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list active members")
		return nil, fmt.Errorf("failed to list active members: %w", err)
	}
	roster := make([]member.Member, 0, len(active))
	for _, m := range active {
		roster = append(roster, *m)
	}

	s.mu.Lock()
	res := snap.Evaluate(roster, today, s.state)
	s.state = res.State
	s.mu.Unlock()

	report.Due = res.Due
	report.Pending = len(res.Notifications)

	switch {
	case len(res.Notifications) == 0:
	case snap.Mute:
		metrics.Notifications.WithLabelValues("muted").Add(float64(len(res.Notifications)))
		log.WithField("notifications", len(res.Notifications)).Debug("Notifications muted; not delivering.")
	default:
		delivered, failed := s.deliver(ctx, today, res.Notifications, log)
		report.Delivered = len(delivered)
		if len(failed) > 0 {
			s.forgetFailed(today, failed)
		}
		if err := s.notifRepo.RecordDeliveries(ctx, delivered); err != nil {
			log.WithError(err).Error("Failed to record delivered notifications")
		}
	}

	metrics.MembersDue.Set(float64(len(res.Due)))
	metrics.CheckDuration.Observe(time.Since(started).Seconds())
	s.lastReport.Store(report)

	log.WithFields(logrus.Fields{
		"date":      today.Format("2006-01-02"),
		"roster":    len(roster),
		"due":       len(report.Due),
		"pending":   report.Pending,
		"delivered": report.Delivered,
	}).Info("Roster check complete")
	return report, nil
}

// forgetFailed drops undelivered notifications from the day state so the
// next check today tries them again.
func (s *PromotionServiceImpl) forgetFailed(today time.Time, failed []promotion.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Date().Equal(today) {
		return
	}
	for _, n := range failed {
		s.state = s.state.Forget(n.Name, n.TargetRank)
	}
}

// deliver sends each notification. It returns the deliveries that went out
// and the notifications that did not.
func (s *PromotionServiceImpl) deliver(ctx context.Context, today time.Time, notes []promotion.Notification, log *logrus.Entry) ([]*notification.Delivery, []promotion.Notification) {
	delivered := make([]*notification.Delivery, 0, len(notes))
	var failed []promotion.Notification
	for i, n := range notes {
		entry := log.WithFields(logrus.Fields{"member": n.Name, "target_rank": n.TargetRank})
		if err := s.telegramClient.SendMessage(ctx, s.notifyChatID, FormatNotification(n), nil); err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			entry.WithError(err).Error("Failed to deliver promotion notification")
			failed = append(failed, n)
			if ctx.Err() != nil {
				failed = append(failed, notes[i+1:]...)
				break
			}
			continue
		}
		metrics.Notifications.WithLabelValues("sent").Inc()
		entry.Info("Promotion notification delivered")
		delivered = append(delivered, &notification.Delivery{
			MemberName:  n.Name,
			DaysElapsed: n.DaysElapsed,
			TargetRank:  n.TargetRank,
			CurrentRank: n.CurrentRank,
			NotifiedOn:  today,
			DeliveredAt: s.now(),
		})
	}
	return delivered, failed
}

// PurgeHistory removes delivery history older than retention.
func (s *PromotionServiceImpl) PurgeHistory(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := promotion.DateOf(s.now().In(s.location).Add(-retention))
	n, err := s.notifRepo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge delivery history: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"before": cutoff.Format("2006-01-02"), "removed": n}).Info("Delivery history purged")
	return n, nil
}
