package scheduler

import (
	"context"
	"fmt"
	"time"

	"clan_rank_notifier/internal/app" // For PromotionService interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	rosterCheckTimeout  = 5 * time.Minute // Delivery is rate limited, so a large roster takes a while
	historyPruneTimeout = 1 * time.Minute
)

type RosterScheduler struct {
	cronEngine           *cron.Cron
	promotions           app.PromotionService
	logger               *logrus.Entry
	cronSpecRosterCheck  string
	cronSpecHistoryPrune string
	historyRetention     time.Duration
}

func NewRosterScheduler(
	promotions app.PromotionService,
	logger *logrus.Entry,
	location *time.Location,
	cronSpecRosterCheck string, // e.g., "0 10 * * *" (10:00 AM daily)
	cronSpecHistoryPrune string, // e.g., "0 3 * * *" (3:00 AM daily)
	historyRetention time.Duration,
) *RosterScheduler {
	if location == nil {
		location = time.Local
	}
	return &RosterScheduler{
		// Same zone the service uses to decide which day "today" is.
		cronEngine:           cron.New(cron.WithLocation(location)),
		promotions:           promotions,
		logger:               logger,
		cronSpecRosterCheck:  cronSpecRosterCheck,
		cronSpecHistoryPrune: cronSpecHistoryPrune,
		historyRetention:     historyRetention,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *RosterScheduler) Start() error {
	s.logger.Info("Starting roster scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecRosterCheck, s.runRosterCheck); err != nil {
		return fmt.Errorf("could not add roster check cron job %q: %w", s.cronSpecRosterCheck, err)
	}

	if s.cronSpecHistoryPrune != "" {
		if _, err := s.cronEngine.AddFunc(s.cronSpecHistoryPrune, s.runHistoryPrune); err != nil {
			return fmt.Errorf("could not add history prune cron job %q: %w", s.cronSpecHistoryPrune, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Roster scheduler started with jobs.")
	return nil
}

func (s *RosterScheduler) runRosterCheck() {
	s.logger.Info("Cron job triggered for roster check.")
	ctx, cancel := context.WithTimeout(context.Background(), rosterCheckTimeout)
	defer cancel()

	report, err := s.promotions.CheckRoster(ctx, app.TriggerSchedule)
	if err != nil {
		s.logger.WithError(err).Error("Error during scheduled roster check")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"due":       len(report.Due),
		"delivered": report.Delivered,
	}).Info("Scheduled roster check finished.")
}

func (s *RosterScheduler) runHistoryPrune() {
	s.logger.Info("Cron job triggered for delivery history prune.")
	ctx, cancel := context.WithTimeout(context.Background(), historyPruneTimeout)
	defer cancel()

	if _, err := s.promotions.PurgeHistory(ctx, s.historyRetention); err != nil {
		s.logger.WithError(err).Error("Error during delivery history prune")
	}
}

func (s *RosterScheduler) Stop() {
	s.logger.Info("Stopping roster scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Roster scheduler gracefully stopped.")
}
