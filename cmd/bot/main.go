package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"clan_rank_notifier/internal/app"
	"clan_rank_notifier/internal/infra/config"
	idb "clan_rank_notifier/internal/infra/database"
	"clan_rank_notifier/internal/infra/httpapi"
	"clan_rank_notifier/internal/infra/logger"
	"clan_rank_notifier/internal/infra/scheduler"
	"clan_rank_notifier/internal/infra/settingsfile"
	"clan_rank_notifier/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":      cfg.LogLevel,
		"environment":    cfg.Environment,
		"admin_id":       cfg.AdminTelegramID,
		"notify_chat_id": cfg.NotifyChatID,
		"timezone":       cfg.Location.String(),
	}).Info("Clan Rank Notifier starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	memberRepo := idb.NewPostgresMemberRepository(db)
	settingsRepo := idb.NewPostgresSettingsRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	mainLogger.Info("Repositories initialized.")

	// Initialize Telegram Bot
	botLogger := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"text":      c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telebot handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot, cfg.NotifyRatePerSec)

	// Initialize services
	promotionService := app.NewPromotionService(
		memberRepo,
		settingsRepo,
		notificationRepo,
		telegramClient,
		logger.Component("promotion_service"),
		cfg.NotifyChatID,
		cfg.Location,
	)
	if err := promotionService.ReloadSettings(ctx); err != nil {
		mainLogger.WithError(err).Fatal("Could not load rank settings")
	}
	adminService := app.NewAdminService(memberRepo, notificationRepo, promotionService, cfg.AdminTelegramID)
	mainLogger.Info("Services initialized.")

	var settingsWatcher *settingsfile.Watcher
	if cfg.SettingsFile != "" {
		settingsWatcher = settingsfile.NewWatcher(cfg.SettingsFile, promotionService, logger.Component("settings_file"))
		if err := settingsWatcher.Sync(ctx); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply settings file")
		}
	}

	// Register Handlers
	telegram.RegisterBotCommands(bot, adminService, logger.Component("telegram"))
	telegram.RegisterAdminHandlers(ctx, bot, adminService, logger.Component("telegram"))
	telegram.RegisterPromotionHandlers(ctx, bot, adminService, promotionService, logger.Component("telegram"))
	mainLogger.Info("Telegram handlers registered.")

	if _, err := promotionService.CheckRoster(ctx, app.TriggerStartup); err != nil {
		mainLogger.WithError(err).Error("Startup roster check failed")
	}

	rosterScheduler := scheduler.NewRosterScheduler(
		promotionService,
		logger.Component("scheduler"),
		cfg.Location,
		cfg.CronSpecRosterCheck,
		cfg.CronSpecHistoryPrune,
		time.Duration(cfg.HistoryRetentionDays)*24*time.Hour,
	)
	if err := rosterScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	var wg sync.WaitGroup
	if settingsWatcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := settingsWatcher.Watch(ctx); err != nil {
				mainLogger.WithError(err).Error("Settings file watcher stopped")
			}
		}()
	}
	if cfg.HTTPAddr != "" {
		handler := httpapi.NewHandler(promotionService, logger.Component("http")).Router()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpapi.Serve(ctx, cfg.HTTPAddr, handler, logger.Component("http")); err != nil {
				mainLogger.WithError(err).Error("HTTP API stopped")
			}
		}()
	}

	mainLogger.Info("Application setup complete. Bot and Scheduler are running.")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	rosterScheduler.Stop()
	wg.Wait()
	// db.Close() is handled by defer
	mainLogger.Info("Application shut down gracefully.")
}
