// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"strings"

	"clan_rank_notifier/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func adminHelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Admin commands:\n\n")
	helpText.WriteString("/check - check the roster now and list members due for promotion\n")
	helpText.WriteString("/add_member Name | YYYY-MM-DD | Rank - add a member (date and rank optional)\n")
	helpText.WriteString("/remove_member Name - remove a member from the roster\n")
	helpText.WriteString("/set_rank Name | Rank - record a member's current rank\n")
	helpText.WriteString("/list_members [active|all] - show the roster\n")
	helpText.WriteString("/rules - show rules, eligible ranks, ignore list\n")
	helpText.WriteString("/set_rules (rules on following lines, days=rank) - replace the rules\n")
	helpText.WriteString("/set_eligible Rank, Rank - only check members holding these ranks (empty = all)\n")
	helpText.WriteString("/set_ignored Name, Name - replace the ignore list\n")
	helpText.WriteString("/ignore Name - skip a member from now on\n")
	helpText.WriteString("/mute, /unmute - toggle notifications\n")
	helpText.WriteString("/history [n|Name] - recently delivered notifications\n")
	helpText.WriteString("/help - show this message")
	return helpText.String()
}

// RegisterBotCommands registers /start and /help.
func RegisterBotCommands(b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if adminService.IsAdmin(senderID) {
			logCtx.Info("User identified as Admin")
			return c.Send("Hello " + c.Sender().FirstName + "! I watch the clan roster and tell you who is due for a rank-up. Use /help for commands.")
		}

		logCtx.Info("User is unknown")
		return c.Send("Hello! I notify the clan admin about members due for promotion. There is nothing for you to do here.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if adminService.IsAdmin(senderID) {
			return c.Send(adminHelpText())
		}
		return c.Send("No commands are available for you.")
	})
}
