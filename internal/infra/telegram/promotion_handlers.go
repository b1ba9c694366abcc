// internal/infra/telegram/promotion_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"clan_rank_notifier/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	maxIgnoreButtons = 20
	maxCallbackData  = 64 // Telegram limit, including telebot's "\f<unique>|" prefix
)

// btnIgnore is the inline button shown next to each due member.
// Its callback data carries the member name.
var btnIgnore = telebot.Btn{Unique: "ignore_member"}

// dueListMarkup builds one "Ignore <name>" button per due member, in due-list order.
func dueListMarkup(report *app.CheckReport) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	if report == nil || len(report.Due) == 0 {
		return markup
	}

	rows := make([]telebot.Row, 0, len(report.Due))
	for i, d := range report.Due {
		if i == maxIgnoreButtons {
			break
		}
		if len(btnIgnore.Unique)+len(d.Name)+2 > maxCallbackData {
			continue
		}
		rows = append(rows, markup.Row(markup.Data("Ignore "+d.Name, btnIgnore.Unique, d.Name)))
	}
	markup.Inline(rows...)
	return markup
}

func sendDueList(c telebot.Context, report *app.CheckReport) error {
	return c.Send(truncateMessage(app.FormatDueList(report)), &telebot.SendOptions{ReplyMarkup: dueListMarkup(report)})
}

// RegisterPromotionHandlers registers /check and the ignore button callback.
func RegisterPromotionHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, promotions app.PromotionService, baseLogger *logrus.Entry) {
	b.Handle("/check", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/check",
			"sender_id": c.Sender().ID,
		})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(notAllowedText)
		}

		report, err := promotions.CheckRoster(ctx, app.TriggerManual)
		if err != nil {
			handlerLogger.WithError(err).Error("Manual roster check failed")
			return c.Send(fmt.Sprintf("Roster check failed: %s", err.Error()))
		}
		handlerLogger.WithField("due", len(report.Due)).Info("Manual roster check done")
		return sendDueList(c, report)
	})

	b.Handle(&btnIgnore, func(c telebot.Context) error {
		name := c.Callback().Data
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "ignore_member",
			"sender_id": c.Sender().ID,
			"member":    name,
		})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized ignore attempt")
			return c.Respond(&telebot.CallbackResponse{Text: "Not allowed."})
		}

		report, err := promotions.IgnoreMember(ctx, name)
		if err != nil {
			if errors.Is(err, app.ErrEmptyMemberName) {
				return c.Respond(&telebot.CallbackResponse{Text: "Unknown member."})
			}
			c.Bot().OnError(fmt.Errorf("error ignoring member %q: %w", name, err), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong."})
		}
		handlerLogger.Info("Member ignored from due list")

		if err := c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("%s will be skipped from now on.", name)}); err != nil {
			handlerLogger.WithError(err).Warn("Failed to answer callback")
		}
		return c.Edit(truncateMessage(app.FormatDueList(report)), &telebot.SendOptions{ReplyMarkup: dueListMarkup(report)})
	})
}
