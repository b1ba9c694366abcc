package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clan_rank_notifier/internal/app"
	"clan_rank_notifier/internal/domain/member"
	"clan_rank_notifier/internal/domain/promotion"
	idb "clan_rank_notifier/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const notAllowedText = "Error: you are not allowed to run this command."

// adminHandler wraps h with the admin check and a per-command logger.
func adminHandler(command string, adminService *app.AdminService, baseLogger *logrus.Entry, h func(c telebot.Context, log *logrus.Entry) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   command,
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(notAllowedText)
		}
		return h(c, handlerLogger)
	}
}

func describeMember(m *member.Member) string {
	joined := "unknown"
	if m.JoinDate.Valid {
		joined = m.JoinDate.Time.Format(dateLayout)
	}
	rank := promotion.NotRanked
	if m.RankTitle.Valid && m.RankTitle.String != "" {
		rank = m.RankTitle.String
	}
	status := "inactive"
	if m.IsActive {
		status = "active"
	}
	return fmt.Sprintf("%s | joined %s | %s | %s", m.Name, joined, rank, status)
}

// settingsReply confirms a settings change and shows the re-checked due list.
func settingsReply(c telebot.Context, what string, report *app.CheckReport) error {
	if report == nil {
		return c.Send(what + " saved.")
	}
	return c.Send(what+" saved.\n\n"+truncateMessage(app.FormatDueList(report)), &telebot.SendOptions{ReplyMarkup: dueListMarkup(report)})
}

// RegisterAdminHandlers registers handlers for admin commands.
// It requires the bot instance, admin service, and the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	b.Handle("/add_member", adminHandler("/add_member", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		// Expected format: /add_member <Name> | <YYYY-MM-DD or -> | [Rank]
		fields := splitFields(commandBody(c.Text()))
		if len(fields) < 1 || len(fields) > 3 || fields[0] == "" {
			handlerLogger.WithField("fields", len(fields)).Warn("Invalid command format")
			return c.Send("Invalid format. Use: /add_member <Name> | <YYYY-MM-DD or -> | [Rank]")
		}

		var joinRaw, rank string
		if len(fields) > 1 {
			joinRaw = fields[1]
		}
		if len(fields) > 2 {
			rank = fields[2]
		}
		joinDate, err := parseJoinDate(joinRaw)
		if err != nil {
			return c.Send("Error: " + err.Error())
		}

		handlerLogger = handlerLogger.WithFields(logrus.Fields{"member": fields[0], "join_date": joinRaw, "rank": rank})
		newMember, err := adminService.AddMember(ctx, c.Sender().ID, fields[0], joinDate, rank)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrMemberAlreadyExists):
				logWithError.Warn("Member already exists")
				return c.Send(fmt.Sprintf("Error: %s is already on the roster.", fields[0]))
			default:
				logWithError.Error("Failed to add member")
				return c.Send(fmt.Sprintf("Failed to add member: %s", err.Error()))
			}
		}

		handlerLogger.WithField("member_id", newMember.ID).Info("Member added successfully")
		return c.Send("Added: " + describeMember(newMember))
	}))

	b.Handle("/remove_member", adminHandler("/remove_member", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		name := commandBody(c.Text())
		if name == "" {
			return c.Send("Invalid format. Use: /remove_member <Name>")
		}
		handlerLogger = handlerLogger.WithField("member", name)

		removed, err := adminService.RemoveMember(ctx, c.Sender().ID, name)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, idb.ErrMemberNotFound):
				logWithError.Warn("Member to remove not found")
				return c.Send(fmt.Sprintf("No member named %s.", name))
			case errors.Is(err, app.ErrMemberAlreadyInactive):
				logWithError.Warn("Member already inactive")
				return c.Send(fmt.Sprintf("%s was already removed.", removed.Name))
			default:
				logWithError.Error("Failed to remove member")
				return c.Send(fmt.Sprintf("Failed to remove member: %s", err.Error()))
			}
		}

		handlerLogger.WithField("member_id", removed.ID).Info("Member removed (deactivated) successfully")
		return c.Send(fmt.Sprintf("%s removed from the roster.", removed.Name))
	}))

	b.Handle("/set_rank", adminHandler("/set_rank", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		// Expected format: /set_rank <Name> | <Rank>
		fields := splitFields(commandBody(c.Text()))
		if len(fields) != 2 || fields[0] == "" {
			return c.Send("Invalid format. Use: /set_rank <Name> | <Rank>")
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{"member": fields[0], "rank": fields[1]})

		updated, err := adminService.SetMemberRank(ctx, c.Sender().ID, fields[0], fields[1])
		if err != nil {
			if errors.Is(err, idb.ErrMemberNotFound) {
				handlerLogger.WithError(err).Warn("Member not found")
				return c.Send(fmt.Sprintf("No member named %s.", fields[0]))
			}
			handlerLogger.WithError(err).Error("Failed to set member rank")
			return c.Send(fmt.Sprintf("Failed to set rank: %s", err.Error()))
		}
		handlerLogger.Info("Member rank updated")
		return c.Send("Updated: " + describeMember(updated))
	}))

	b.Handle("/list_members", adminHandler("/list_members", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		// Optional argument: 'active' or 'all'
		listType := "active"
		if arg := strings.ToLower(commandBody(c.Text())); arg != "" {
			listType = arg
		}
		handlerLogger = handlerLogger.WithField("list_type", listType)

		var (
			members []*member.Member
			err     error
			title   string
		)
		switch listType {
		case "active":
			title = "Active members"
			members, err = adminService.ListActiveMembers(ctx, c.Sender().ID)
		case "all":
			title = "All members"
			members, err = adminService.ListAllMembers(ctx, c.Sender().ID)
		default:
			handlerLogger.Warn("Invalid list type argument")
			return c.Send("Invalid argument. Use 'active' or 'all', or leave it empty for active members.")
		}
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to get list of members")
			return c.Send(fmt.Sprintf("Failed to list members: %s", err.Error()))
		}
		if len(members) == 0 {
			return c.Send("The roster is empty.")
		}

		handlerLogger.WithField("members_count", len(members)).Info("Successfully retrieved member list")
		var response strings.Builder
		response.WriteString(fmt.Sprintf("--- %s (%d) ---\n", title, len(members)))
		for _, m := range members {
			response.WriteString(describeMember(m))
			response.WriteByte('\n')
		}
		return c.Send(truncateMessage(response.String()))
	}))

	b.Handle("/rules", adminHandler("/rules", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		st, err := adminService.GetSettings(c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to get settings")
			return c.Send(notAllowedText)
		}
		return c.Send(app.FormatRules(promotion.ParseRules(st.Rules), st.EligibleRanks, st.IgnoredUsers, st.MuteNotifications))
	}))

	b.Handle("/set_rules", adminHandler("/set_rules", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		rules := commandBody(c.Text())
		if rules == "" {
			return c.Send("Send the rules on the lines after the command, one days=rank per line:\n/set_rules\n7=Recruit\n30=Corporal")
		}
		table := promotion.ParseRules(rules)
		if table.Len() == 0 {
			handlerLogger.Warn("Rejected rules text without valid rules")
			return c.Send("No valid days=rank lines found; rules not changed.")
		}
		report, err := adminService.UpdateRules(ctx, c.Sender().ID, rules)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to update rules")
			return c.Send(fmt.Sprintf("Failed to save rules: %s", err.Error()))
		}
		handlerLogger.WithField("rules", table.Len()).Info("Rules updated")
		return settingsReply(c, fmt.Sprintf("%d rules", table.Len()), report)
	}))

	b.Handle("/set_eligible", adminHandler("/set_eligible", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		report, err := adminService.UpdateEligibleRanks(ctx, c.Sender().ID, commandBody(c.Text()))
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to update eligible ranks")
			return c.Send(fmt.Sprintf("Failed to save eligible ranks: %s", err.Error()))
		}
		return settingsReply(c, "Eligible ranks", report)
	}))

	b.Handle("/set_ignored", adminHandler("/set_ignored", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		report, err := adminService.UpdateIgnoredUsers(ctx, c.Sender().ID, commandBody(c.Text()))
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to update ignore list")
			return c.Send(fmt.Sprintf("Failed to save ignore list: %s", err.Error()))
		}
		return settingsReply(c, "Ignore list", report)
	}))

	b.Handle("/ignore", adminHandler("/ignore", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		name := commandBody(c.Text())
		report, err := adminService.IgnoreMember(ctx, c.Sender().ID, name)
		if err != nil {
			if errors.Is(err, app.ErrEmptyMemberName) {
				return c.Send("Invalid format. Use: /ignore <Name>")
			}
			handlerLogger.WithError(err).Error("Failed to ignore member")
			return c.Send(fmt.Sprintf("Failed to ignore member: %s", err.Error()))
		}
		return settingsReply(c, "Ignore list", report)
	}))

	for command, mute := range map[string]bool{"/mute": true, "/unmute": false} {
		mute := mute
		b.Handle(command, adminHandler(command, adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
			if _, err := adminService.SetMute(ctx, c.Sender().ID, mute); err != nil {
				handlerLogger.WithError(err).Error("Failed to change mute setting")
				return c.Send(fmt.Sprintf("Failed to change notifications: %s", err.Error()))
			}
			if mute {
				return c.Send("Notifications muted. Due members are still tracked; use /check to see them.")
			}
			return c.Send("Notifications enabled.")
		}))
	}

	b.Handle("/history", adminHandler("/history", adminService, baseLogger, func(c telebot.Context, handlerLogger *logrus.Entry) error {
		// Optional argument: a number (limit) or a member name
		arg := commandBody(c.Text())
		limit, convErr := strconv.Atoi(arg)

		var err error
		var text string
		switch {
		case arg == "" || convErr == nil:
			deliveries, listErr := adminService.History(ctx, c.Sender().ID, limit)
			text, err = app.FormatHistory(deliveries), listErr
		default:
			deliveries, listErr := adminService.MemberHistory(ctx, c.Sender().ID, []string{arg}, 0)
			text, err = app.FormatHistory(deliveries), listErr
		}
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list delivery history")
			return c.Send(fmt.Sprintf("Failed to load history: %s", err.Error()))
		}
		return c.Send(truncateMessage(text))
	}))
}
