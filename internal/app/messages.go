package app

import (
	"fmt"
	"strings"

	"clan_rank_notifier/internal/domain/notification"
	"clan_rank_notifier/internal/domain/promotion"
)

const noPromotionsText = "No promotions due.\nSomething wrong? Please check the configuration with /rules."

// FormatNotification renders the message sent for one due member.
func FormatNotification(n promotion.Notification) string {
	return fmt.Sprintf("[Clan Rank] %s is %d days in clan → due for %s (current: %s)",
		n.Name, n.DaysElapsed, n.TargetRank, n.CurrentRank)
}

// FormatDueList renders a check report as a small table, longest tenure first.
func FormatDueList(report *CheckReport) string {
	if report == nil || len(report.Due) == 0 {
		return noPromotionsText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Members due: %d\n", len(report.Due))
	b.WriteString("Name | Days | Curr | Next\n")
	for _, d := range report.Due {
		fmt.Fprintf(&b, "%s | %d | %s | %s\n", d.Name, d.DaysElapsed, d.CurrentRank, d.TargetRank)
	}
	if report.Muted {
		b.WriteString("(notifications are muted)\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRules renders the active rule table and filters for /rules.
func FormatRules(table *promotion.RuleTable, eligibleCSV, ignoredCSV string, muted bool) string {
	var b strings.Builder
	if table.Len() == 0 {
		b.WriteString("No valid rules configured.\n")
	} else {
		b.WriteString("Rules (days=rank):\n")
		b.WriteString(table.String())
		b.WriteByte('\n')
	}

	eligible := strings.TrimSpace(eligibleCSV)
	if eligible == "" {
		eligible = "(all ranks)"
	}
	ignored := strings.TrimSpace(ignoredCSV)
	if ignored == "" {
		ignored = "(none)"
	}
	fmt.Fprintf(&b, "Eligible ranks: %s\n", eligible)
	fmt.Fprintf(&b, "Ignored users: %s\n", ignored)
	if muted {
		b.WriteString("Notifications: muted")
	} else {
		b.WriteString("Notifications: on")
	}
	return b.String()
}

// FormatHistory renders delivered notifications, newest first.
func FormatHistory(deliveries []*notification.Delivery) string {
	if len(deliveries) == 0 {
		return "No notifications delivered yet."
	}
	var b strings.Builder
	for _, d := range deliveries {
		fmt.Fprintf(&b, "%s: %s (%d days) %s → %s\n",
			d.NotifiedOn.Format("2006-01-02"), d.MemberName, d.DaysElapsed, d.CurrentRank, d.TargetRank)
	}
	return strings.TrimRight(b.String(), "\n")
}
