package promotion

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"clan_rank_notifier/internal/domain/member"
)

// NotRanked is the label used for members whose rank has no title.
const NotRanked = "Not ranked"

const secondsPerDay = 24 * 60 * 60

// DueRecord is one member due for promotion.
type DueRecord struct {
	Name        string
	DaysElapsed int
	TargetRank  string
	CurrentRank string
}

func (r DueRecord) String() string {
	return fmt.Sprintf("%s, %d, %s, %s", r.Name, r.DaysElapsed, r.TargetRank, r.CurrentRank)
}

// Notification asks the caller to tell someone that a member is due.
// Whether it is actually delivered (mute) is up to the caller.
type Notification struct {
	Name        string
	DaysElapsed int
	TargetRank  string
	CurrentRank string
}

// Result is the outcome of one evaluation.
type Result struct {
	Due           []DueRecord // longest tenure first
	Notifications []Notification
	State         *NotificationState
}

// DateOf truncates t to its calendar date, keeping t's own location for the
// year/month/day split.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from joined to today. It is
// negative when joined is after today.
func DaysBetween(joined, today time.Time) int {
	// Unix seconds instead of Sub: Duration overflows past ~292 years.
	return int((DateOf(today).Unix() - DateOf(joined).Unix()) / secondsPerDay)
}

// Evaluate matches members against the rule table and filters as of today.
// Members without a name, join date or rank title, and members no rule
// applies to, are skipped. state is not modified: the returned Result.State
// replaces it, reset first when it belongs to a different day.
func Evaluate(table *RuleTable, filters FilterSets, members []member.Member, today time.Time, state *NotificationState) Result {
	today = DateOf(today)
	next := state.forDay(today)
	res := Result{State: next}

	for _, m := range members {
		name := m.Name
		if strings.TrimSpace(name) == "" {
			continue
		}
		if !m.JoinDate.Valid {
			continue
		}

		days := DaysBetween(m.JoinDate.Time, today)
		rule, ok := table.Lookup(days)
		if !ok {
			continue
		}

		current, ranked := rankLabel(m)
		if !ranked {
			continue
		}

		if !filters.IsEligible(current) ||
			strings.EqualFold(strings.TrimSpace(rule.TargetRank), current) ||
			filters.IsIgnored(name) {
			continue
		}

		res.Due = append(res.Due, DueRecord{
			Name:        name,
			DaysElapsed: days,
			TargetRank:  rule.TargetRank,
			CurrentRank: current,
		})

		if last, seen := next.notified[name]; seen && last == rule.TargetRank {
			continue
		}
		next.notified[name] = rule.TargetRank
		res.Notifications = append(res.Notifications, Notification{
			Name:        name,
			DaysElapsed: days,
			TargetRank:  rule.TargetRank,
			CurrentRank: current,
		})
	}

	sort.SliceStable(res.Due, func(i, j int) bool {
		return res.Due[i].DaysElapsed > res.Due[j].DaysElapsed
	})
	return res
}

// rankLabel returns the member's rank title, or NotRanked and false when the
// roster has none.
func rankLabel(m member.Member) (string, bool) {
	if !m.RankTitle.Valid {
		return NotRanked, false
	}
	title := strings.TrimSpace(m.RankTitle.String)
	if title == "" {
		return NotRanked, false
	}
	return title, true
}
