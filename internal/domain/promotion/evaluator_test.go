package promotion

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clan_rank_notifier/internal/domain/member"
	"clan_rank_notifier/internal/domain/settings"
)

var today = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

func joinedDaysAgo(name string, days int, rank string) member.Member {
	m := member.Member{
		Name:     name,
		JoinDate: sql.NullTime{Time: today.AddDate(0, 0, -days), Valid: true},
		IsActive: true,
	}
	if rank != "" {
		m.RankTitle = sql.NullString{String: rank, Valid: true}
	}
	return m
}

func dueNames(res Result) []string {
	names := make([]string, 0, len(res.Due))
	for _, d := range res.Due {
		names = append(names, d.Name)
	}
	return names
}

func TestEvaluateEndToEnd(t *testing.T) {
	table := ParseRules("7=Recruit\n30=Corporal")
	filters := NewFilterSets("recruit", "")
	members := []member.Member{
		joinedDaysAgo("Ten", 10, "Recruit"),
		joinedDaysAgo("ThirtyFive", 35, "Recruit"),
	}

	res := Evaluate(table, filters, members, today, NewNotificationState())

	require.Len(t, res.Due, 1)
	assert.Equal(t, DueRecord{Name: "ThirtyFive", DaysElapsed: 35, TargetRank: "Corporal", CurrentRank: "Recruit"}, res.Due[0])
	assert.Equal(t, []Notification{{Name: "ThirtyFive", DaysElapsed: 35, TargetRank: "Corporal", CurrentRank: "Recruit"}}, res.Notifications)
}

func TestEvaluateSkipsUnresolvableMembers(t *testing.T) {
	table := ParseRules("0=Recruit\n30=Corporal")
	noJoin := joinedDaysAgo("NoJoin", 40, "Recruit")
	noJoin.JoinDate = sql.NullTime{}
	blankRank := joinedDaysAgo("BlankRank", 40, "")
	blankRank.RankTitle = sql.NullString{String: "  ", Valid: true}

	members := []member.Member{
		joinedDaysAgo("", 40, "Recruit"),
		joinedDaysAgo("   ", 40, "Recruit"),
		noJoin,
		joinedDaysAgo("NoRank", 40, ""),
		blankRank,
		joinedDaysAgo("Valid", 40, "Recruit"),
	}

	res := Evaluate(table, NewFilterSets("", ""), members, today, nil)
	assert.Equal(t, []string{"Valid"}, dueNames(res))
}

func TestEvaluateNoMatchingRule(t *testing.T) {
	table := ParseRules("7=Recruit")
	members := []member.Member{
		joinedDaysAgo("New", 3, "Guest"),
		joinedDaysAgo("Future", -5, "Guest"),
	}

	res := Evaluate(table, NewFilterSets("", ""), members, today, nil)
	assert.Empty(t, res.Due)
	assert.Empty(t, res.Notifications)
}

func TestEvaluateFutureJoinDateWithNegativeRule(t *testing.T) {
	table := ParseRules("-10=Applicant")
	res := Evaluate(table, NewFilterSets("", ""), []member.Member{joinedDaysAgo("Early", -2, "Guest")}, today, nil)

	require.Len(t, res.Due, 1)
	assert.Equal(t, -2, res.Due[0].DaysElapsed)
}

func TestEvaluateAlreadyCorrectRankNeverDue(t *testing.T) {
	table := ParseRules("30=Corporal")
	members := []member.Member{
		joinedDaysAgo("Same", 40, "corporal"),
		joinedDaysAgo("Padded", 40, "  CORPORAL "),
	}

	res := Evaluate(table, NewFilterSets("", ""), members, today, nil)
	assert.Empty(t, res.Due)
}

func TestEvaluateIgnoredMemberNeverDue(t *testing.T) {
	table := ParseRules("30=Corporal")
	members := []member.Member{
		joinedDaysAgo("Alice", 40, "Recruit"),
		joinedDaysAgo("Bob", 40, "Recruit"),
	}

	res := Evaluate(table, NewFilterSets("", "ALICE"), members, today, nil)
	assert.Equal(t, []string{"Bob"}, dueNames(res))
}

func TestEvaluateEligibleRanks(t *testing.T) {
	table := ParseRules("30=General")
	members := []member.Member{
		joinedDaysAgo("R", 40, "Recruit"),
		joinedDaysAgo("C", 40, "Corporal"),
		joinedDaysAgo("S", 40, "Sergeant"),
	}

	all := Evaluate(table, NewFilterSets("", ""), members, today, nil)
	assert.Equal(t, []string{"R", "C", "S"}, dueNames(all))

	some := Evaluate(table, NewFilterSets("RECRUIT, sergeant", ""), members, today, nil)
	assert.Equal(t, []string{"R", "S"}, dueNames(some))
}

func TestEvaluateSortsByTenureDescendingStable(t *testing.T) {
	table := ParseRules("0=Member")
	members := []member.Member{
		joinedDaysAgo("a", 10, "Guest"),
		joinedDaysAgo("b", 45, "Guest"),
		joinedDaysAgo("c", 45, "Guest"),
		joinedDaysAgo("d", 3, "Guest"),
	}

	res := Evaluate(table, NewFilterSets("", ""), members, today, nil)

	days := make([]int, 0, len(res.Due))
	for _, d := range res.Due {
		days = append(days, d.DaysElapsed)
	}
	assert.Equal(t, []int{45, 45, 10, 3}, days)
	assert.Equal(t, []string{"b", "c", "a", "d"}, dueNames(res))

	// notifications keep roster order
	require.Len(t, res.Notifications, 4)
	assert.Equal(t, "a", res.Notifications[0].Name)
}

func TestEvaluateNotificationDedup(t *testing.T) {
	table := ParseRules("7=Recruit\n30=Corporal")
	members := []member.Member{joinedDaysAgo("Alice", 35, "Recruit")}
	filters := NewFilterSets("", "")

	first := Evaluate(table, filters, members, today, NewNotificationState())
	require.Len(t, first.Notifications, 1)
	require.Len(t, first.Due, 1)

	second := Evaluate(table, filters, members, today.Add(5*time.Hour), first.State)
	assert.Empty(t, second.Notifications, "same day, same target rank")
	assert.Len(t, second.Due, 1, "still listed as due")

	tomorrow := Evaluate(table, filters, members, today.AddDate(0, 0, 1), second.State)
	assert.Len(t, tomorrow.Notifications, 1, "new day clears dedup state")
	assert.Equal(t, today.AddDate(0, 0, 1), tomorrow.State.Date())
}

func TestEvaluateNotifiesAgainWhenTargetChangesSameDay(t *testing.T) {
	members := []member.Member{joinedDaysAgo("Alice", 35, "Recruit")}
	filters := NewFilterSets("", "")

	first := Evaluate(ParseRules("30=Corporal"), filters, members, today, nil)
	require.Len(t, first.Notifications, 1)

	second := Evaluate(ParseRules("30=Sergeant"), filters, members, today, first.State)
	require.Len(t, second.Notifications, 1)
	assert.Equal(t, "Sergeant", second.Notifications[0].TargetRank)

	last, ok := second.State.LastNotified("Alice")
	require.True(t, ok)
	assert.Equal(t, "Sergeant", last)
}

func TestEvaluateDoesNotMutateInputState(t *testing.T) {
	state := NewNotificationState()
	res := Evaluate(ParseRules("30=Corporal"), NewFilterSets("", ""),
		[]member.Member{joinedDaysAgo("Alice", 35, "Recruit")}, today, state)

	assert.Zero(t, state.Len())
	assert.True(t, state.Date().IsZero())
	assert.Equal(t, 1, res.State.Len())
}

func TestEvaluateDedupsRepeatedNameWithinCall(t *testing.T) {
	filters := NewFilterSets("", "")
	members := []member.Member{
		joinedDaysAgo("Alice", 35, "Recruit"),
		joinedDaysAgo("Alice", 36, "Recruit"),
	}

	// both rows share a name: the second one is deduplicated by the first
	res := Evaluate(ParseRules("30=Corporal"), filters, members, today, nil)
	assert.Len(t, res.Due, 2)
	assert.Len(t, res.Notifications, 1)
}

func TestEvaluateResetsStateOncePerCall(t *testing.T) {
	table := ParseRules("30=Corporal")
	filters := NewFilterSets("", "")
	yesterday := today.AddDate(0, 0, -1)

	old := Evaluate(table, filters, []member.Member{
		joinedDaysAgo("Alice", 35, "Recruit"),
		joinedDaysAgo("Bob", 40, "Recruit"),
		joinedDaysAgo("Carol", 50, "Recruit"),
	}, yesterday, nil)
	require.Equal(t, 3, old.State.Len())

	res := Evaluate(table, filters, []member.Member{
		joinedDaysAgo("Alice", 35, "Recruit"),
		joinedDaysAgo("Dave", 31, "Recruit"),
	}, today, old.State)

	// yesterday's records are gone, and every entry added today is kept
	assert.Equal(t, today, res.State.Date())
	assert.Equal(t, 2, res.State.Len())
	assert.Len(t, res.Notifications, 2)
	_, ok := res.State.LastNotified("Bob")
	assert.False(t, ok)
	for _, name := range []string{"Alice", "Dave"} {
		last, ok := res.State.LastNotified(name)
		require.True(t, ok, name)
		assert.Equal(t, "Corporal", last)
	}
	assert.Equal(t, yesterday, old.State.Date(), "input state untouched")
	assert.Equal(t, 3, old.State.Len())
}

func TestForgetAllowsRenotifySameDay(t *testing.T) {
	table := ParseRules("30=Corporal")
	filters := NewFilterSets("", "")
	members := []member.Member{
		joinedDaysAgo("Alice", 35, "Recruit"),
		joinedDaysAgo("Bob", 40, "Recruit"),
	}

	first := Evaluate(table, filters, members, today, nil)
	require.Len(t, first.Notifications, 2)

	forgotten := first.State.Forget("Bob", "Corporal")
	assert.Equal(t, 2, first.State.Len(), "Forget returns a copy")
	assert.Equal(t, 1, forgotten.Len())
	assert.Equal(t, today, forgotten.Date())

	second := Evaluate(table, filters, members, today, forgotten)
	require.Len(t, second.Notifications, 1)
	assert.Equal(t, "Bob", second.Notifications[0].Name)
}

func TestForgetKeepsNewerRank(t *testing.T) {
	res := Evaluate(ParseRules("30=Sergeant"), NewFilterSets("", ""),
		[]member.Member{joinedDaysAgo("Alice", 35, "Recruit")}, today, nil)

	kept := res.State.Forget("Alice", "Corporal")
	last, ok := kept.LastNotified("Alice")
	require.True(t, ok)
	assert.Equal(t, "Sergeant", last)

	assert.Nil(t, (*NotificationState)(nil).Forget("Alice", "Corporal"))
}

func TestDaysBetweenUsesCalendarDates(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	joined := time.Date(2025, time.March, 1, 23, 59, 0, 0, loc)
	now := time.Date(2025, time.March, 2, 0, 1, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(joined, now))
	assert.Equal(t, -1, DaysBetween(now, joined))
}

func TestDaysBetweenAncientDates(t *testing.T) {
	joined := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 739251, DaysBetween(joined, now))
	assert.Equal(t, -739251, DaysBetween(now, joined))
}

func TestSnapshotEvaluate(t *testing.T) {
	snap := Compile(settings.Settings{
		Rules:         settings.DefaultRules,
		EligibleRanks: "Recruit",
		IgnoredUsers:  "bob",
	})
	require.Equal(t, 3, snap.Rules.Len())
	assert.False(t, snap.Mute)

	res := snap.Evaluate([]member.Member{
		joinedDaysAgo("Alice", 61, "Recruit"),
		joinedDaysAgo("Bob", 61, "Recruit"),
	}, today, nil)
	require.Len(t, res.Due, 1)
	assert.Equal(t, "Sergeant", res.Due[0].TargetRank)
}

func TestDueRecordString(t *testing.T) {
	r := DueRecord{Name: "Alice", DaysElapsed: 35, TargetRank: "Corporal", CurrentRank: "Recruit"}
	assert.Equal(t, "Alice, 35, Corporal, Recruit", r.String())
}
