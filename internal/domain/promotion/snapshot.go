package promotion

import (
	"time"

	"clan_rank_notifier/internal/domain/member"
	"clan_rank_notifier/internal/domain/settings"
)

// Snapshot is a compiled, read-only view of one version of the settings.
// A settings change produces a new Snapshot; existing ones are never edited.
type Snapshot struct {
	Settings settings.Settings
	Rules    *RuleTable
	Filters  FilterSets
	Mute     bool
}

func Compile(s settings.Settings) *Snapshot {
	return &Snapshot{
		Settings: s,
		Rules:    ParseRules(s.Rules),
		Filters:  NewFilterSets(s.EligibleRanks, s.IgnoredUsers),
		Mute:     s.MuteNotifications,
	}
}

// Evaluate runs Evaluate with the snapshot's rules and filters.
func (s *Snapshot) Evaluate(members []member.Member, today time.Time, state *NotificationState) Result {
	return Evaluate(s.Rules, s.Filters, members, today, state)
}
