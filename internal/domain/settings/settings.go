package settings

import (
	"strings"
	"time"
)

// DefaultRules mirrors the rule text a fresh installation starts with.
var DefaultRules = strings.Join([]string{
	"# Days = RankName or RankNumber",
	"7=Recruit",
	"30=Corporal",
	"60=Sergeant",
}, "\n")

// Settings is the raw, user-editable configuration of the promotion checks.
// Everything is kept as text exactly as the user typed it; parsing happens
// when a snapshot is compiled.
type Settings struct {
	Rules             string // one "days=rank" rule per line
	EligibleRanks     string // comma-separated; empty means every rank is checked
	IgnoredUsers      string // comma-separated member names
	MuteNotifications bool
	UpdatedAt         time.Time
}

// Defaults returns the settings used before anything was saved.
func Defaults() Settings {
	return Settings{
		Rules:             DefaultRules,
		MuteNotifications: true,
	}
}
