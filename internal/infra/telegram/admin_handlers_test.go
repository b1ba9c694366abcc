package telegram

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"clan_rank_notifier/internal/domain/member"

	"github.com/stretchr/testify/assert"
)

func TestDescribeMember(t *testing.T) {
	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		m    member.Member
		want string
	}{
		{
			name: "full",
			m: member.Member{
				Name:      "Alice",
				JoinDate:  sql.NullTime{Time: joined, Valid: true},
				RankTitle: sql.NullString{String: "Recruit", Valid: true},
				IsActive:  true,
			},
			want: "Alice | joined 2024-01-15 | Recruit | active",
		},
		{
			name: "unknown date and rank",
			m:    member.Member{Name: "Bob"},
			want: "Bob | joined unknown | Not ranked | inactive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeMember(&tt.m))
		})
	}
}

func TestAdminHelpListsCommands(t *testing.T) {
	help := adminHelpText()
	for _, cmd := range []string{"/check", "/add_member", "/remove_member", "/set_rank", "/list_members",
		"/rules", "/set_rules", "/set_eligible", "/set_ignored", "/ignore", "/mute", "/unmute", "/history"} {
		assert.True(t, strings.Contains(help, cmd), "help should mention %s", cmd)
	}
}
