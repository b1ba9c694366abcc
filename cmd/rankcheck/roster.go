package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"clan_rank_notifier/internal/domain/member"

	yaml "go.yaml.in/yaml/v3"
)

// rosterFile is the YAML roster format:
//
//	members:
//	  - name: Alice
//	    joined: 2024-01-15
//	    rank: Recruit
type rosterFile struct {
	Members []rosterEntry `yaml:"members"`
}

type rosterEntry struct {
	Name   string `yaml:"name"`
	Joined string `yaml:"joined"`
	Rank   string `yaml:"rank"`
}

// loadRoster reads a roster file. Entries with a missing or unparsable join
// date are kept with an unknown date so the evaluator skips them the same way
// it skips such members in the bot.
func loadRoster(path string) ([]member.Member, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read roster: %w", err)
	}
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	var warnings []string
	members := make([]member.Member, 0, len(rf.Members))
	for i, e := range rf.Members {
		m := member.Member{ID: int64(i + 1), Name: e.Name, IsActive: true}
		if joined := strings.TrimSpace(e.Joined); joined != "" {
			t, err := time.Parse("2006-01-02", joined)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: invalid join date %q", e.Name, joined))
			} else {
				m.JoinDate = sql.NullTime{Time: t, Valid: true}
			}
		}
		if rank := strings.TrimSpace(e.Rank); rank != "" {
			m.RankTitle = sql.NullString{String: rank, Valid: true}
		}
		members = append(members, m)
	}
	return members, warnings, nil
}
