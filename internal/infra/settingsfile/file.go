// Package settingsfile lets operators keep the rank settings in a YAML file
// next to the deployment instead of editing them through the bot.
package settingsfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"clan_rank_notifier/internal/domain/settings"

	yaml "go.yaml.in/yaml/v3"
)

// File is the on-disk shape. Keys that are absent leave the stored value alone.
//
//	rules: |
//	  7=Recruit
//	  30=Corporal
//	eligible_ranks: [Recruit, Corporal]
//	ignored_users: "Alice, Bob"
//	mute_notifications: false
type File struct {
	Rules             *string  `yaml:"rules"`
	EligibleRanks     *csvList `yaml:"eligible_ranks"`
	IgnoredUsers      *csvList `yaml:"ignored_users"`
	MuteNotifications *bool    `yaml:"mute_notifications"`
}

// csvList accepts either a comma-separated string or a YAML sequence and
// stores it in the comma-separated form the settings use.
type csvList string

func (c *csvList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = csvList(strings.TrimSpace(node.Value))
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				parts = append(parts, it)
			}
		}
		*c = csvList(strings.Join(parts, ", "))
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list", node.Line)
	}
}

// Parse decodes YAML settings, rejecting unknown keys and trailing documents.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil // empty file changes nothing
		}
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("invalid settings file: more than one document")
		}
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return &f, nil
}

// Load reads and parses the settings file at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Apply copies the keys present in f onto st and reports whether anything changed.
func (f *File) Apply(st *settings.Settings) bool {
	changed := false
	if f.Rules != nil && *f.Rules != st.Rules {
		st.Rules = *f.Rules
		changed = true
	}
	if f.EligibleRanks != nil && string(*f.EligibleRanks) != st.EligibleRanks {
		st.EligibleRanks = string(*f.EligibleRanks)
		changed = true
	}
	if f.IgnoredUsers != nil && string(*f.IgnoredUsers) != st.IgnoredUsers {
		st.IgnoredUsers = string(*f.IgnoredUsers)
		changed = true
	}
	if f.MuteNotifications != nil && *f.MuteNotifications != st.MuteNotifications {
		st.MuteNotifications = *f.MuteNotifications
		changed = true
	}
	return changed
}
