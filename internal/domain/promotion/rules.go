package promotion

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// Rule maps a tenure threshold to the rank a member should hold from then on.
type Rule struct {
	ThresholdDays int
	TargetRank    string
}

// RuleTable is an immutable, ascending set of rules keyed by threshold.
type RuleTable struct {
	rules []Rule
}

// ParseRules builds a RuleTable from rule text. It never fails: lines that
// are not exactly "<integer>=<rank>" are skipped so that one typo does not
// disable the remaining rules. Thresholds are not range-checked.
// When a threshold appears more than once the last line wins.
func ParseRules(raw string) *RuleTable {
	byDays := make(map[int]string)
	for _, line := range lineBreak.Split(raw, -1) {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		parts := strings.Split(s, "=")
		if len(parts) != 2 {
			continue
		}
		days, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		rank := strings.TrimSpace(parts[1])
		if rank == "" {
			continue
		}
		byDays[days] = rank
	}

	rules := make([]Rule, 0, len(byDays))
	for days, rank := range byDays {
		rules = append(rules, Rule{ThresholdDays: days, TargetRank: rank})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ThresholdDays < rules[j].ThresholdDays })
	return &RuleTable{rules: rules}
}

// Lookup returns the rule with the greatest threshold not exceeding days.
func (t *RuleTable) Lookup(days int) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	// first index whose threshold is beyond days
	i := sort.Search(len(t.rules), func(i int) bool { return t.rules[i].ThresholdDays > days })
	if i == 0 {
		return Rule{}, false
	}
	return t.rules[i-1], true
}

func (t *RuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the rules in ascending threshold order.
func (t *RuleTable) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// String renders the table back as canonical rule text.
func (t *RuleTable) String() string {
	if t.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range t.rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d=%s", r.ThresholdDays, r.TargetRank)
	}
	return b.String()
}
