package promotion

import "strings"

// Set is a set of lowercase tokens.
type Set map[string]struct{}

// BuildSet splits csv on commas, trims and lowercases each token and drops
// empty ones.
func BuildSet(csv string) Set {
	out := make(Set)
	for _, p := range strings.Split(csv, ",") {
		t := strings.ToLower(strings.TrimSpace(p))
		if t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}

// Contains reports whether s holds v, compared case-insensitively.
func (s Set) Contains(v string) bool {
	_, ok := s[strings.ToLower(v)]
	return ok
}

// FilterSets holds the eligible-rank allowlist and the ignore list.
type FilterSets struct {
	EligibleRanks Set
	IgnoredUsers  Set
}

func NewFilterSets(eligibleCSV, ignoredCSV string) FilterSets {
	return FilterSets{
		EligibleRanks: BuildSet(eligibleCSV),
		IgnoredUsers:  BuildSet(ignoredCSV),
	}
}

// IsEligible reports whether members holding rank are checked at all.
// An empty allowlist lets every rank through.
func (f FilterSets) IsEligible(rank string) bool {
	return len(f.EligibleRanks) == 0 || f.EligibleRanks.Contains(rank)
}

// IsIgnored reports whether name is on the ignore list.
func (f FilterSets) IsIgnored(name string) bool {
	return f.IgnoredUsers.Contains(name)
}

// AddIgnored returns the ignore list text with name appended, unless an entry
// equal to it (ignoring case) is already present. Existing entries keep their
// order and spelling; the result is joined with ", ".
func AddIgnored(csv, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return csv
	}

	var entries []string
	exists := false
	for _, p := range strings.Split(csv, ",") {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		dup := false
		for _, e := range entries {
			if e == t {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if strings.EqualFold(t, n) {
			exists = true
		}
		entries = append(entries, t)
	}
	if !exists {
		entries = append(entries, n)
	}
	return strings.Join(entries, ", ")
}
