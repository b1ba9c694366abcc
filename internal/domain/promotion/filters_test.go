package promotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSet(t *testing.T) {
	set := BuildSet(" Recruit,corporal , ,RECRUIT,,20")
	assert.Len(t, set, 3)
	assert.True(t, set.Contains("recruit"))
	assert.True(t, set.Contains("Corporal"))
	assert.True(t, set.Contains("20"))

	assert.Empty(t, BuildSet(""))
	assert.Empty(t, BuildSet(" , ,"))
}

func TestEligibilityEmptySetIsWildcard(t *testing.T) {
	f := NewFilterSets("", "")
	for _, rank := range []string{"Recruit", "General", "20", "anything"} {
		assert.True(t, f.IsEligible(rank), rank)
	}
	assert.False(t, f.IsIgnored("Alice"), "empty ignore list ignores nobody")
}

func TestEligibilityNonEmptySet(t *testing.T) {
	f := NewFilterSets("Recruit, Corporal", "")
	assert.True(t, f.IsEligible("RECRUIT"))
	assert.True(t, f.IsEligible("corporal"))
	assert.False(t, f.IsEligible("Sergeant"))
}

func TestIsIgnoredCaseInsensitive(t *testing.T) {
	f := NewFilterSets("", "Alice, bob")
	assert.True(t, f.IsIgnored("alice"))
	assert.True(t, f.IsIgnored("BOB"))
	assert.False(t, f.IsIgnored("Carol"))
}

func TestAddIgnored(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		add  string
		want string
	}{
		{name: "already present ignoring case", csv: "Alice, Bob", add: "alice", want: "Alice, Bob"},
		{name: "appended at end", csv: "Alice", add: "Carol", want: "Alice, Carol"},
		{name: "empty list", csv: "", add: "Carol", want: "Carol"},
		{name: "name trimmed", csv: "Alice", add: "  Carol ", want: "Alice, Carol"},
		{name: "list normalised", csv: " Bob ,, Alice,Bob", add: "Dave", want: "Bob, Alice, Dave"},
		{name: "blank name leaves input", csv: "Alice,Bob", add: "  ", want: "Alice,Bob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddIgnored(tt.csv, tt.add))
		})
	}
}
