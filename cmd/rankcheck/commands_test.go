package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoster = `members:
  - name: Alice
    joined: 2024-01-01
    rank: Recruit
  - name: Bob
    joined: 2024-01-20
    rank: Recruit
  - name: Carol
    joined: 2024-02-20
    rank: Recruit
  - name: Dave
    rank: Recruit
  - name: Eve
    joined: yesterday
    rank: Recruit
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEvaluateCmdFlags(t *testing.T) {
	cmd := evaluateCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "evaluate", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	rosterFlag := cmd.Flags().Lookup("roster")
	require.NotNil(t, rosterFlag)
	assert.Equal(t, "r", rosterFlag.Shorthand)

	outputFlag := cmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "table", outputFlag.DefValue)
}

func TestEvaluateJSON(t *testing.T) {
	roster := writeFile(t, "roster.yaml", testRoster)
	rules := writeFile(t, "rules.txt", "7=Recruit\n30=Corporal\n")

	stdout, stderr, err := execute(t, "evaluate", "--roster", roster, "--rules", rules, "--today", "2024-03-01", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `Eve: invalid join date "yesterday"`)

	var out evaluateOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "2024-03-01", out.Date)
	assert.Equal(t, 2, out.Rules)
	// Carol (10 days) is already a Recruit; Dave has no join date.
	assert.Equal(t, []dueOutput{
		{Name: "Alice", DaysElapsed: 60, TargetRank: "Corporal", CurrentRank: "Recruit"},
		{Name: "Bob", DaysElapsed: 41, TargetRank: "Corporal", CurrentRank: "Recruit"},
	}, out.Due)
}

func TestEvaluateIgnoredFlagOverridesSettingsFile(t *testing.T) {
	roster := writeFile(t, "roster.yaml", testRoster)
	settingsPath := writeFile(t, "ranks.yaml", "rules: \"30=Corporal\"\nignored_users: [Bob]\n")

	stdout, _, err := execute(t, "evaluate", "--roster", roster, "--settings", settingsPath, "--today", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Alice")
	assert.NotContains(t, stdout, "Bob")

	stdout, _, err = execute(t, "evaluate", "--roster", roster, "--settings", settingsPath, "--ignored", "alice", "--today", "2024-03-01")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Alice")
	assert.Contains(t, stdout, "Bob")
}

func TestEvaluateNothingDue(t *testing.T) {
	roster := writeFile(t, "roster.yaml", testRoster)
	stdout, _, err := execute(t, "evaluate", "--roster", roster, "--eligible", "Sergeant", "--today", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "No promotions due on 2024-03-01.\n", stdout)
}

func TestEvaluateErrors(t *testing.T) {
	roster := writeFile(t, "roster.yaml", testRoster)
	emptyRules := writeFile(t, "rules.txt", "# nothing here\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing roster flag", []string{"evaluate"}},
		{"bad date", []string{"evaluate", "--roster", roster, "--today", "01/03/2024"}},
		{"no rules", []string{"evaluate", "--roster", roster, "--rules", emptyRules}},
		{"bad format", []string{"evaluate", "--roster", roster, "-o", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestIgnoreCmd(t *testing.T) {
	stdout, _, err := execute(t, "ignore", "--list", "Alice, Bob", "Carol")
	require.NoError(t, err)
	assert.Equal(t, "Alice, Bob, Carol\n", stdout)

	stdout, _, err = execute(t, "ignore", "--list", "Alice, Bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice, Bob\n", stdout)
}

func TestRulesCmd(t *testing.T) {
	rules := writeFile(t, "rules.txt", "# Days = Rank\n60=Sergeant\n7=Recruit\nbad line\n30=Corporal\n")
	stdout, _, err := execute(t, "rules", rules)
	require.NoError(t, err)
	assert.Equal(t, "7=Recruit\n30=Corporal\n60=Sergeant\n", stdout)
}

func TestRulesCmdStdin(t *testing.T) {
	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader("14=Scout\n"))
	cmd.SetArgs([]string{"rules", "-"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "14=Scout\n", stdout.String())
}
