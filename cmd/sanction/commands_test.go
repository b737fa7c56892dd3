package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"101"}, []string{"101"}},
		{[]string{"101,104", "301"}, []string{"101", "104", "301"}},
		{[]string{" 101 , ", ""}, []string{"101"}},
		{[]string{"u1", "u1,u2"}, []string{"u1", "u2"}},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := splitIDs(tt.args); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitIDs(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

type cliResult struct {
	Punished     bool   `json:"punished"`
	DryRun       bool   `json:"dry_run"`
	OffenseCount int    `json:"offense_count"`
	Severity     string `json:"severity"`
	Violation    *struct {
		ID string `json:"id"`
	} `json:"violation"`
}

type cliStanding struct {
	Standing        string `json:"standing"`
	TotalViolations int    `json:"total_violations"`
}

// useTempStore points the CLI at a fresh sqlite file shared by every
// invocation in the test.
func useTempStore(t *testing.T) {
	t.Helper()
	t.Setenv("SANCTION_STORE_DRIVER", "sqlite3")
	t.Setenv("SANCTION_STORE_DSN", filepath.Join(t.TempDir(), "sanction.db"))
	t.Setenv("SANCTION_POLICY_DRY_RUN", "false")
	t.Setenv("SANCTION_DISCORD_TOKEN", "")
	t.Setenv("SANCTION_REDIS_URL", "")
	t.Setenv("SANCTION_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run(append([]string{"sanction"}, args...)))
	return out.String()
}

func evaluateJSON(t *testing.T, args ...string) cliResult {
	t.Helper()
	var res cliResult
	out := runCLI(t, append([]string{"evaluate", "--guild", "g1", "--user", "u1", "--json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func standingJSON(t *testing.T, user string) cliStanding {
	t.Helper()
	var st cliStanding
	out := runCLI(t, "standing", "--guild", "g1", "--user", user, "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &st), out)
	return st
}

func TestEvaluateCommand_DryRunUnlessLive(t *testing.T) {
	useTempStore(t)

	for i := 0; i < 2; i++ {
		res := evaluateJSON(t, "301")
		assert.True(t, res.DryRun)
		assert.True(t, res.Punished)
		assert.Nil(t, res.Violation)
		assert.Equal(t, 0, res.OffenseCount, "dry runs must not build up history")
	}
	assert.Equal(t, 0, standingJSON(t, "u1").TotalViolations)

	first := evaluateJSON(t, "--live", "301")
	assert.False(t, first.DryRun)
	require.NotNil(t, first.Violation)
	assert.NotEmpty(t, first.Violation.ID)
	assert.Equal(t, 0, first.OffenseCount)

	second := evaluateJSON(t, "--live", "301")
	assert.Equal(t, 1, second.OffenseCount)
	assert.Equal(t, "MEDIUM", second.Severity)

	preview := evaluateJSON(t, "301")
	assert.True(t, preview.DryRun)
	assert.Equal(t, 2, preview.OffenseCount, "dry runs read the live history")
	assert.Equal(t, 2, standingJSON(t, "u1").TotalViolations)
}

func TestEvaluateCommand_Alert(t *testing.T) {
	useTempStore(t)

	out := runCLI(t, "evaluate", "--guild", "g1", "--user", "u1", "101,104")
	assert.Contains(t, out, "would be")
	assert.Contains(t, out, "[DRY RUN] Automated moderation")
}

func TestStandingCommand_SeveralUsers(t *testing.T) {
	useTempStore(t)
	evaluateJSON(t, "--live", "103")

	var all map[string]cliStanding
	out := runCLI(t, "standing", "--guild", "g1", "--user", "u1", "--user", "u2", "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &all), out)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all["u1"].TotalViolations)
	assert.Equal(t, "ALL_GOOD", all["u2"].Standing)

	text := runCLI(t, "standing", "--guild", "g1", "--user", "u1,u2")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "u1: "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "u2: "), lines[1])
}

func TestRulesCommand(t *testing.T) {
	out := runCLI(t, "rules")
	assert.True(t, strings.HasPrefix(out, "ID"))
	assert.Contains(t, out, "101")
}
