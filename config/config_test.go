package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/agenterr"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	args, err := cfg.CommandArgs(agenterr.AgentClaude)
	require.NoError(t, err)
	assert.Equal(t, "claude", args[0])
	assert.Contains(t, args, "stream-json")
	assert.Equal(t, 256, cfg.EventBuffer)
}

func TestLoad_OverridesMergeWithDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "agentcore.yaml")
	doc := `
agents:
  codex:
    command: "/opt/codex/bin/codex exec --experimental-json --profile ci"
event_buffer: 64
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	args, err := cfg.CommandArgs(agenterr.AgentCodex)
	require.NoError(t, err)
	assert.Equal(t, "/opt/codex/bin/codex", args[0])
	assert.Contains(t, args, "--profile")

	// Untouched agents keep their defaults.
	args, err = cfg.CommandArgs(agenterr.AgentClaude)
	require.NoError(t, err)
	assert.Equal(t, "claude", args[0])

	assert.Equal(t, 64, cfg.EventBuffer)
}

func TestCommandArgs_ShellQuoting(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Agents["custom"] = AgentConfig{Command: `mytool --system-prompt "be very careful" run`}

	args, err := cfg.CommandArgs("custom")
	require.NoError(t, err)
	assert.Equal(t, []string{"mytool", "--system-prompt", "be very careful", "run"}, args)
}

func TestCommandArgs_UnknownAgent(t *testing.T) {
	t.Parallel()
	_, err := Default().CommandArgs("nope")
	assert.Error(t, err)
}

func TestApplyPatterns_OverridesEvaluateFirst(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Patterns = map[string]map[string][]PatternConfig{
		agenterr.AgentClaude: {
			"rate_limited": {
				{Match: `capacity constrained`, Message: "Custom throttle message.", Recoverable: true},
			},
		},
	}

	reg := agenterr.NewRegistry()
	agenterr.RegisterBuiltins(reg)
	require.NoError(t, cfg.ApplyPatterns(reg))

	table := reg.Get(agenterr.AgentClaude)

	cls, ok := table.Match("the service is capacity constrained right now")
	require.True(t, ok)
	assert.Equal(t, "Custom throttle message.", cls.Message)

	// Built-ins survive alongside the override.
	cls, ok = table.Match("rate limit exceeded")
	require.True(t, ok)
	assert.Equal(t, agenterr.CategoryRateLimited, cls.Category)
}

func TestApplyPatterns_RejectsUnknownCategory(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Patterns = map[string]map[string][]PatternConfig{
		agenterr.AgentClaude: {"not_a_category": {{Match: "x", Message: "y"}}},
	}

	err := cfg.ApplyPatterns(agenterr.NewRegistry())
	assert.Error(t, err)
}

func TestApplyPatterns_RejectsBadRegexp(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Patterns = map[string]map[string][]PatternConfig{
		agenterr.AgentClaude: {"network_error": {{Match: "(", Message: "y"}}},
	}

	err := cfg.ApplyPatterns(agenterr.NewRegistry())
	assert.Error(t, err)
}
