package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/agenterr"
)

func TestErrorFromExit_CleanExit(t *testing.T) {
	t.Parallel()
	_, ok := ErrorFromExit(agenterr.AgentClaude, 0, "", `{"type":"result"}`)
	assert.False(t, ok)
}

func TestErrorFromExit_ZeroExitStderrOnlyPatternMatch(t *testing.T) {
	t.Parallel()

	// The anomalous shape: exit 0, nothing on stdout, a recognizable
	// failure on stderr. Must classify by pattern, not as a generic crash.
	err, ok := ErrorFromExit(agenterr.AgentClaude, 0, "Error: OAuth token has expired.", "")
	require.True(t, ok)
	assert.Equal(t, agenterr.CategoryAuthExpired, err.Category)
	assert.True(t, err.Recoverable)
}

func TestErrorFromExit_ZeroExitStderrOnlyNoMatch(t *testing.T) {
	t.Parallel()
	stderr := "\n  --- \n" +
		"  12 | const settings = load()\n" +
		"MODEL=opus\n" +
		"could not locate a settings file in the project root\n"

	err, ok := ErrorFromExit(agenterr.AgentClaude, 0, stderr, "")
	require.True(t, ok)
	assert.Equal(t, agenterr.CategoryAgentCrashed, err.Category)
	// The prose line wins over source context and assignments.
	assert.Contains(t, err.Message, "could not locate")
}

func TestErrorFromExit_ZeroExitWithStdoutIsSuccess(t *testing.T) {
	t.Parallel()

	// Warnings on stderr alongside real stdout output are not failures.
	_, ok := ErrorFromExit(agenterr.AgentClaude, 0, "warning: slow disk", `{"type":"result"}`)
	assert.False(t, ok)
}

func TestErrorFromExit_NonZeroPatternMatch(t *testing.T) {
	t.Parallel()
	err, ok := ErrorFromExit(agenterr.AgentCodex, 1, "Rate limit reached for requests", "")
	require.True(t, ok)
	assert.Equal(t, agenterr.CategoryRateLimited, err.Category)
}

func TestErrorFromExit_Killed(t *testing.T) {
	t.Parallel()
	err, ok := ErrorFromExit(agenterr.AgentGemini, 137, "", "")
	require.True(t, ok)
	assert.Equal(t, agenterr.CategoryAgentCrashed, err.Category)
	assert.Contains(t, err.Message, "137")
	assert.False(t, err.Recoverable)
}

func TestErrorFromExit_RawContextTruncated(t *testing.T) {
	t.Parallel()
	err, ok := ErrorFromExit(agenterr.AgentClaude, 2, strings.Repeat("x", 10_000), "")
	require.True(t, ok)
	assert.LessOrEqual(t, len(err.RawContext), stderrExcerptLimit+3)
}

func TestClassifyStructured_UnknownFallback(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"error","message":"something odd happened"}`)
	err := ClassifyStructured(agenterr.AgentClaude, "something odd happened", map[string]interface{}{"type": "error"}, raw)
	require.NotNil(t, err)
	assert.Equal(t, agenterr.CategoryUnknown, err.Category)
	assert.True(t, err.Recoverable, "unknown structured errors default to recoverable")
	assert.Equal(t, "something odd happened", err.Message)
}

func TestClassifyStructured_PatternWins(t *testing.T) {
	t.Parallel()
	err := ClassifyStructured(agenterr.AgentClaude, "API Error: rate limit exceeded", nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, agenterr.CategoryRateLimited, err.Category)
}
