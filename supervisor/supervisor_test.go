package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/agenterr"
	"agentcore/config"
	"agentcore/stream"

	_ "agentcore/parse/claudefmt"
)

// writeScript installs a fake agent CLI as a shell script.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newTestSupervisor(t *testing.T, script string) *Supervisor {
	t.Helper()
	cfg := config.Default()
	cfg.Agents[agenterr.AgentClaude] = config.AgentConfig{Command: "/bin/sh " + script}
	return New(Options{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func collect(t *testing.T, sess *Session) (events []stream.Event, agentErrs []*agenterr.AgentError) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	evCh, errCh := sess.Events(), sess.Errors()
	for evCh != nil || errCh != nil {
		select {
		case ev, ok := <-evCh:
			if !ok {
				evCh = nil
				continue
			}
			events = append(events, ev)
		case ae, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			agentErrs = append(agentErrs, ae)
		case <-deadline:
			t.Fatal("timed out draining session")
		}
	}
	return events, agentErrs
}

func TestStart_StreamsEventsInOrder(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"system","subtype":"init","session_id":"abc","model":"m1","cwd":"/tmp"}'
echo '{"type":"assistant","session_id":"abc","message":{"content":[{"type":"text","text":"hello"}]}}'
echo '{"type":"result","subtype":"success","is_error":false,"result":"done","duration_ms":5,"usage":{"input_tokens":100,"output_tokens":40},"total_cost_usd":0.01,"session_id":"abc"}'
`)
	sup := newTestSupervisor(t, script)

	sess, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	events, agentErrs := collect(t, sess)
	require.Empty(t, agentErrs)
	require.Len(t, events, 3)
	assert.Equal(t, stream.KindInit, events[0].Kind())
	assert.Equal(t, stream.KindText, events[1].Kind())
	assert.Equal(t, stream.KindResult, events[2].Kind())

	require.NoError(t, sess.Wait(context.Background()))
	assert.Equal(t, StateExited, sess.State())
	assert.Equal(t, 0, sess.ExitCode())
	assert.Equal(t, "abc", sess.AgentSessionID())

	usage := sess.Usage()
	assert.Equal(t, 100, usage.InputTokens)
	assert.Equal(t, 40, usage.OutputTokens)
	assert.InDelta(t, 0.01, usage.CostUSD, 1e-9)
}

func TestStart_StructuredErrorOnErrorChannel(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"result","subtype":"error","is_error":true,"result":"usage limit reached","session_id":"abc"}'
`)
	sup := newTestSupervisor(t, script)

	sess, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)

	events, agentErrs := collect(t, sess)

	require.Len(t, agentErrs, 1)
	assert.Equal(t, agenterr.CategoryTokenExhaustion, agentErrs[0].Category)

	// The error-flagged result still arrives as an event, in stream position.
	require.Len(t, events, 1)
	result, ok := events[0].(stream.ResultEvent)
	require.True(t, ok)
	assert.True(t, result.Failed)

	require.NoError(t, sess.Wait(context.Background()))
	assert.Equal(t, StateExited, sess.State())
}

func TestStart_NonZeroExitYieldsCrashError(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo boom >&2
exit 3
`)
	sup := newTestSupervisor(t, script)

	sess, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)

	_, agentErrs := collect(t, sess)
	require.Len(t, agentErrs, 1)
	assert.Equal(t, agenterr.CategoryAgentCrashed, agentErrs[0].Category)
	assert.Contains(t, agentErrs[0].Message, "code 3")

	require.NoError(t, sess.Wait(context.Background()))
	assert.Equal(t, StateFailed, sess.State())
	assert.Equal(t, 3, sess.ExitCode())
}

func TestStart_ExitPatternBeatsGenericCrash(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo 'rate limit exceeded, retry later' >&2
exit 1
`)
	sup := newTestSupervisor(t, script)

	sess, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)

	_, agentErrs := collect(t, sess)
	require.Len(t, agentErrs, 1)
	assert.Equal(t, agenterr.CategoryRateLimited, agentErrs[0].Category)
	assert.True(t, agentErrs[0].Recoverable)
}

func TestKill_TerminatesSession(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `sleep 30`)
	sup := newTestSupervisor(t, script)

	sess, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)

	require.NoError(t, sess.Kill())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))
	assert.Equal(t, StateKilled, sess.State())

	// A second Kill on a terminated session reports the state mismatch.
	assert.ErrorIs(t, sess.Kill(), ErrNotRunning)

	// Terminated sessions are no longer tracked.
	_, ok := sup.Get(sess.ID)
	assert.False(t, ok)
}

func TestStart_UnknownAgent(t *testing.T) {
	t.Parallel()
	sup := New(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	_, err := sup.Start(context.Background(), "nope", StartOptions{})
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestStart_MissingBinary(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Agents[agenterr.AgentClaude] = config.AgentConfig{Command: "definitely-not-a-real-binary-4x7"}
	sup := New(Options{Config: cfg, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	_, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	var notFound *CLINotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestSessions_TracksActiveOnly(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `sleep 30`)
	sup := newTestSupervisor(t, script)

	a, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)
	b, err := sup.Start(context.Background(), agenterr.AgentClaude, StartOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, sup.Sessions(), 2)

	sup.KillAll()
	assert.Empty(t, sup.Sessions())
}
