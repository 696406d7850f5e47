package claudefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/agenterr"
	"agentcore/parse"
	"agentcore/stream"
)

var p Parser

func TestParseLine_SystemInit(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"system","subtype":"init","session_id":"s-1","model":"claude-opus-4","cwd":"/work"}`)

	ev, ok := p.ParseLine(line)
	require.True(t, ok)
	init, ok := ev.(stream.InitEvent)
	require.True(t, ok)
	assert.Equal(t, "s-1", init.SessionID)
	assert.Equal(t, "claude-opus-4", init.Model)
	assert.Equal(t, "/work", init.WorkDir)
	assert.Equal(t, line, init.RawRecord())
}

func TestParseLine_StreamingDeltaIsPartial(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"stream_event","session_id":"s-1","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}}`)

	ev, ok := p.ParseLine(line)
	require.True(t, ok)
	text, ok := ev.(stream.TextEvent)
	require.True(t, ok)
	assert.Equal(t, "Hel", text.Text)
	assert.True(t, text.Partial)
}

func TestParseLine_AssistantText(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"assistant","session_id":"s-1","message":{"content":[{"type":"text","text":"Hello "},{"type":"text","text":"world"}]}}`)

	ev, ok := p.ParseLine(line)
	require.True(t, ok)
	text, ok := ev.(stream.TextEvent)
	require.True(t, ok)
	assert.Equal(t, "Hello world", text.Text)
	assert.False(t, text.Partial)
}

func TestParseLine_ToolUseAndResult(t *testing.T) {
	t.Parallel()

	ev, ok := p.ParseLine([]byte(`{"type":"assistant","session_id":"s-1","message":{"content":[{"type":"tool_use","id":"t-1","name":"Read","input":{"file_path":"main.go"}}]}}`))
	require.True(t, ok)
	start, ok := ev.(stream.ToolUseEvent)
	require.True(t, ok)
	assert.Equal(t, "Read", start.Name)
	assert.Equal(t, "t-1", start.CallID)
	assert.Equal(t, stream.ToolStarted, start.Phase)

	ev, ok = p.ParseLine([]byte(`{"type":"user","session_id":"s-1","message":{"content":[{"type":"tool_result","tool_use_id":"t-1","content":"package main","is_error":false}]}}`))
	require.True(t, ok)
	done, ok := ev.(stream.ToolUseEvent)
	require.True(t, ok)
	assert.Equal(t, "t-1", done.CallID)
	assert.Equal(t, stream.ToolCompleted, done.Phase)
	assert.False(t, done.Failed)
}

func TestParseLine_ResultAggregatesModelUsage(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"result","subtype":"success","is_error":false,"result":"done","duration_ms":4200,` +
		`"usage":{"input_tokens":9,"output_tokens":9},` +
		`"modelUsage":{` +
		`"claude-opus-4":{"inputTokens":1000,"outputTokens":500,"contextWindow":200000},` +
		`"claude-haiku-3":{"inputTokens":500,"outputTokens":250,"contextWindow":128000}},` +
		`"total_cost_usd":0.31,"session_id":"s-1"}`)

	ev, ok := p.ParseLine(line)
	require.True(t, ok)
	res, ok := ev.(stream.ResultEvent)
	require.True(t, ok)
	require.NotNil(t, res.Usage)
	assert.Equal(t, 1500, res.Usage.InputTokens)
	assert.Equal(t, 750, res.Usage.OutputTokens)
	assert.Equal(t, 200000, res.Usage.ContextWindow)
	assert.Equal(t, 0.31, res.Usage.CostUSD)
	assert.True(t, p.IsFinalResult(res))

	usage, ok := p.ExtractUsage(res)
	require.True(t, ok)
	assert.Equal(t, 1500, usage.InputTokens)
	assert.Equal(t, "s-1", p.ExtractSessionID(res))
}

func TestParseLine_ResultWithoutModelUsageFallsBackToFlat(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"result","is_error":false,"result":"ok","usage":{"input_tokens":42,"output_tokens":7},"total_cost_usd":0.01,"session_id":"s-1"}`)

	ev, ok := p.ParseLine(line)
	require.True(t, ok)
	res := ev.(stream.ResultEvent)
	assert.Equal(t, 42, res.Usage.InputTokens)
	assert.Equal(t, stream.DefaultContextWindow, res.Usage.ContextWindow)
}

func TestParseLine_MalformedInputDegradesToText(t *testing.T) {
	t.Parallel()
	line := []byte(`this is not json {`)

	ev, ok := p.ParseLine(line)
	require.True(t, ok)
	text, ok := ev.(stream.TextEvent)
	require.True(t, ok)
	assert.Equal(t, "this is not json {", text.Text)
}

func TestDetectErrorFromLine_ErrorResult(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"result","is_error":true,"result":"API Error: rate limit exceeded","session_id":"s-1"}`)

	err, ok := p.DetectErrorFromLine(line)
	require.True(t, ok)
	assert.Equal(t, agenterr.CategoryRateLimited, err.Category)
	assert.True(t, err.Recoverable)
	assert.NotNil(t, err.Payload)
}

func TestDetectErrorFromLine_UnmatchedStructuredErrorIsUnknown(t *testing.T) {
	t.Parallel()
	line := []byte(`{"type":"error","error":{"message":"the moon phase is wrong"}}`)

	err, ok := p.DetectErrorFromLine(line)
	require.True(t, ok, "a detected structured error is never swallowed")
	assert.Equal(t, agenterr.CategoryUnknown, err.Category)
	assert.True(t, err.Recoverable)
}

func TestDetectErrorFromLine_ProseIsNotAnError(t *testing.T) {
	t.Parallel()

	// Decodable JSON that is not error-shaped must not be classified even
	// when it contains error-sounding phrasing.
	line := []byte(`{"type":"assistant","message":{"content":[{"type":"text","text":"The last run hit a rate limit exceeded error; let me retry."}]}}`)

	_, ok := p.DetectErrorFromLine(line)
	assert.False(t, ok)

	_, ok = p.DetectErrorFromLine([]byte("plain prose about a connection refused"))
	assert.False(t, ok)
}

func TestParser_RegisteredAsDefault(t *testing.T) {
	t.Parallel()
	reg, ok := parse.Defaults.Get(agenterr.AgentClaude)
	require.True(t, ok)
	assert.Equal(t, agenterr.AgentClaude, reg.AgentID())
}
