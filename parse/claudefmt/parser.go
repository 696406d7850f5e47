// Package claudefmt decodes the Claude CLI's stream-json dialect.
//
// The wire schema, one JSON object per line, discriminated by "type":
//
//	{"type":"system","subtype":"init","session_id":"...","model":"...","cwd":"..."}
//	{"type":"stream_event","session_id":"...","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"..."}}}
//	{"type":"assistant","session_id":"...","message":{"content":[{"type":"text","text":"..."},{"type":"tool_use","id":"...","name":"...","input":{...}}]}}
//	{"type":"user","session_id":"...","message":{"content":[{"type":"tool_result","tool_use_id":"...","content":"...","is_error":false}]}}
//	{"type":"result","subtype":"success","is_error":false,"result":"...","duration_ms":1234,
//	 "usage":{"input_tokens":1,"output_tokens":2,"cache_read_input_tokens":3,"cache_creation_input_tokens":4},
//	 "modelUsage":{"claude-opus-4":{"inputTokens":1,"outputTokens":2,"contextWindow":200000}},
//	 "total_cost_usd":0.05,"session_id":"..."}
//
// Note the schema's split personality: top-level and usage fields are
// snake_case, but the per-model usage map is camelCase. Both are decoded as
// observed.
package claudefmt

import (
	"encoding/json"

	"agentcore/agenterr"
	"agentcore/parse"
	"agentcore/stream"
)

func init() {
	parse.Defaults.Set(agenterr.AgentClaude, Parser{})
}

// Parser decodes Claude-family output. It is stateless; the zero value is
// ready to use.
type Parser struct {
	parse.Accessors
}

// AgentID implements parse.OutputParser.
func (Parser) AgentID() string { return agenterr.AgentClaude }

type rawMessage struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype"`
	SessionID string          `json:"session_id"`
	Model     string          `json:"model"`
	CWD       string          `json:"cwd"`
	Event     *streamEvent    `json:"event"`
	Message   *innerMessage   `json:"message"`
	IsError   bool            `json:"is_error"`
	Result    string          `json:"result"`
	Error     json.RawMessage `json:"error"`

	DurationMs   int64                     `json:"duration_ms"`
	Usage        wireUsage                 `json:"usage"`
	ModelUsage   map[string]wireModelUsage `json:"modelUsage"`
	TotalCostUSD float64                   `json:"total_cost_usd"`
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

type innerMessage struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text"`
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Input     map[string]interface{} `json:"input"`
	ToolUseID string                 `json:"tool_use_id"`
	Content   interface{}            `json:"content"`
	IsError   *bool                  `json:"is_error"`
}

type wireUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type wireModelUsage struct {
	InputTokens              int `json:"inputTokens"`
	OutputTokens             int `json:"outputTokens"`
	CacheReadInputTokens     int `json:"cacheReadInputTokens"`
	CacheCreationInputTokens int `json:"cacheCreationInputTokens"`
	ContextWindow            int `json:"contextWindow"`
}

// ParseLine implements parse.OutputParser.
func (Parser) ParseLine(line []byte) (stream.Event, bool) {
	var msg rawMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		// Not JSON: surface verbatim rather than dropping it.
		return stream.TextEvent{Text: string(line), Raw: line}, true
	}

	switch msg.Type {
	case "system":
		if msg.Subtype == "init" {
			return stream.InitEvent{
				SessionID: msg.SessionID,
				Model:     msg.Model,
				WorkDir:   msg.CWD,
				Raw:       line,
			}, true
		}
		return stream.SystemEvent{SessionID: msg.SessionID, Subtype: msg.Subtype, Raw: line}, true

	case "stream_event":
		if msg.Event != nil && msg.Event.Type == "content_block_delta" && msg.Event.Delta.Type == "text_delta" {
			return stream.TextEvent{
				SessionID: msg.SessionID,
				Text:      msg.Event.Delta.Text,
				Partial:   true,
				Raw:       line,
			}, true
		}
		return nil, false

	case "assistant":
		return assistantEvent(msg, line)

	case "user":
		return toolResultEvent(msg, line)

	case "result":
		usage := stream.Aggregate(perModel(msg.ModelUsage), stream.Usage{
			InputTokens:         msg.Usage.InputTokens,
			OutputTokens:        msg.Usage.OutputTokens,
			CacheReadTokens:     msg.Usage.CacheReadInputTokens,
			CacheCreationTokens: msg.Usage.CacheCreationInputTokens,
			CostUSD:             msg.TotalCostUSD,
		})
		return stream.ResultEvent{
			SessionID:  msg.SessionID,
			Text:       msg.Result,
			Failed:     msg.IsError,
			DurationMs: msg.DurationMs,
			Usage:      &usage,
			Raw:        line,
		}, true

	default:
		// Unrecognized record types are protocol chatter, not content.
		return nil, false
	}
}

// assistantEvent maps a complete assistant message. Tool invocations take
// precedence: their text, if any, has already arrived as streaming deltas.
func assistantEvent(msg rawMessage, line []byte) (stream.Event, bool) {
	if msg.Message == nil {
		return nil, false
	}
	for _, block := range msg.Message.Content {
		if block.Type == "tool_use" {
			return stream.ToolUseEvent{
				SessionID: msg.SessionID,
				Name:      block.Name,
				CallID:    block.ID,
				Phase:     stream.ToolStarted,
				Input:     block.Input,
				Raw:       line,
			}, true
		}
	}
	text := ""
	for _, block := range msg.Message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, false
	}
	return stream.TextEvent{SessionID: msg.SessionID, Text: text, Raw: line}, true
}

func toolResultEvent(msg rawMessage, line []byte) (stream.Event, bool) {
	if msg.Message == nil {
		return nil, false
	}
	for _, block := range msg.Message.Content {
		if block.Type == "tool_result" {
			failed := block.IsError != nil && *block.IsError
			return stream.ToolUseEvent{
				SessionID: msg.SessionID,
				CallID:    block.ToolUseID,
				Phase:     stream.ToolCompleted,
				Result:    block.Content,
				Failed:    failed,
				Raw:       line,
			}, true
		}
	}
	return nil, false
}

func perModel(wire map[string]wireModelUsage) map[string]stream.ModelUsage {
	if len(wire) == 0 {
		return nil
	}
	out := make(map[string]stream.ModelUsage, len(wire))
	for model, u := range wire {
		out[model] = stream.ModelUsage{
			InputTokens:         u.InputTokens,
			OutputTokens:        u.OutputTokens,
			CacheReadTokens:     u.CacheReadInputTokens,
			CacheCreationTokens: u.CacheCreationInputTokens,
			ContextWindow:       u.ContextWindow,
		}
	}
	return out
}

// DetectErrorFromLine implements parse.OutputParser. Only structurally
// error-shaped records qualify: an error result, a record of type "error", or
// a record carrying an "error" field. Prose is never pattern-matched here.
func (Parser) DetectErrorFromLine(line []byte) (*agenterr.AgentError, bool) {
	var msg rawMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, false
	}

	var text string
	switch {
	case msg.Type == "result" && msg.IsError:
		text = msg.Result
	case msg.Type == "error":
		text = errorText(msg.Error)
		if text == "" {
			text = msg.Result
		}
	case len(msg.Error) > 0 && string(msg.Error) != "null":
		text = errorText(msg.Error)
	default:
		return nil, false
	}

	var payload map[string]interface{}
	_ = json.Unmarshal(line, &payload)
	return parse.ClassifyStructured(agenterr.AgentClaude, text, payload, line), true
}

// errorText extracts a message from an "error" field that may be a bare
// string or an object with a "message".
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return string(raw)
}

// DetectErrorFromExit implements parse.OutputParser.
func (Parser) DetectErrorFromExit(exitCode int, stderr, stdout string) (*agenterr.AgentError, bool) {
	return parse.ErrorFromExit(agenterr.AgentClaude, exitCode, stderr, stdout)
}
