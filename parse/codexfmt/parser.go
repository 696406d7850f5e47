// Package codexfmt decodes the Codex CLI's experimental JSON dialect.
//
// The wire schema, one JSON object per line, discriminated by "type" using
// dotted thread/turn/item lifecycle names:
//
//	{"type":"thread.started","thread_id":"th_..."}
//	{"type":"turn.started","thread_id":"th_..."}
//	{"type":"item.started","thread_id":"th_...","item":{"id":"item_0","item_type":"command_execution","command":"ls -la","status":"in_progress"}}
//	{"type":"item.completed","thread_id":"th_...","item":{"id":"item_0","item_type":"command_execution","command":"ls -la","aggregated_output":"...","exit_code":0,"status":"completed"}}
//	{"type":"item.completed","thread_id":"th_...","item":{"id":"item_1","item_type":"assistant_message","text":"Done."}}
//	{"type":"turn.completed","thread_id":"th_...","usage":{"input_tokens":100,"cached_input_tokens":20,"output_tokens":50}}
//	{"type":"error","thread_id":"th_...","message":"stream disconnected before completion"}
//
// Codex reports no cost and no per-model breakdown; usage normalization fills
// in the platform-default context window.
package codexfmt

import (
	"encoding/json"

	"agentcore/agenterr"
	"agentcore/parse"
	"agentcore/stream"
)

func init() {
	parse.Defaults.Set(agenterr.AgentCodex, Parser{})
}

// Parser decodes Codex-family output. Stateless; the zero value is ready.
type Parser struct {
	parse.Accessors
}

// AgentID implements parse.OutputParser.
func (Parser) AgentID() string { return agenterr.AgentCodex }

type threadEvent struct {
	Type     string     `json:"type"`
	ThreadID string     `json:"thread_id"`
	Message  string     `json:"message"`
	Item     *wireItem  `json:"item"`
	Usage    *wireUsage `json:"usage"`
}

type wireItem struct {
	ID               string `json:"id"`
	ItemType         string `json:"item_type"`
	Text             string `json:"text"`
	Command          string `json:"command"`
	AggregatedOutput string `json:"aggregated_output"`
	ExitCode         int    `json:"exit_code"`
	Status           string `json:"status"`
}

type wireUsage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

// ParseLine implements parse.OutputParser.
func (Parser) ParseLine(line []byte) (stream.Event, bool) {
	var ev threadEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return stream.TextEvent{Text: string(line), Raw: line}, true
	}

	switch ev.Type {
	case "thread.started":
		return stream.InitEvent{SessionID: ev.ThreadID, Raw: line}, true

	case "turn.started":
		return stream.SystemEvent{SessionID: ev.ThreadID, Subtype: "turn_started", Raw: line}, true

	case "item.started":
		if ev.Item == nil || ev.Item.ItemType != "command_execution" {
			return nil, false
		}
		return stream.ToolUseEvent{
			SessionID: ev.ThreadID,
			Name:      "shell",
			CallID:    ev.Item.ID,
			Phase:     stream.ToolStarted,
			Input:     map[string]interface{}{"command": ev.Item.Command},
			Raw:       line,
		}, true

	case "item.completed":
		return itemCompleted(ev, line)

	case "turn.completed":
		usage := stream.Aggregate(nil, flatUsage(ev.Usage))
		return stream.ResultEvent{
			SessionID: ev.ThreadID,
			Usage:     &usage,
			Raw:       line,
		}, true

	case "turn.failed":
		usage := stream.Aggregate(nil, flatUsage(ev.Usage))
		return stream.ResultEvent{
			SessionID: ev.ThreadID,
			Failed:    true,
			Usage:     &usage,
			Raw:       line,
		}, true

	case "error":
		err := parse.ClassifyStructured(agenterr.AgentCodex, ev.Message, payload(line), line)
		return stream.ErrorEvent{Err: err, SessionID: ev.ThreadID, Raw: line}, true

	default:
		return nil, false
	}
}

func itemCompleted(ev threadEvent, line []byte) (stream.Event, bool) {
	if ev.Item == nil {
		return nil, false
	}
	switch ev.Item.ItemType {
	case "assistant_message":
		if ev.Item.Text == "" {
			return nil, false
		}
		return stream.TextEvent{SessionID: ev.ThreadID, Text: ev.Item.Text, Raw: line}, true
	case "command_execution":
		return stream.ToolUseEvent{
			SessionID: ev.ThreadID,
			Name:      "shell",
			CallID:    ev.Item.ID,
			Phase:     stream.ToolCompleted,
			Input:     map[string]interface{}{"command": ev.Item.Command},
			Result:    ev.Item.AggregatedOutput,
			Failed:    ev.Item.ExitCode != 0,
			Raw:       line,
		}, true
	default:
		// Reasoning and other item types carry no canonical content.
		return nil, false
	}
}

func flatUsage(u *wireUsage) stream.Usage {
	if u == nil {
		return stream.Usage{}
	}
	return stream.Usage{
		InputTokens:     u.InputTokens,
		OutputTokens:    u.OutputTokens,
		CacheReadTokens: u.CachedInputTokens,
	}
}

func payload(line []byte) map[string]interface{} {
	var m map[string]interface{}
	_ = json.Unmarshal(line, &m)
	return m
}

// DetectErrorFromLine implements parse.OutputParser. Only "error" records and
// failed turns qualify as error-shaped.
func (Parser) DetectErrorFromLine(line []byte) (*agenterr.AgentError, bool) {
	var ev threadEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, false
	}

	switch ev.Type {
	case "error":
		return parse.ClassifyStructured(agenterr.AgentCodex, ev.Message, payload(line), line), true
	case "turn.failed":
		return parse.ClassifyStructured(agenterr.AgentCodex, ev.Message, payload(line), line), true
	default:
		return nil, false
	}
}

// DetectErrorFromExit implements parse.OutputParser.
func (Parser) DetectErrorFromExit(exitCode int, stderr, stdout string) (*agenterr.AgentError, bool) {
	return parse.ErrorFromExit(agenterr.AgentCodex, exitCode, stderr, stdout)
}
