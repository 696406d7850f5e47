// Package geminifmt decodes the Gemini CLI's streaming JSON dialect.
//
// The wire schema, one JSON object per line, discriminated by "event" (this
// family shares no field names with the other two):
//
//	{"event":"session","id":"g-...","model":"gemini-3-pro"}
//	{"event":"content","delta":"Hello","final":false}
//	{"event":"tool","tool":"read_file","callId":"c1","state":"executing","args":{"path":"main.go"}}
//	{"event":"tool","tool":"read_file","callId":"c1","state":"done","args":{"path":"main.go"},"output":"...","failed":false}
//	{"event":"stats","tokens":{"prompt":120,"candidates":40,"cached":10,"thoughts":5},"window":1048576}
//	{"event":"finish","text":"All done.","elapsedMs":5400,"tokens":{"prompt":120,"candidates":40}}
//	{"event":"fault","fault":{"status":"RESOURCE_EXHAUSTED","message":"Quota exceeded for quota metric"}}
//
// Tokens use Gemini's prompt/candidates vocabulary; "thoughts" counts
// reasoning tokens, which are billed as output.
package geminifmt

import (
	"encoding/json"

	"agentcore/agenterr"
	"agentcore/parse"
	"agentcore/stream"
)

func init() {
	parse.Defaults.Set(agenterr.AgentGemini, Parser{})
}

// Parser decodes Gemini-family output. Stateless; the zero value is ready.
type Parser struct {
	parse.Accessors
}

// AgentID implements parse.OutputParser.
func (Parser) AgentID() string { return agenterr.AgentGemini }

type record struct {
	Event     string                 `json:"event"`
	ID        string                 `json:"id"`
	Model     string                 `json:"model"`
	Delta     string                 `json:"delta"`
	Final     bool                   `json:"final"`
	Tool      string                 `json:"tool"`
	CallID    string                 `json:"callId"`
	State     string                 `json:"state"`
	Args      map[string]interface{} `json:"args"`
	Output    interface{}            `json:"output"`
	Failed    bool                   `json:"failed"`
	Text      string                 `json:"text"`
	ElapsedMs int64                  `json:"elapsedMs"`
	Window    int                    `json:"window"`
	Tokens    *tokenCounts           `json:"tokens"`
	Fault     *fault                 `json:"fault"`

	// sessionID is not on the wire per record; the supervisor scopes events
	// by session, and the session record arrives first with the id.
}

type tokenCounts struct {
	Prompt     int `json:"prompt"`
	Candidates int `json:"candidates"`
	Cached     int `json:"cached"`
	Thoughts   int `json:"thoughts"`
}

type fault struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ParseLine implements parse.OutputParser.
func (Parser) ParseLine(line []byte) (stream.Event, bool) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return stream.TextEvent{Text: string(line), Raw: line}, true
	}

	switch rec.Event {
	case "session":
		return stream.InitEvent{SessionID: rec.ID, Model: rec.Model, Raw: line}, true

	case "content":
		return stream.TextEvent{Text: rec.Delta, Partial: !rec.Final, Raw: line}, true

	case "tool":
		phase := stream.ToolStarted
		if rec.State == "done" {
			phase = stream.ToolCompleted
		}
		return stream.ToolUseEvent{
			Name:   rec.Tool,
			CallID: rec.CallID,
			Phase:  phase,
			Input:  rec.Args,
			Result: rec.Output,
			Failed: rec.Failed,
			Raw:    line,
		}, true

	case "stats":
		usage := usageFromTokens(rec.Tokens, rec.Window)
		return stream.SystemEvent{Subtype: "stats", Usage: &usage, Raw: line}, true

	case "finish":
		usage := usageFromTokens(rec.Tokens, rec.Window)
		return stream.ResultEvent{
			Text:       rec.Text,
			DurationMs: rec.ElapsedMs,
			Usage:      &usage,
			Raw:        line,
		}, true

	case "fault":
		msg := ""
		if rec.Fault != nil {
			msg = faultText(rec.Fault)
		}
		err := parse.ClassifyStructured(agenterr.AgentGemini, msg, rawPayload(line), line)
		return stream.ErrorEvent{Err: err, Raw: line}, true

	default:
		return nil, false
	}
}

func usageFromTokens(tok *tokenCounts, window int) stream.Usage {
	flat := stream.Usage{ContextWindow: window}
	if tok != nil {
		flat.InputTokens = tok.Prompt
		flat.OutputTokens = tok.Candidates + tok.Thoughts
		flat.CacheReadTokens = tok.Cached
	}
	return stream.Aggregate(nil, flat)
}

// faultText joins the status code and message so patterns can match either
// ("RESOURCE_EXHAUSTED" arrives only in the status field).
func faultText(f *fault) string {
	switch {
	case f.Status != "" && f.Message != "":
		return f.Status + ": " + f.Message
	case f.Status != "":
		return f.Status
	default:
		return f.Message
	}
}

func rawPayload(line []byte) map[string]interface{} {
	var m map[string]interface{}
	_ = json.Unmarshal(line, &m)
	return m
}

// DetectErrorFromLine implements parse.OutputParser. Only "fault" records are
// error-shaped in this dialect.
func (Parser) DetectErrorFromLine(line []byte) (*agenterr.AgentError, bool) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, false
	}
	if rec.Event != "fault" && rec.Fault == nil {
		return nil, false
	}
	msg := ""
	if rec.Fault != nil {
		msg = faultText(rec.Fault)
	}
	return parse.ClassifyStructured(agenterr.AgentGemini, msg, rawPayload(line), line), true
}

// DetectErrorFromExit implements parse.OutputParser.
func (Parser) DetectErrorFromExit(exitCode int, stderr, stdout string) (*agenterr.AgentError, bool) {
	return parse.ErrorFromExit(agenterr.AgentGemini, exitCode, stderr, stdout)
}
