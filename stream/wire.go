package stream

import "agentcore/agenterr"

// Envelope is the serialized form of a canonical event, one JSON object per
// event. The variant tag in Type determines which optional fields are set,
// mirroring the in-memory model. Consumers treat the field set as wire-stable.
type Envelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`

	// text
	Text    string `json:"text,omitempty"`
	Partial bool   `json:"partial,omitempty"`

	// init
	Model   string `json:"model,omitempty"`
	WorkDir string `json:"work_dir,omitempty"`

	// tool_use
	Tool *ToolCall `json:"tool,omitempty"`

	// result
	DurationMs int64  `json:"duration_ms,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
	Usage      *Usage `json:"usage,omitempty"`

	// system
	Subtype string `json:"subtype,omitempty"`

	// error
	Error *agenterr.AgentError `json:"error,omitempty"`
}

// ToolCall is the serialized tool invocation payload.
type ToolCall struct {
	Input  map[string]interface{} `json:"input,omitempty"`
	Result interface{}            `json:"result,omitempty"`
	Name   string                 `json:"name,omitempty"`
	CallID string                 `json:"call_id,omitempty"`
	Phase  ToolPhase              `json:"phase"`
	Failed bool                   `json:"failed,omitempty"`
}

// Encode maps an event to its envelope. Raw source records are diagnostics
// and deliberately stay off the wire.
func Encode(ev Event) Envelope {
	env := Envelope{
		Type:      ev.Kind().String(),
		SessionID: ev.EventSessionID(),
	}
	switch e := ev.(type) {
	case InitEvent:
		env.Model = e.Model
		env.WorkDir = e.WorkDir
	case TextEvent:
		env.Text = e.Text
		env.Partial = e.Partial
	case ToolUseEvent:
		env.Tool = &ToolCall{
			Name:   e.Name,
			CallID: e.CallID,
			Phase:  e.Phase,
			Input:  e.Input,
			Result: e.Result,
			Failed: e.Failed,
		}
	case ResultEvent:
		env.Text = e.Text
		env.DurationMs = e.DurationMs
		env.Failed = e.Failed
		env.Usage = e.Usage
	case SystemEvent:
		env.Subtype = e.Subtype
		env.Usage = e.Usage
	case ErrorEvent:
		env.Error = e.Err
	}
	return env
}
