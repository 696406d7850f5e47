// Package stream defines the canonical, agent-agnostic event model.
//
// Every supported agent CLI speaks its own JSON-lines dialect; the output
// parsers normalize those dialects into the closed set of event variants
// below, which is the only vocabulary the rest of the application consumes.
package stream

import "agentcore/agenterr"

// EventKind discriminates the canonical event variants.
type EventKind int

const (
	// KindInit fires when a session or step has started.
	KindInit EventKind = iota
	// KindText carries a content chunk, possibly a partial streaming delta.
	KindText
	// KindToolUse reports a tool invocation and its execution phase.
	KindToolUse
	// KindResult carries a step's final answer and usage, when reported.
	KindResult
	// KindSystem carries informational, non-terminal records.
	KindSystem
	// KindError carries a structured failure the agent surfaced in-stream.
	KindError
)

// String returns the kind's wire name.
func (k EventKind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindText:
		return "text"
	case KindToolUse:
		return "tool_use"
	case KindResult:
		return "result"
	case KindSystem:
		return "system"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ToolPhase is the execution state of a tool invocation.
type ToolPhase string

const (
	ToolStarted   ToolPhase = "started"
	ToolCompleted ToolPhase = "completed"
)

// Event is the canonical representation of one piece of streamed output.
// The variant tag fully determines which fields are meaningful; SessionID and
// Raw are optional on every variant.
type Event interface {
	Kind() EventKind
	// EventSessionID returns the session identifier, or "" when the source
	// record carried none.
	EventSessionID() string
	// RawRecord returns the untouched source line for diagnostics.
	RawRecord() []byte
}

// InitEvent signals that a session or step has started.
type InitEvent struct {
	SessionID string
	Model     string
	WorkDir   string
	Raw       []byte
}

func (e InitEvent) Kind() EventKind        { return KindInit }
func (e InitEvent) EventSessionID() string { return e.SessionID }
func (e InitEvent) RawRecord() []byte      { return e.Raw }

// TextEvent carries a content chunk. A partial chunk is a streaming delta and
// must not be treated as conversation-final.
type TextEvent struct {
	SessionID string
	Text      string
	Raw       []byte
	Partial   bool
}

func (e TextEvent) Kind() EventKind        { return KindText }
func (e TextEvent) EventSessionID() string { return e.SessionID }
func (e TextEvent) RawRecord() []byte      { return e.Raw }

// ToolUseEvent reports a tool invocation.
type ToolUseEvent struct {
	Input     map[string]interface{}
	Result    interface{}
	SessionID string
	Name      string
	CallID    string
	Phase     ToolPhase
	Raw       []byte
	Failed    bool
}

func (e ToolUseEvent) Kind() EventKind        { return KindToolUse }
func (e ToolUseEvent) EventSessionID() string { return e.SessionID }
func (e ToolUseEvent) RawRecord() []byte      { return e.Raw }

// ResultEvent is a step's final answer.
type ResultEvent struct {
	Usage      *Usage // nil when the source schema reported no usage
	SessionID  string
	Text       string
	Raw        []byte
	DurationMs int64
	Failed     bool
}

func (e ResultEvent) Kind() EventKind        { return KindResult }
func (e ResultEvent) EventSessionID() string { return e.SessionID }
func (e ResultEvent) RawRecord() []byte      { return e.Raw }

// SystemEvent is informational and non-terminal. Some agent families attach
// interim usage snapshots to system records.
type SystemEvent struct {
	Usage     *Usage
	SessionID string
	Subtype   string
	Raw       []byte
}

func (e SystemEvent) Kind() EventKind        { return KindSystem }
func (e SystemEvent) EventSessionID() string { return e.SessionID }
func (e SystemEvent) RawRecord() []byte      { return e.Raw }

// ErrorEvent wraps a structured failure found in-stream. The supervisor also
// delivers the same AgentError on the session's error channel; the event
// variant exists so a consumer replaying the event stream sees the failure in
// its original position.
type ErrorEvent struct {
	Err       *agenterr.AgentError
	SessionID string
	Raw       []byte
}

func (e ErrorEvent) Kind() EventKind        { return KindError }
func (e ErrorEvent) EventSessionID() string { return e.SessionID }
func (e ErrorEvent) RawRecord() []byte      { return e.Raw }
