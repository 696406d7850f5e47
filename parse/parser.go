// Package parse defines the contract every agent output parser satisfies and
// the shared machinery (registry, exit-code error derivation) that keeps the
// supervisor agent-agnostic.
//
// The three concrete parsers live in the claudefmt, codexfmt, and geminifmt
// subpackages. Each differs only in the wire schema it decodes and the error
// pattern table it consults; the control contract here is identical across
// them, which is what lets the supervisor treat agents interchangeably.
// Parsers register themselves into Defaults from their package init, the way
// database/sql drivers do.
package parse

import (
	"agentcore/agenterr"
	"agentcore/stream"
)

// OutputParser turns one raw JSON line, or raw process exit info, into zero
// or one canonical events or agent errors. Implementations are stateless with
// respect to sessions: the same parser instance serves any number of
// concurrent sessions.
type OutputParser interface {
	// AgentID returns the agent family identifier this parser decodes.
	AgentID() string

	// ParseLine transforms one raw line into a canonical event. It never
	// fails: a line that does not decode degrades to a raw text event
	// carrying the original bytes verbatim, so no output is silently lost.
	// Returns false only for lines that decode to records with no canonical
	// representation (protocol chatter the caller should skip).
	ParseLine(line []byte) (stream.Event, bool)

	// DetectErrorFromLine inspects structurally error-shaped lines only: a
	// line must JSON-decode to an object explicitly flagged as an error for
	// anything to be returned. Plain prose, even when it happens to be valid
	// JSON, is never pattern-matched here — that would turn an agent
	// narrating "the connection failed last time" into a false positive.
	// A structured error that matches no pattern still comes back as an
	// unknown-category, recoverable error; detected errors are never
	// swallowed.
	DetectErrorFromLine(line []byte) (*agenterr.AgentError, bool)

	// DetectErrorFromExit derives an error from process termination. See
	// ErrorFromExit for the shared contract.
	DetectErrorFromExit(exitCode int, stderr, stdout string) (*agenterr.AgentError, bool)

	// Pure accessors over an already-produced canonical event.
	ExtractSessionID(ev stream.Event) string
	ExtractUsage(ev stream.Event) (stream.Usage, bool)
	IsFinalResult(ev stream.Event) bool
}

// Accessors provides the accessor third of the OutputParser contract. The
// accessors read only the canonical event, so they are identical for every
// family; concrete parsers embed this.
type Accessors struct{}

// ExtractSessionID returns the event's session identifier, if any.
func (Accessors) ExtractSessionID(ev stream.Event) string {
	if ev == nil {
		return ""
	}
	return ev.EventSessionID()
}

// ExtractUsage returns the usage attached to a result or system event.
func (Accessors) ExtractUsage(ev stream.Event) (stream.Usage, bool) {
	switch e := ev.(type) {
	case stream.ResultEvent:
		if e.Usage != nil {
			return *e.Usage, true
		}
	case stream.SystemEvent:
		if e.Usage != nil {
			return *e.Usage, true
		}
	}
	return stream.Usage{}, false
}

// IsFinalResult reports whether the event concludes a step.
func (Accessors) IsFinalResult(ev stream.Event) bool {
	if ev == nil {
		return false
	}
	return ev.Kind() == stream.KindResult
}

// ClassifyStructured builds an AgentError from a structured error payload.
// The message is matched against the agent's pattern table; when no pattern
// matches, the error is still surfaced with the unknown category and marked
// recoverable, so the caller decides rather than the failure vanishing.
func ClassifyStructured(agentID, message string, payload map[string]interface{}, raw []byte) *agenterr.AgentError {
	table := agenterr.Defaults.Get(agentID)
	if cls, ok := table.Match(message); ok {
		err := agenterr.New(agentID, cls.Category, cls.Message, cls.Recoverable, string(raw))
		err.Payload = payload
		return err
	}
	msg := message
	if msg == "" {
		msg = "The agent reported an error."
	}
	err := agenterr.New(agentID, agenterr.CategoryUnknown, msg, true, string(raw))
	err.Payload = payload
	return err
}
