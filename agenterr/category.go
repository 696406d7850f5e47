// Package agenterr classifies raw agent CLI output into a small, wire-stable
// error taxonomy.
//
// Each supported agent family phrases the same underlying failure differently
// (one CLI says "usage limit reached", another embeds an HTTP 429 in prose),
// so classification runs against a per-agent table of patterns. Downstream UI
// maps category names to icons and copy; the set of names is closed and
// adding one is a breaking change for consumers.
package agenterr

import (
	"fmt"
	"time"
)

// Category names a failure class. The values are wire-stable strings.
type Category string

const (
	CategoryAuthExpired      Category = "auth_expired"
	CategoryTokenExhaustion  Category = "token_exhaustion"
	CategoryRateLimited      Category = "rate_limited"
	CategoryNetworkError     Category = "network_error"
	CategoryPermissionDenied Category = "permission_denied"
	CategoryAgentCrashed     Category = "agent_crashed"

	// CategoryUnknown is the fallback for structured errors that match no
	// pattern. It never appears in a pattern table.
	CategoryUnknown Category = "unknown"
)

// categoryOrder fixes the evaluation order across categories. The first
// category with any matching pattern wins, so more specific failure classes
// (an expired token, an exhausted quota) are listed before the generic ones.
var categoryOrder = []Category{
	CategoryAuthExpired,
	CategoryTokenExhaustion,
	CategoryRateLimited,
	CategoryNetworkError,
	CategoryPermissionDenied,
	CategoryAgentCrashed,
}

// Categories returns the evaluation order. Callers must not mutate it.
func Categories() []Category {
	return categoryOrder
}

// AgentError is a classified failure from a supervised agent process.
// It is immutable once constructed; Recoverable is advisory metadata for the
// caller, never acted on internally.
type AgentError struct {
	Timestamp   time.Time              `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload,omitempty"` // decoded source record, when the error was structured
	Category    Category               `json:"category"`
	Message     string                 `json:"message"` // pre-written user-facing message, never raw stderr
	AgentID     string                 `json:"agent_id"`
	RawContext  string                 `json:"raw_context,omitempty"` // the line or stderr excerpt that triggered classification
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.AgentID, e.Category, e.Message)
}

// New constructs an AgentError stamped with the current time.
func New(agentID string, category Category, message string, recoverable bool, rawContext string) *AgentError {
	return &AgentError{
		Timestamp:   time.Now(),
		Category:    category,
		Message:     message,
		AgentID:     agentID,
		RawContext:  rawContext,
		Recoverable: recoverable,
	}
}
