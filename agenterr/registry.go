package agenterr

import "sync"

// Registry maps agent identifiers to their pattern tables.
//
// Reads dominate: every error-shaped line consults the table for its agent.
// Writes happen at startup wiring, during config hot-reload, and in test
// setup — never concurrently with active parsing in the intended usage. A
// plain RWMutex covers that discipline.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]Table)}
}

// Get returns the table for agentID. Unknown agents get an empty table, so
// classification simply finds no match; Get never fails.
func (r *Registry) Get(agentID string) Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tables[agentID]; ok {
		return t
	}
	return Table{}
}

// Set installs table for agentID, replacing any previous table wholesale.
func (r *Registry) Set(agentID string, table Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[agentID] = table
}

// Clear removes every registered table. Used for test isolation and as the
// first step of a config hot-reload.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[string]Table)
}

// Defaults is the process-wide registry, pre-seeded with the built-in tables
// for the three supported agent families.
var Defaults = NewRegistry()

func init() {
	RegisterBuiltins(Defaults)
}

// RegisterBuiltins installs the three family tables into r. Exposed so tests
// and hot-reload can restore the default wiring after Clear.
func RegisterBuiltins(r *Registry) {
	r.Set(AgentClaude, claudeTable())
	r.Set(AgentCodex, codexTable())
	r.Set(AgentGemini, geminiTable())
}

// BuiltinTable returns a fresh copy of the built-in table for agentID, or an
// empty table for agents without one. Config loading merges user overrides
// on top of this.
func BuiltinTable(agentID string) Table {
	switch agentID {
	case AgentClaude:
		return claudeTable()
	case AgentCodex:
		return codexTable()
	case AgentGemini:
		return geminiTable()
	default:
		return Table{}
	}
}
