package parse

import "sync"

// Registry maps agent identifiers to parser instances. Same read-heavy
// discipline as the pattern registry: writes are for startup wiring, config
// hot-reload, and test setup only.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]OutputParser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]OutputParser)}
}

// Get returns the parser for agentID, or false when the agent is unknown.
func (r *Registry) Get(agentID string) (OutputParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[agentID]
	return p, ok
}

// Set installs p for agentID, replacing any previous parser.
func (r *Registry) Set(agentID string, p OutputParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[agentID] = p
}

// Clear removes every registered parser.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = make(map[string]OutputParser)
}

// Agents returns the registered agent identifiers.
func (r *Registry) Agents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	return ids
}

// Defaults is the process-wide parser registry. The family packages register
// themselves here from init.
var Defaults = NewRegistry()
