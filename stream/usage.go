package stream

// DefaultContextWindow is assumed when no model in a session reports its own
// window.
const DefaultContextWindow = 200_000

// Usage is the normalized token/cost accounting record. Fields default to
// zero when the source schema omits them. A Usage is constructed once per
// result (or usage-bearing system) event and never mutated afterwards.
type Usage struct {
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens,omitempty"`
	CacheCreationTokens int     `json:"cache_creation_tokens,omitempty"`
	ContextWindow       int     `json:"context_window,omitempty"`
	CostUSD             float64 `json:"cost_usd,omitempty"`
}

// IsZero reports whether no tokens were counted in either direction.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0
}

// Add folds other into u field-wise. Cost is summed here because Add is used
// for folding successive per-step totals, not per-model shares; the
// per-model case goes through Aggregate. The larger context window wins.
func (u Usage) Add(other Usage) Usage {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CostUSD += other.CostUSD
	if other.ContextWindow > u.ContextWindow {
		u.ContextWindow = other.ContextWindow
	}
	return u
}

// ModelUsage is one model's share of a session, for agents that report usage
// per sub-model (a cheap routing model plus the main one).
type ModelUsage struct {
	InputTokens         int
	OutputTokens        int
	CacheReadTokens     int
	CacheCreationTokens int
	ContextWindow       int
}

// Aggregate folds a per-model usage map and a flat legacy usage object into
// one record.
//
// Token and cache fields are summed across models. The context window is the
// maximum seen across models — the most permissive applicable window — and
// defaults to DefaultContextWindow when no model reports one. Cost passes
// through from flat unmodified: agents report cost as a session total, never
// per model.
//
// A per-model map whose token totals sum to zero is treated as absent, not as
// zero usage, and the flat legacy object is used instead. Some agent versions
// omit the breakdown but still report a flat total.
func Aggregate(perModel map[string]ModelUsage, flat Usage) Usage {
	out := Usage{CostUSD: flat.CostUSD}
	for _, m := range perModel {
		out.InputTokens += m.InputTokens
		out.OutputTokens += m.OutputTokens
		out.CacheReadTokens += m.CacheReadTokens
		out.CacheCreationTokens += m.CacheCreationTokens
		if m.ContextWindow > out.ContextWindow {
			out.ContextWindow = m.ContextWindow
		}
	}

	if out.IsZero() {
		out = flat
	}

	if out.ContextWindow == 0 {
		out.ContextWindow = DefaultContextWindow
	}
	return out
}
