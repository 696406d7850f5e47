package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_SumsAcrossModels(t *testing.T) {
	t.Parallel()
	perModel := map[string]ModelUsage{
		"main":   {InputTokens: 1000, OutputTokens: 500, CacheReadTokens: 40},
		"router": {InputTokens: 500, OutputTokens: 250, CacheCreationTokens: 10},
	}

	got := Aggregate(perModel, Usage{CostUSD: 0.42})

	assert.Equal(t, 1500, got.InputTokens)
	assert.Equal(t, 750, got.OutputTokens)
	assert.Equal(t, 40, got.CacheReadTokens)
	assert.Equal(t, 10, got.CacheCreationTokens)
	assert.Equal(t, 0.42, got.CostUSD, "cost passes through, never per-model-summed")
}

func TestAggregate_ContextWindowIsMax(t *testing.T) {
	t.Parallel()
	perModel := map[string]ModelUsage{
		"a": {InputTokens: 1, ContextWindow: 128_000},
		"b": {InputTokens: 1, ContextWindow: 1_000_000},
		"c": {InputTokens: 1, ContextWindow: 200_000},
	}

	got := Aggregate(perModel, Usage{})
	assert.Equal(t, 1_000_000, got.ContextWindow)
}

func TestAggregate_ContextWindowDefault(t *testing.T) {
	t.Parallel()
	perModel := map[string]ModelUsage{
		"a": {InputTokens: 10, OutputTokens: 5},
	}

	got := Aggregate(perModel, Usage{})
	assert.Equal(t, DefaultContextWindow, got.ContextWindow)
}

func TestAggregate_ZeroMapFallsBackToFlat(t *testing.T) {
	t.Parallel()

	// A per-model map summing to zero means the breakdown is absent, not
	// that the session was free.
	perModel := map[string]ModelUsage{
		"a": {},
		"b": {ContextWindow: 32_000},
	}
	flat := Usage{InputTokens: 900, OutputTokens: 120, CostUSD: 0.07}

	got := Aggregate(perModel, flat)
	assert.Equal(t, 900, got.InputTokens)
	assert.Equal(t, 120, got.OutputTokens)
	assert.Equal(t, 0.07, got.CostUSD)
	assert.Equal(t, DefaultContextWindow, got.ContextWindow)
}

func TestAggregate_NilMapUsesFlat(t *testing.T) {
	t.Parallel()
	flat := Usage{InputTokens: 3, OutputTokens: 4, ContextWindow: 64_000}

	got := Aggregate(nil, flat)
	assert.Equal(t, 3, got.InputTokens)
	assert.Equal(t, 64_000, got.ContextWindow)
}

func TestUsage_Add(t *testing.T) {
	t.Parallel()
	a := Usage{InputTokens: 10, OutputTokens: 5, CostUSD: 0.01, ContextWindow: 100}
	b := Usage{InputTokens: 1, OutputTokens: 2, CacheReadTokens: 3, CostUSD: 0.02, ContextWindow: 200}

	got := a.Add(b)
	assert.Equal(t, 11, got.InputTokens)
	assert.Equal(t, 7, got.OutputTokens)
	assert.Equal(t, 3, got.CacheReadTokens)
	assert.InDelta(t, 0.03, got.CostUSD, 1e-9)
	assert.Equal(t, 200, got.ContextWindow)
}
