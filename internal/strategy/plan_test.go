package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReplacesNilCollections(t *testing.T) {
	data, err := json.Marshal(Plan{Name: "x"}.Normalize())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["objectives"])
	assert.Equal(t, []any{}, raw["kpis"])
	swot := raw["swot"].(map[string]any)
	assert.Equal(t, []any{}, swot["threats"])
}

func TestNormalizeKeepsExistingEntries(t *testing.T) {
	p := Plan{Risks: []Risk{{Title: "r"}}}
	assert.Equal(t, p.Risks, p.Normalize().Risks)
}

func TestGroupAndSplitSWOT(t *testing.T) {
	items := []SWOTItem{
		{Quadrant: QuadrantStrengths, Title: "Skilled staff"},
		{Quadrant: QuadrantThreats, Title: "Budget cuts", Impact: "high"},
		{Quadrant: "nonsense", Title: "dropped"},
	}

	s := GroupSWOT(items)
	assert.Len(t, s.Strengths, 1)
	assert.Len(t, s.Threats, 1)
	assert.Empty(t, s.Weaknesses)
	assert.False(t, s.IsEmpty())

	assert.Equal(t, items[:2], SplitSWOT(s))
	assert.True(t, SWOT{}.IsEmpty())
	assert.False(t, ValidQuadrant("nonsense"))
}

func TestHasText(t *testing.T) {
	assert.False(t, HasText(" \t\n"))
	assert.True(t, HasText(" x "))
}
