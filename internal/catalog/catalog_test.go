package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoGenreCatalog() *Catalog {
	return New([]ReferenceTrack{
		{ID: 1, Label: "rock", Features: []float64{1, 0}},
		{ID: 2, Label: "hiphop", Features: []float64{0, 1}},
	})
}

func TestNearestLabel_ClosestReferenceWins(t *testing.T) {
	c := twoGenreCatalog()

	label, score, err := c.NearestLabel([]float64{0.9, 0.1})
	require.NoError(t, err)

	assert.Equal(t, "rock", label)
	assert.Greater(t, score, 0.5, "score should reflect similarity to the rock reference")

	label, _, err = c.NearestLabel([]float64{0.1, 0.9})
	require.NoError(t, err)
	assert.Equal(t, "hiphop", label)
}

func TestNearestLabel_EmptyCatalog(t *testing.T) {
	c := New(nil)

	label, score, err := c.NearestLabel([]float64{1, 0})

	assert.ErrorIs(t, err, ErrEmptyCatalog)
	assert.Empty(t, label)
	assert.Zero(t, score)
}

func TestNearestLabel_Deterministic(t *testing.T) {
	c := twoGenreCatalog()
	vec := []float64{0.7, 0.3}

	firstLabel, firstScore, err := c.NearestLabel(vec)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		label, score, err := c.NearestLabel(vec)
		require.NoError(t, err)
		assert.Equal(t, firstLabel, label)
		assert.Equal(t, firstScore, score)
	}
}

func TestNearestLabel_TieBreaksToLowestIndex(t *testing.T) {
	c := New([]ReferenceTrack{
		{ID: 1, Label: "rock", Features: []float64{1, 1}},
		{ID: 2, Label: "hiphop", Features: []float64{1, 1}},
	})

	label, _, err := c.NearestLabel([]float64{1, 1})
	require.NoError(t, err)

	assert.Equal(t, "rock", label, "equal similarity must resolve to the lowest-index reference")
}

func TestNearestLabel_ScoreNormalized(t *testing.T) {
	c := twoGenreCatalog()

	// Identical vector: cosine similarity 1 maps to score 1
	_, score, err := c.NearestLabel([]float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	// Zero vector has no direction: similarity 0 maps to score 0.5
	_, score, err = c.NearestLabel([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestNearestLabel_DimensionMismatch(t *testing.T) {
	c := twoGenreCatalog()

	// A mismatched vector cannot match anything; similarity collapses to 0
	label, score, err := c.NearestLabel([]float64{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "rock", label, "tie at zero similarity resolves to lowest index")
	assert.InDelta(t, 0.5, score, 1e-9)
}
