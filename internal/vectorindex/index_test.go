package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelly/internal/domain"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func mmrCands() []Candidate {
	return []Candidate{
		{Chunk: domain.Chunk{ChunkID: "a", Index: 0}, Vector: []float32{1, 0}},
		{Chunk: domain.Chunk{ChunkID: "a2", Index: 1}, Vector: []float32{1, 0}},
		{Chunk: domain.Chunk{ChunkID: "b", Index: 2}, Vector: []float32{0, 1}},
	}
}

func TestMaximalMarginalRelevance_PenalizesDuplicates(t *testing.T) {
	query := []float32{1, 0}

	// With diversity weighted in, the duplicate of the first pick loses
	// to the orthogonal candidate despite higher relevance.
	selected := MaximalMarginalRelevance(query, mmrCands(), 2, 0.4)
	require.Equal(t, []int{0, 2}, selected)
}

func TestMaximalMarginalRelevance_LambdaOneIsPureSimilarity(t *testing.T) {
	query := []float32{1, 0}

	selected := MaximalMarginalRelevance(query, mmrCands(), 2, 1)
	require.Equal(t, []int{0, 1}, selected)
}

func TestMaximalMarginalRelevance_ClampsK(t *testing.T) {
	query := []float32{1, 0}

	selected := MaximalMarginalRelevance(query, mmrCands(), 10, 0.8)
	assert.Len(t, selected, 3)
	assert.Nil(t, MaximalMarginalRelevance(query, nil, 4, 0.8))
}

func TestSelectMMR_ReturnsResultsInSelectionOrder(t *testing.T) {
	query := []float32{1, 0}

	results := SelectMMR(query, mmrCands(), 2, 0.4)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ChunkID)
	assert.Equal(t, "b", results[1].Chunk.ChunkID)
}
