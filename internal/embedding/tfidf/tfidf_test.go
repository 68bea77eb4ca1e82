package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatch_BuildsVocabularyFromCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.False(t, e.Prepared())
	corpus := []string{
		"Cats are mammals.",
		"Dogs are mammals too.",
		"The sky is blue.",
	}

	vectors, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.True(t, e.Prepared())
	assert.Greater(t, e.Dimension(), 0)
	for _, v := range vectors {
		assert.Len(t, v, e.Dimension())
	}
}

func TestEmbedQuery_SimilarTextsScoreHigher(t *testing.T) {
	e := NewEmbedder()
	corpus := []string{
		"Cats are mammals.",
		"Dogs are mammals too.",
		"The sky is blue.",
	}
	vectors, err := e.EmbedBatch(context.Background(), corpus)
	require.NoError(t, err)

	q, err := e.EmbedQuery(context.Background(), "tell me about cats")
	require.NoError(t, err)

	catScore := dot(q, vectors[0])
	skyScore := dot(q, vectors[2])
	assert.Greater(t, catScore, skyScore)
}

func TestEmbedQuery_UnknownTokensGiveZeroVector(t *testing.T) {
	e := NewEmbedder()
	_, err := e.EmbedBatch(context.Background(), []string{"Cats are mammals."})
	require.NoError(t, err)

	q, err := e.EmbedQuery(context.Background(), "quantum chromodynamics")
	require.NoError(t, err)
	for _, v := range q {
		assert.Equal(t, float32(0), v)
	}
}

func TestEmbedQuery_BeforePrepareFails(t *testing.T) {
	e := NewEmbedder()
	_, err := e.EmbedQuery(context.Background(), "anything")
	assert.Error(t, err)
}

func TestEmbedBatch_EmptyCorpusFails(t *testing.T) {
	e := NewEmbedder()
	_, err := e.EmbedBatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestEmbedBatch_RebuildReplacesVocabulary(t *testing.T) {
	e := NewEmbedder()
	_, err := e.EmbedBatch(context.Background(), []string{"cats cats cats"})
	require.NoError(t, err)
	firstDim := e.Dimension()

	_, err = e.EmbedBatch(context.Background(), []string{"dogs bark loudly", "dogs sleep"})
	require.NoError(t, err)
	assert.NotEqual(t, 0, firstDim)
	assert.Equal(t, 4, e.Dimension())
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
