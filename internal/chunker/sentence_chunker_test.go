package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelly/internal/domain"
)

func TestSentenceChunker_GroupsWithOverlap(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	c := NewSentenceChunker(2, 1)

	chunks, err := c.Split(domain.VideoTranscript{VideoID: "v", Captions: text})
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "One. Two.", chunks[0].Text)
	assert.Equal(t, "Two. Three.", chunks[1].Text)
	assert.Equal(t, "Three. Four.", chunks[2].Text)
	assert.Equal(t, "Four. Five.", chunks[3].Text)
}

func TestSentenceChunker_NoTerminatorFallsBackToWholeText(t *testing.T) {
	c := NewSentenceChunker(3, 1)

	chunks, err := c.Split(domain.VideoTranscript{VideoID: "v", Captions: "no sentence terminator here"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "no sentence terminator here", chunks[0].Text)
}

func TestSentenceChunker_EmptyTranscript(t *testing.T) {
	c := NewSentenceChunker(3, 1)

	_, err := c.Split(domain.VideoTranscript{VideoID: "v", Captions: "   "})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}
