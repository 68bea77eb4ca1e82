package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelly/internal/domain"
)

func TestCharacterChunker_WindowsAndOverlap(t *testing.T) {
	text := "Cats are mammals. Dogs are mammals too. The sky is blue."
	c := NewCharacterChunker(20, 5)

	chunks, err := c.Split(domain.VideoTranscript{VideoID: "vid1", Captions: text})
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	runes := []rune(text)
	assert.Equal(t, string(runes[0:20]), chunks[0].Text)
	assert.Equal(t, string(runes[15:35]), chunks[1].Text)
	assert.Equal(t, string(runes[30:50]), chunks[2].Text)
	assert.Equal(t, string(runes[45:]), chunks[3].Text)

	for i, ch := range chunks {
		assert.Equal(t, "vid1", ch.VideoID)
		assert.Equal(t, i, ch.Index)
	}
	assert.Equal(t, "vid1:0", chunks[0].ChunkID)
	assert.Equal(t, "vid1:3", chunks[3].ChunkID)
}

func TestCharacterChunker_CoverageReconstruction(t *testing.T) {
	text := "Cats are mammals. Dogs are mammals too. The sky is blue."
	overlap := 5
	c := NewCharacterChunker(20, overlap)

	chunks, err := c.Split(domain.VideoTranscript{VideoID: "v", Captions: text})
	require.NoError(t, err)

	// Dropping the overlap prefix of every chunk after the first must
	// reconstruct the original text exactly.
	rebuilt := chunks[0].Text
	for _, ch := range chunks[1:] {
		rebuilt += string([]rune(ch.Text)[overlap:])
	}
	assert.Equal(t, text, rebuilt)
}

func TestCharacterChunker_Deterministic(t *testing.T) {
	tr := domain.VideoTranscript{VideoID: "v", Captions: "some caption text that is split into windows deterministically"}
	c := NewCharacterChunker(16, 4)

	first, err := c.Split(tr)
	require.NoError(t, err)
	second, err := c.Split(tr)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCharacterChunker_ShortTranscriptSingleChunk(t *testing.T) {
	c := NewCharacterChunker(1000, 200)

	chunks, err := c.Split(domain.VideoTranscript{VideoID: "v", Captions: "tiny"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Text)
}

func TestCharacterChunker_EmptyTranscript(t *testing.T) {
	c := NewCharacterChunker(1000, 200)

	_, err := c.Split(domain.VideoTranscript{VideoID: "v"})
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestNewCharacterChunker_ClampsBadValues(t *testing.T) {
	// Overlap >= size would loop forever; the constructor clamps it.
	c := NewCharacterChunker(10, 50)
	chunks, err := c.Split(domain.VideoTranscript{VideoID: "v", Captions: "abcdefghijklmnopqrstuvwxyz"})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}
