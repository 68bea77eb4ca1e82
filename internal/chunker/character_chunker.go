package chunker

import (
	"errors"
	"strconv"

	"yelly/internal/domain"
)

// ErrEmptyTranscript is returned when there is no caption text to split.
var ErrEmptyTranscript = errors.New("transcript is empty")

// CharacterChunker splits the entire caption text into fixed-size
// windows with overlap between consecutive windows. Windows advance by
// chunkSize-overlap runes; the final window may be shorter. Splitting is
// deterministic: the same text always yields the same chunk sequence.
type CharacterChunker struct {
	chunkSize int
	overlap   int
}

// NewCharacterChunker creates a chunker with the given window size and
// overlap in runes. Out-of-range values fall back to 1000/200.
func NewCharacterChunker(chunkSize, overlap int) *CharacterChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 200
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &CharacterChunker{chunkSize: chunkSize, overlap: overlap}
}

func (c *CharacterChunker) Split(t domain.VideoTranscript) ([]domain.Chunk, error) {
	runes := []rune(t.Captions)
	if len(runes) == 0 {
		return nil, ErrEmptyTranscript
	}
	var chunks []domain.Chunk
	step := c.chunkSize - c.overlap
	idx := 0
	for i := 0; i < len(runes); i += step {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			VideoID: t.VideoID,
			ChunkID: t.VideoID + ":" + strconv.Itoa(idx),
			Text:    string(runes[i:end]),
			Index:   idx,
		})
		if end >= len(runes) {
			break
		}
		idx++
	}
	return chunks, nil
}
