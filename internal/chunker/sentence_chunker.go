package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"yelly/internal/domain"
)

// SentenceChunker splits the caption text into sentence-based chunks
// with overlap. It keeps sentence boundaries intact, which reads better
// in assembled context at the cost of uneven chunk sizes.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

func (c *SentenceChunker) Split(t domain.VideoTranscript) ([]domain.Chunk, error) {
	if strings.TrimSpace(t.Captions) == "" {
		return nil, ErrEmptyTranscript
	}
	sentences := c.splitter.FindAllString(t.Captions, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(t.Captions)}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []domain.Chunk
	i := 0
	idx := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Chunk{
			VideoID: t.VideoID,
			ChunkID: t.VideoID + ":" + strconv.Itoa(idx),
			Text:    strings.Join(sentences[i:end], " "),
			Index:   idx,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		idx++
	}
	return chunks, nil
}
