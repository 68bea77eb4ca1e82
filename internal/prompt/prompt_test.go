package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"yelly/internal/domain"
)

func TestAssembleContext_JoinsWithBlankLine(t *testing.T) {
	chunks := []domain.Chunk{
		{Text: "first chunk"},
		{Text: "second chunk"},
		{Text: "third chunk"},
	}
	assert.Equal(t, "first chunk\n\nsecond chunk\n\nthird chunk", AssembleContext(chunks))
}

func TestAssembleContext_PreservesRetrievalOrder(t *testing.T) {
	chunks := []domain.Chunk{
		{Text: "b", Index: 7},
		{Text: "a", Index: 1},
	}
	assert.Equal(t, "b\n\na", AssembleContext(chunks))
}

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, "", AssembleContext(nil))
}

func TestUserMessage(t *testing.T) {
	got := UserMessage("some context", "what happened?")
	assert.Equal(t, "Transcript Context:\nsome context\n\nQuestion:\nwhat happened?", got)
}

func TestSystem_NamesThePersona(t *testing.T) {
	assert.Contains(t, System, "Yelly")
}
