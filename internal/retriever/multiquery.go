package retriever

import (
	"context"
	"fmt"
	"strings"

	"yelly/internal/domain"
	"yelly/internal/llm"
)

const paraphrasePrompt = `Generate %d different rephrasings of the user question below.
Each rephrasing should approach the question from a different angle while keeping its meaning.
Return only the rephrased questions, one per line, with no numbering.

Question: %s`

// MultiQuery retrieves for the original question plus several LLM
// paraphrases of it, then unions the results de-duplicated by chunk ID
// in first-seen order. It is an opt-in alternative to the default MMR
// retriever; paraphrase failures degrade to the single-query path.
type MultiQuery struct {
	base       *Retriever
	completer  llm.Completer
	numQueries int
}

func NewMultiQuery(base *Retriever, completer llm.Completer, numQueries int) *MultiQuery {
	if numQueries <= 0 {
		numQueries = 3
	}
	return &MultiQuery{base: base, completer: completer, numQueries: numQueries}
}

func (m *MultiQuery) Retrieve(ctx context.Context, question string) ([]domain.Chunk, error) {
	queries := []string{question}
	queries = append(queries, m.paraphrase(ctx, question)...)

	var out []domain.Chunk
	seen := make(map[string]struct{})
	var firstErr error
	for _, q := range queries {
		chunks, err := m.base.Retrieve(ctx, q)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, ch := range chunks {
			if _, ok := seen[ch.ChunkID]; ok {
				continue
			}
			seen[ch.ChunkID] = struct{}{}
			out = append(out, ch)
		}
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (m *MultiQuery) paraphrase(ctx context.Context, question string) []string {
	text, err := m.completer.Complete(ctx, "", nil, fmt.Sprintf(paraphrasePrompt, m.numQueries, question))
	if err != nil {
		return nil
	}
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == question {
			continue
		}
		queries = append(queries, line)
		if len(queries) == m.numQueries {
			break
		}
	}
	return queries
}
