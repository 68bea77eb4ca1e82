// Package retriever turns a question into a small, non-redundant set of
// relevant transcript chunks.
package retriever

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"yelly/internal/domain"
	"yelly/internal/vectorindex"
)

// Options tunes retrieval. TopK and FetchK zero values fall back to the
// shipped defaults (4 and 20). Lambda 0 is a valid setting, maximum
// diversity; only values outside [0,1] fall back to 0.8.
type Options struct {
	TopK   int
	FetchK int
	Lambda float32
}

func (o *Options) applyDefaults() {
	if o.TopK <= 0 {
		o.TopK = 4
	}
	if o.FetchK <= 0 {
		o.FetchK = 20
	}
	if o.Lambda < 0 || o.Lambda > 1 {
		o.Lambda = 0.8
	}
}

// Retriever embeds the question once and runs a diversity-aware (MMR)
// search against the vector index. When the question embeds to a zero
// vector (possible under the TF-IDF embedder when no query token is in
// the vocabulary), it falls back to lexical overlap ranking over the
// chunk corpus.
type Retriever struct {
	embedder domain.Embedder
	index    vectorindex.Index
	chunks   []domain.Chunk
	opts     Options
}

func New(embedder domain.Embedder, index vectorindex.Index, chunks []domain.Chunk, opts Options) *Retriever {
	opts.applyDefaults()
	return &Retriever{embedder: embedder, index: index, chunks: chunks, opts: opts}
}

func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.Chunk, error) {
	vec, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return r.lexicalSearch(question), nil
	}
	results, err := r.index.Search(ctx, vec, r.opts.TopK, domain.SearchParams{
		Strategy: domain.StrategyMMR,
		FetchK:   r.opts.FetchK,
		Lambda:   r.opts.Lambda,
	})
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	allZero := true
	for _, res := range results {
		if res.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		return r.lexicalSearch(question), nil
	}
	chunks := make([]domain.Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}
	return chunks, nil
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

func (r *Retriever) lexicalSearch(question string) []domain.Chunk {
	qset := toTokenSet(question)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(r.chunks))
	for i, ch := range r.chunks {
		scores[i] = pair{i, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	topK := r.opts.TopK
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.Chunk, 0, topK)
	for i := 0; i < topK; i++ {
		out = append(out, r.chunks[scores[i].idx])
	}
	return out
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai scores token overlap with the Ochiai coefficient:
// |A∩B| / sqrt(|A||B|).
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := unicodeWordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / (math.Sqrt(float64(len(qset))) * math.Sqrt(float64(len(seen))))
}
