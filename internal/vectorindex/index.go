package vectorindex

import (
	"context"
	"errors"
	"math"

	"yelly/internal/domain"
)

// Errors shared by all index backends.
var (
	ErrEmptyIndex      = errors.New("cannot build index without chunks")
	ErrCountMismatch   = errors.New("chunks and vectors length mismatch")
	ErrDimMismatch     = errors.New("vector dimension mismatch")
	ErrNotBuilt        = errors.New("index is not built")
	ErrUnsupportedOp   = errors.New("operation not supported by this backend")
	ErrUnknownStrategy = errors.New("unknown search strategy")
)

// Index stores chunk vectors and answers nearest-neighbour queries.
type Index interface {
	Build(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, params domain.SearchParams) ([]domain.SearchResult, error)
	Save(path string) error
	Load(path string) error
	Len() int
}

// Candidate is an intermediate search hit carrying its vector so the
// MMR pass can measure similarity between candidates.
type Candidate struct {
	Chunk  domain.Chunk
	Vector []float32
	Score  float32
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// A zero-norm operand yields 0.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// MaximalMarginalRelevance iteratively picks k candidates, each time
// maximizing lambda*relevance(candidate, query) minus
// (1-lambda)*max-similarity(candidate, already selected). Lambda 1
// degenerates to pure similarity order. Returns indexes into cands in
// selection order.
func MaximalMarginalRelevance(query []float32, cands []Candidate, k int, lambda float32) []int {
	if k > len(cands) {
		k = len(cands)
	}
	if k <= 0 {
		return nil
	}
	relevance := make([]float32, len(cands))
	for i := range cands {
		relevance[i] = CosineSimilarity(query, cands[i].Vector)
	}
	selected := make([]int, 0, k)
	picked := make([]bool, len(cands))
	for len(selected) < k {
		best := -1
		var bestScore float32
		for i := range cands {
			if picked[i] {
				continue
			}
			var maxSim float32
			for _, j := range selected {
				if sim := CosineSimilarity(cands[i].Vector, cands[j].Vector); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*relevance[i] - (1-lambda)*maxSim
			if best == -1 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		picked[best] = true
		selected = append(selected, best)
	}
	return selected
}

// SelectMMR runs the MMR pass over a candidate pool and converts the
// selection back into scored results in selection order.
func SelectMMR(query []float32, cands []Candidate, k int, lambda float32) []domain.SearchResult {
	idxs := MaximalMarginalRelevance(query, cands, k, lambda)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, i := range idxs {
		results = append(results, domain.SearchResult{Chunk: cands[i].Chunk, Score: cands[i].Score})
	}
	return results
}
