// Package flat implements an exact nearest-neighbour index: a brute
// force cosine scan over all chunk vectors, persisted as a directory of
// JSON files (vector data plus text store).
package flat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"yelly/internal/domain"
	"yelly/internal/vectorindex"
)

const (
	vectorsFile  = "vectors.json"
	docstoreFile = "docstore.json"
)

// Index is an in-memory exact-NN index. Vectors are L2-normalized at
// build time so a dot product equals cosine similarity.
type Index struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float32
}

func New() *Index { return &Index{} }

// Build replaces the index contents with the given chunk/vector pairs.
func (ix *Index) Build(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return vectorindex.ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return vectorindex.ErrCountMismatch
	}
	dim := len(vectors[0])
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dims, want %d", vectorindex.ErrDimMismatch, i, len(v), dim)
		}
		nv := make([]float32, len(v))
		copy(nv, v)
		vectorindex.Normalize(nv)
		normalized[i] = nv
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dimension = dim
	ix.chunks = append([]domain.Chunk(nil), chunks...)
	ix.vectors = normalized
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Search returns the top-k chunks for the query vector under the chosen
// strategy. Ties break on chunk order, so results are deterministic for
// a fixed query.
func (ix *Index) Search(ctx context.Context, query []float32, k int, params domain.SearchParams) ([]domain.SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.chunks) == 0 {
		return nil, vectorindex.ErrNotBuilt
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d dims, want %d", vectorindex.ErrDimMismatch, len(query), ix.dimension)
	}
	if k <= 0 {
		k = 4
	}
	q := make([]float32, len(query))
	copy(q, query)
	vectorindex.Normalize(q)

	switch params.Strategy {
	case domain.StrategySimilarity, "":
		cands := ix.topCandidates(q, k)
		results := make([]domain.SearchResult, 0, len(cands))
		for _, c := range cands {
			results = append(results, domain.SearchResult{Chunk: c.Chunk, Score: c.Score})
		}
		return results, nil
	case domain.StrategyMMR:
		fetchK := params.FetchK
		if fetchK < k {
			fetchK = 4 * k
		}
		cands := ix.topCandidates(q, fetchK)
		return vectorindex.SelectMMR(q, cands, k, params.Lambda), nil
	default:
		return nil, fmt.Errorf("%w: %q", vectorindex.ErrUnknownStrategy, params.Strategy)
	}
}

func (ix *Index) topCandidates(query []float32, k int) []vectorindex.Candidate {
	cands := make([]vectorindex.Candidate, len(ix.chunks))
	for i := range ix.chunks {
		cands[i] = vectorindex.Candidate{
			Chunk:  ix.chunks[i],
			Vector: ix.vectors[i],
			Score:  dot(ix.vectors[i], query),
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Chunk.Index < cands[j].Chunk.Index
	})
	if k > len(cands) {
		k = len(cands)
	}
	return cands[:k]
}

type vectorData struct {
	Dimension int         `json:"dimension"`
	Vectors   [][]float32 `json:"vectors"`
}

type docRecord struct {
	VideoID string `json:"video_id"`
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
	Index   int    `json:"index"`
}

// Save serializes the full index to a directory so load can answer
// identical queries in identical order.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.chunks) == 0 {
		return vectorindex.ErrNotBuilt
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(path, vectorsFile), vectorData{Dimension: ix.dimension, Vectors: ix.vectors}); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	records := make([]docRecord, len(ix.chunks))
	for i, ch := range ix.chunks {
		records[i] = docRecord{VideoID: ch.VideoID, ChunkID: ch.ChunkID, Text: ch.Text, Index: ch.Index}
	}
	if err := writeJSON(filepath.Join(path, docstoreFile), records); err != nil {
		return fmt.Errorf("save docstore: %w", err)
	}
	return nil
}

// Load restores an index previously written by Save.
func (ix *Index) Load(path string) error {
	var vd vectorData
	if err := readJSON(filepath.Join(path, vectorsFile), &vd); err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	var records []docRecord
	if err := readJSON(filepath.Join(path, docstoreFile), &records); err != nil {
		return fmt.Errorf("load docstore: %w", err)
	}
	if len(records) != len(vd.Vectors) {
		return vectorindex.ErrCountMismatch
	}
	if len(records) == 0 {
		return vectorindex.ErrEmptyIndex
	}
	chunks := make([]domain.Chunk, len(records))
	for i, r := range records {
		chunks[i] = domain.Chunk{VideoID: r.VideoID, ChunkID: r.ChunkID, Text: r.Text, Index: r.Index}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dimension = vd.Dimension
	ix.chunks = chunks
	ix.vectors = vd.Vectors
	return nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(v)
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
