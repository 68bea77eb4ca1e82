// Package chromem adapts a chromem-go collection to the vector index
// contract. chromem keeps the whole collection in memory and serializes
// it to a single blob file.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"yelly/internal/domain"
	"yelly/internal/vectorindex"
)

const collectionName = "chunks"

// Index wraps a chromem-go DB holding a single chunk collection.
type Index struct {
	mu sync.RWMutex
	db *chromem.DB
}

func New() *Index {
	return &Index{db: chromem.NewDB()}
}

// noEmbed guards against chromem computing embeddings on its own: every
// document is added with a precomputed vector and queries arrive as
// vectors, so this must never be called.
func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings must be precomputed")
}

func (ix *Index) Build(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return vectorindex.ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return vectorindex.ErrCountMismatch
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dims, want %d", vectorindex.ErrDimMismatch, i, len(v), dim)
		}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_ = ix.db.DeleteCollection(collectionName)
	coll, err := ix.db.CreateCollection(collectionName, nil, noEmbed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:        ch.ChunkID,
			Content:   ch.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"video_id": ch.VideoID,
				"index":    strconv.Itoa(ch.Index),
			},
		}
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	coll := ix.db.GetCollection(collectionName, noEmbed)
	if coll == nil {
		return 0
	}
	return coll.Count()
}

func (ix *Index) Search(ctx context.Context, query []float32, k int, params domain.SearchParams) ([]domain.SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	coll := ix.db.GetCollection(collectionName, noEmbed)
	if coll == nil || coll.Count() == 0 {
		return nil, vectorindex.ErrNotBuilt
	}
	if k <= 0 {
		k = 4
	}
	switch params.Strategy {
	case domain.StrategySimilarity, "":
		results, err := ix.query(ctx, coll, query, k)
		if err != nil {
			return nil, err
		}
		out := make([]domain.SearchResult, 0, len(results))
		for _, c := range results {
			out = append(out, domain.SearchResult{Chunk: c.Chunk, Score: c.Score})
		}
		return out, nil
	case domain.StrategyMMR:
		fetchK := params.FetchK
		if fetchK < k {
			fetchK = 4 * k
		}
		cands, err := ix.query(ctx, coll, query, fetchK)
		if err != nil {
			return nil, err
		}
		return vectorindex.SelectMMR(query, cands, k, params.Lambda), nil
	default:
		return nil, fmt.Errorf("%w: %q", vectorindex.ErrUnknownStrategy, params.Strategy)
	}
}

func (ix *Index) query(ctx context.Context, coll *chromem.Collection, query []float32, n int) ([]vectorindex.Candidate, error) {
	if n > coll.Count() {
		n = coll.Count()
	}
	results, err := coll.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	cands := make([]vectorindex.Candidate, 0, len(results))
	for _, r := range results {
		idx, _ := strconv.Atoi(r.Metadata["index"])
		cands = append(cands, vectorindex.Candidate{
			Chunk: domain.Chunk{
				VideoID: r.Metadata["video_id"],
				ChunkID: r.ID,
				Text:    r.Content,
				Index:   idx,
			},
			Vector: r.Embedding,
			Score:  r.Similarity,
		})
	}
	return cands, nil
}

// Save exports the collection to a single compressed blob at path.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if coll := ix.db.GetCollection(collectionName, noEmbed); coll == nil || coll.Count() == 0 {
		return vectorindex.ErrNotBuilt
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ix.db.ExportToFile(path, true, "", collectionName)
}

// Load restores a collection previously written by Save.
func (ix *Index) Load(path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.db.ImportFromFile(path, "", collectionName); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if coll := ix.db.GetCollection(collectionName, noEmbed); coll == nil {
		return vectorindex.ErrNotBuilt
	}
	return nil
}
