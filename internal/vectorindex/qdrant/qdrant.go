// Package qdrant is a minimal REST adapter exposing a Qdrant collection
// as a vector index. It assumes cosine distance and recreates the
// collection on every build. Persistence lives on the Qdrant server, so
// Save is a no-op and Load only verifies the collection is reachable.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"yelly/internal/domain"
	"yelly/internal/vectorindex"
)

type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "yelly_chunks"
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
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
	// Drop any previous video's collection; best-effort.
	req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), nil)
	ix.setAuth(req)
	if resp, err := ix.client.Do(req); err == nil {
		resp.Body.Close()
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := ix.putJSON(ctx, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), body); err != nil {
		return err
	}
	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		points[i] = map[string]any{
			"id":     chunks[i].Index,
			"vector": vectors[i],
			"payload": map[string]any{
				"video_id": chunks[i].VideoID,
				"chunk_id": chunks[i].ChunkID,
				"index":    chunks[i].Index,
				"text":     chunks[i].Text,
			},
		}
	}
	err := ix.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", ix.url, ix.collection), map[string]any{"points": points})
	if err != nil {
		return err
	}
	ix.dimension = dim
	return nil
}

func (ix *Index) Search(ctx context.Context, query []float32, k int, params domain.SearchParams) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 4
	}
	switch params.Strategy {
	case domain.StrategySimilarity, "":
		cands, err := ix.search(ctx, query, k)
		if err != nil {
			return nil, err
		}
		out := make([]domain.SearchResult, 0, len(cands))
		for _, c := range cands {
			out = append(out, domain.SearchResult{Chunk: c.Chunk, Score: c.Score})
		}
		return out, nil
	case domain.StrategyMMR:
		fetchK := params.FetchK
		if fetchK < k {
			fetchK = 4 * k
		}
		cands, err := ix.search(ctx, query, fetchK)
		if err != nil {
			return nil, err
		}
		return vectorindex.SelectMMR(query, cands, k, params.Lambda), nil
	default:
		return nil, fmt.Errorf("%w: %q", vectorindex.ErrUnknownStrategy, params.Strategy)
	}
}

func (ix *Index) search(ctx context.Context, query []float32, limit int) ([]vectorindex.Candidate, error) {
	body := map[string]any{
		"vector":       query,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := ix.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", ix.url, ix.collection), body, &resp); err != nil {
		return nil, err
	}
	cands := make([]vectorindex.Candidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if v, ok := r.Payload["video_id"].(string); ok {
			chunk.VideoID = v
		}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			chunk.ChunkID = v
		}
		if v, ok := r.Payload["index"].(float64); ok {
			chunk.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		cands = append(cands, vectorindex.Candidate{Chunk: chunk, Vector: r.Vector, Score: r.Score})
	}
	return cands, nil
}

// Save is a no-op: the Qdrant server owns persistence.
func (ix *Index) Save(path string) error { return nil }

// Load verifies the collection exists on the server.
func (ix *Index) Load(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), ix.client.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), nil)
	if err != nil {
		return err
	}
	ix.setAuth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: collection %q not available (%s)", vectorindex.ErrNotBuilt, ix.collection, resp.Status)
	}
	return nil
}

func (ix *Index) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), ix.client.Timeout)
	defer cancel()
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), nil)
	if err != nil {
		return 0
	}
	ix.setAuth(req)
	r, err := ix.client.Do(req)
	if err != nil {
		return 0
	}
	defer r.Body.Close()
	if r.StatusCode >= 300 {
		return 0
	}
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return 0
	}
	return resp.Result.PointsCount
}

func (ix *Index) setAuth(req *http.Request) {
	if ix.apiKey != "" {
		req.Header.Set("api-key", ix.apiKey)
	}
}

func (ix *Index) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	ix.setAuth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (ix *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	ix.setAuth(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
