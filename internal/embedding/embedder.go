package embedding

import "context"

// Embedder converts text into fixed-dimension vectors. Query and
// document embeddings must come from the same underlying model.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
