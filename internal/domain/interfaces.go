package domain

import "context"

// VideoTranscript is the durable source document for indexing: the full
// caption text of one YouTube video. Immutable once fetched; loading a
// new video supersedes it wholesale.
type VideoTranscript struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"video_name"`
	Captions string `json:"captions"`
}

// Chunk is a bounded segment of a transcript used for independent
// embedding and retrieval.
type Chunk struct {
	VideoID string
	ChunkID string
	Text    string
	Index   int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// Role tags a conversation turn as coming from the user or the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation history.
type Turn struct {
	Role    Role
	Content string
}

// Strategy selects how the vector index picks its top-k results.
type Strategy string

const (
	// StrategySimilarity returns the k nearest chunks by cosine similarity.
	StrategySimilarity Strategy = "similarity"
	// StrategyMMR balances relevance against diversity among the selected
	// chunks (maximal marginal relevance).
	StrategyMMR Strategy = "mmr"
)

// SearchParams tunes a vector index search.
type SearchParams struct {
	Strategy Strategy
	// FetchK is the candidate pool size for MMR selection.
	FetchK int
	// Lambda trades relevance against diversity in [0,1]; 1 degenerates
	// to pure similarity.
	Lambda float32
}

// Embedder converts text into fixed-dimension vectors. Query and
// document vectors must come from the same underlying model so they are
// comparable by cosine distance.
type Embedder interface {
	Name() string
	Dimension() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits a transcript into chunks suitable for embedding.
type Chunker interface {
	Split(t VideoTranscript) ([]Chunk, error)
}

// VectorIndex stores chunk vectors plus their text and answers
// nearest-neighbour queries. Build replaces the contents wholesale;
// there is no incremental update.
type VectorIndex interface {
	Build(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, params SearchParams) ([]SearchResult, error)
	Save(path string) error
	Load(path string) error
	Len() int
}

// Retriever turns a question into a small, ordered set of relevant chunks.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]Chunk, error)
}

// Completer invokes the chat model with a system instruction, prior
// conversation turns and the current user message.
type Completer interface {
	Complete(ctx context.Context, system string, history []Turn, user string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
