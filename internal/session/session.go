// Package session owns the per-conversation state: exactly one video
// transcript, one vector index and one conversation memory at a time.
// Loading a new video replaces all three atomically from the caller's
// perspective, and answering a question never lets an error escape past
// the Ask boundary.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"yelly/internal/domain"
	"yelly/internal/llm"
	"yelly/internal/memory"
	"yelly/internal/prompt"
	"yelly/internal/retriever"
	"yelly/internal/transcript"
	"yelly/internal/vectorindex"
)

// Fallback messages returned instead of raising past the Ask boundary.
const (
	FallbackAnswer      = "Sorry, I couldn't come up with an answer this time. Please try asking again!"
	NoVideoAnswer       = "No video is loaded yet. Give me a YouTube link first and I'll read its transcript."
	EmptyQuestionAnswer = "I didn't catch a question there. Type one and I'll answer from the video!"
)

// Options wires the session's collaborators and tuning knobs.
type Options struct {
	Fetcher    transcript.Fetcher
	Store      *transcript.Store
	Chunker    domain.Chunker
	Embedder   domain.Embedder
	Completer  llm.Completer
	Summarizer domain.Summarizer

	// NewIndex builds a fresh, empty index; a new one is created per
	// video so a failed rebuild can never corrupt the current index.
	NewIndex  func() vectorindex.Index
	IndexPath string

	Language         string
	Retrieval        retriever.Options
	MultiQuery       bool
	NumQueries       int
	MaxTurns         int
	SummarySentences int
}

// Session is the explicit state struct replacing ambient UI-framework
// state: the caller owns it and passes it into every call.
type Session struct {
	mu   sync.Mutex
	opts Options

	transcript *domain.VideoTranscript
	index      vectorindex.Index
	retr       domain.Retriever
	mem        *memory.Memory
	summary    string
}

func New(opts Options) *Session {
	return &Session{
		opts: opts,
		mem:  memory.New(opts.MaxTurns),
	}
}

// LoadVideo fetches, chunks, embeds, indexes and persists the video's
// transcript, then swaps it in. Every step of the rebuild happens on
// fresh values: on any failure the previous transcript, index and
// memory stay exactly as they were.
func (s *Session) LoadVideo(ctx context.Context, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.opts.Fetcher.VideoInfo(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("video lookup failed: %w", err)
	}
	// Same video already loaded; keep the index and the conversation.
	if s.transcript != nil && s.transcript.VideoID == info.VideoID {
		return nil
	}
	captions, err := s.opts.Fetcher.Transcript(ctx, info.VideoID, s.opts.Language)
	if err != nil {
		return fmt.Errorf("transcript fetch failed: %w", err)
	}
	t := domain.VideoTranscript{VideoID: info.VideoID, Title: info.Title, Captions: captions}

	chunks, vectors, err := s.embedTranscript(ctx, t)
	if err != nil {
		return err
	}
	idx := s.opts.NewIndex()
	if err := idx.Build(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	// The index is persisted before the transcript document, so an
	// aborted index save never leaves the new transcript on disk next
	// to the previous video's index.
	if err := idx.Save(s.opts.IndexPath); err != nil {
		return fmt.Errorf("index save failed: %w", err)
	}
	if err := s.opts.Store.Save(t); err != nil {
		return fmt.Errorf("transcript save failed: %w", err)
	}

	s.commit(t, idx, chunks)
	return nil
}

// Resume restores the previously persisted transcript and index so a
// later run can answer without refetching. The conversation starts
// empty.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.opts.Store.Load()
	if err != nil {
		return fmt.Errorf("transcript load failed: %w", err)
	}
	idx := s.opts.NewIndex()
	if err := idx.Load(s.opts.IndexPath); err != nil {
		return fmt.Errorf("index load failed: %w", err)
	}
	// Chunking is deterministic, so re-splitting reproduces the chunk
	// corpus the lexical fallback needs.
	chunks, err := s.opts.Chunker.Split(t)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	// Guard against a transcript and an index persisted from different
	// videos; committing such a pair would answer from the wrong video.
	if n := idx.Len(); n != len(chunks) {
		return fmt.Errorf("persisted index does not match transcript: %d chunks indexed, want %d", n, len(chunks))
	}
	if err := s.prepareEmbedder(ctx, chunks); err != nil {
		return err
	}
	s.commit(t, idx, chunks)
	return nil
}

// corpusEmbedder is implemented by embedders whose vocabulary is
// derived from the chunk corpus and lost across restarts.
type corpusEmbedder interface {
	Prepared() bool
}

// prepareEmbedder rebuilds a corpus-derived embedder's vocabulary from
// the re-split chunks. Vocabulary construction is deterministic, so the
// resulting query vectors line up with the persisted index.
func (s *Session) prepareEmbedder(ctx context.Context, chunks []domain.Chunk) error {
	ce, ok := s.opts.Embedder.(corpusEmbedder)
	if !ok || ce.Prepared() {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if _, err := s.opts.Embedder.EmbedBatch(ctx, texts); err != nil {
		return fmt.Errorf("embedder preparation failed: %w", err)
	}
	return nil
}

func (s *Session) embedTranscript(ctx context.Context, t domain.VideoTranscript) ([]domain.Chunk, [][]float32, error) {
	chunks, err := s.opts.Chunker.Split(t)
	if err != nil {
		return nil, nil, fmt.Errorf("chunking failed: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.opts.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding failed: %w", err)
	}
	return chunks, vectors, nil
}

// commit swaps in the new video state. Memory is cleared so context
// from the previous video can never leak into the new one's answers.
func (s *Session) commit(t domain.VideoTranscript, idx vectorindex.Index, chunks []domain.Chunk) {
	base := retriever.New(s.opts.Embedder, idx, chunks, s.opts.Retrieval)
	var retr domain.Retriever = base
	if s.opts.MultiQuery {
		retr = retriever.NewMultiQuery(base, s.opts.Completer, s.opts.NumQueries)
	}
	s.transcript = &t
	s.index = idx
	s.retr = retr
	s.mem.Clear()
	s.summary = ""
	if s.opts.Summarizer != nil {
		if sum, err := s.opts.Summarizer.Summarize(t.Captions, s.opts.SummarySentences); err == nil {
			s.summary = sum
		}
	}
}

// Ask answers the question from retrieved transcript context plus the
// conversation so far. It always returns a non-empty answer: any
// retrieval or generation failure yields a fixed fallback message. The
// question is recorded in memory either way; a fabricated answer never
// is, only the real answer or the fallback.
func (s *Session) Ask(ctx context.Context, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return EmptyQuestionAnswer
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retr == nil {
		s.record(question, NoVideoAnswer)
		return NoVideoAnswer
	}
	history := s.mem.Turns()

	chunks, err := s.retr.Retrieve(ctx, question)
	if err != nil {
		s.record(question, FallbackAnswer)
		return FallbackAnswer
	}
	contextText := prompt.AssembleContext(chunks)
	answer, err := s.opts.Completer.Complete(ctx, prompt.System, history, prompt.UserMessage(contextText, question))
	if err != nil || strings.TrimSpace(answer) == "" {
		s.record(question, FallbackAnswer)
		return FallbackAnswer
	}
	s.record(question, answer)
	return answer
}

func (s *Session) record(question, answer string) {
	s.mem.AddUser(question)
	s.mem.AddAssistant(answer)
}

// Ready reports whether a video is loaded and queries can be answered.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retr != nil
}

func (s *Session) VideoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcript == nil {
		return ""
	}
	return s.transcript.VideoID
}

func (s *Session) VideoTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transcript == nil {
		return ""
	}
	return s.transcript.Title
}

// Summary returns the short transcript summary computed at load time.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// History returns a copy of the retained conversation, oldest first.
func (s *Session) History() []domain.Turn {
	return s.mem.Turns()
}

// ClearHistory resets the conversation but keeps the loaded video.
func (s *Session) ClearHistory() {
	s.mem.Clear()
}
