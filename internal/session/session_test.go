package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelly/internal/chunker"
	"yelly/internal/domain"
	"yelly/internal/embedding/tfidf"
	"yelly/internal/retriever"
	"yelly/internal/transcript"
	"yelly/internal/vectorindex"
	"yelly/internal/vectorindex/flat"
)

type fakeFetcher struct {
	infos    map[string]transcript.VideoInfo
	captions map[string]string
	infoErr  error
	trErr    error
}

func (f *fakeFetcher) VideoInfo(ctx context.Context, rawURL string) (transcript.VideoInfo, error) {
	if f.infoErr != nil {
		return transcript.VideoInfo{}, f.infoErr
	}
	info, ok := f.infos[rawURL]
	if !ok {
		return transcript.VideoInfo{}, transcript.ErrBadURL
	}
	return info, nil
}

func (f *fakeFetcher) Transcript(ctx context.Context, videoID, lang string) (string, error) {
	if f.trErr != nil {
		return "", f.trErr
	}
	captions, ok := f.captions[videoID]
	if !ok {
		return "", transcript.ErrNoTranscript
	}
	return captions, nil
}

// hashEmbedder maps words onto a small fixed vector space. Always
// deterministic, never errors unless told to.
type hashEmbedder struct {
	err error
}

func (e *hashEmbedder) Name() string   { return "hash" }
func (e *hashEmbedder) Dimension() int { return 8 }

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 8)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			var h int
			for _, r := range w {
				h = (h*31 + int(r)) % 8
			}
			vec[h]++
		}
		out[i] = vec
	}
	return out, nil
}

func (e *hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (c *fakeCompleter) Complete(ctx context.Context, system string, history []domain.Turn, user string) (string, error) {
	c.calls++
	return c.answer, c.err
}

func newTestOptions(t *testing.T, fetcher *fakeFetcher, emb domain.Embedder, completer *fakeCompleter) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		Fetcher:   fetcher,
		Store:     transcript.NewStore(filepath.Join(dir, "transcripts.json")),
		Chunker:   chunker.NewCharacterChunker(40, 10),
		Embedder:  emb,
		Completer: completer,
		NewIndex:  func() vectorindex.Index { return flat.New() },
		IndexPath: filepath.Join(dir, "index"),
		Language:  "en",
		Retrieval: retriever.Options{TopK: 2, FetchK: 4, Lambda: 0.8},
		MaxTurns:  20,
	}
}

func defaultFetcher() *fakeFetcher {
	return &fakeFetcher{
		infos: map[string]transcript.VideoInfo{
			"https://youtu.be/aaa": {VideoID: "aaa", Title: "Video A"},
			"https://youtu.be/bbb": {VideoID: "bbb", Title: "Video B"},
		},
		captions: map[string]string{
			"aaa": "Cats are mammals. Dogs are mammals too. The sky is blue above us all.",
			"bbb": "Completely different captions about cooking pasta at home every evening.",
		},
	}
}

func TestLoadVideo_BuildsSessionState(t *testing.T) {
	completer := &fakeCompleter{answer: "Cats and dogs are mammals."}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))

	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))
	assert.True(t, s.Ready())
	assert.Equal(t, "aaa", s.VideoID())
	assert.Equal(t, "Video A", s.VideoTitle())
	assert.Empty(t, s.History())
}

func TestAsk_RecordsQuestionAndAnswer(t *testing.T) {
	completer := &fakeCompleter{answer: "They purr."}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	answer := s.Ask(context.Background(), "What do cats do?")
	assert.Equal(t, "They purr.", answer)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "What do cats do?"}, history[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "They purr."}, history[1])
}

func TestAsk_GenerationFailureYieldsFallback(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	answer := s.Ask(context.Background(), "What do cats do?")
	assert.Equal(t, FallbackAnswer, answer)

	// The question and the fallback are both retained; a fabricated
	// answer never is.
	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "What do cats do?", history[0].Content)
	assert.Equal(t, FallbackAnswer, history[1].Content)
}

func TestAsk_EmptyAnswerYieldsFallback(t *testing.T) {
	completer := &fakeCompleter{answer: "   "}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	assert.Equal(t, FallbackAnswer, s.Ask(context.Background(), "anything?"))
}

func TestAsk_BeforeVideoLoaded(t *testing.T) {
	completer := &fakeCompleter{answer: "unused"}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))

	assert.Equal(t, NoVideoAnswer, s.Ask(context.Background(), "hello?"))
	assert.Equal(t, 0, completer.calls)
}

func TestLoadVideo_FailurePreservesPriorState(t *testing.T) {
	fetcher := defaultFetcher()
	completer := &fakeCompleter{answer: "fine"}
	s := New(newTestOptions(t, fetcher, &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))
	s.Ask(context.Background(), "first question")

	fetcher.trErr = errors.New("network down")
	err := s.LoadVideo(context.Background(), "https://youtu.be/bbb")
	require.Error(t, err)

	// Still on video A with its conversation intact.
	assert.Equal(t, "aaa", s.VideoID())
	assert.True(t, s.Ready())
	assert.Len(t, s.History(), 2)
}

func TestLoadVideo_EmbeddingFailureLeavesSessionNotReady(t *testing.T) {
	emb := &hashEmbedder{err: errors.New("quota exceeded")}
	s := New(newTestOptions(t, defaultFetcher(), emb, &fakeCompleter{}))

	err := s.LoadVideo(context.Background(), "https://youtu.be/aaa")
	require.Error(t, err)
	assert.False(t, s.Ready())
	assert.Equal(t, "", s.VideoID())
}

func TestLoadVideo_NewVideoClearsHistory(t *testing.T) {
	completer := &fakeCompleter{answer: "sure"}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))
	s.Ask(context.Background(), "about video A")
	require.Len(t, s.History(), 2)

	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/bbb"))
	assert.Equal(t, "bbb", s.VideoID())
	assert.Empty(t, s.History())
}

func TestLoadVideo_SameVideoKeepsHistory(t *testing.T) {
	completer := &fakeCompleter{answer: "sure"}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))
	s.Ask(context.Background(), "a question")

	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))
	assert.Len(t, s.History(), 2)
}

func TestResume_RestoresPersistedVideo(t *testing.T) {
	completer := &fakeCompleter{answer: "ok"}
	opts := newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer)

	first := New(opts)
	require.NoError(t, first.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	second := New(opts)
	require.NoError(t, second.Resume(context.Background()))
	assert.True(t, second.Ready())
	assert.Equal(t, "aaa", second.VideoID())
	assert.Empty(t, second.History())

	answer := second.Ask(context.Background(), "What are cats?")
	assert.Equal(t, "ok", answer)
}

func TestResume_NothingPersisted(t *testing.T) {
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, &fakeCompleter{}))
	assert.Error(t, s.Resume(context.Background()))
	assert.False(t, s.Ready())
}

// failingSaveIndex wraps an index and fails Save on demand, simulating
// an aborted persist partway through a video switch.
type failingSaveIndex struct {
	vectorindex.Index
	fail *bool
}

func (f *failingSaveIndex) Save(path string) error {
	if *f.fail {
		return errors.New("disk full")
	}
	return f.Index.Save(path)
}

func TestResume_AbortedIndexSaveKeepsPreviousVideo(t *testing.T) {
	completer := &fakeCompleter{answer: "ok"}
	opts := newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer)
	fail := false
	opts.NewIndex = func() vectorindex.Index {
		return &failingSaveIndex{Index: flat.New(), fail: &fail}
	}

	first := New(opts)
	require.NoError(t, first.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	fail = true
	require.Error(t, first.LoadVideo(context.Background(), "https://youtu.be/bbb"))
	fail = false

	// On disk the index and the transcript still describe video A
	// together, so a restart resumes it cleanly.
	second := New(opts)
	require.NoError(t, second.Resume(context.Background()))
	assert.Equal(t, "aaa", second.VideoID())
	assert.Equal(t, "ok", second.Ask(context.Background(), "What are cats?"))
}

func TestResume_MismatchedTranscriptRejected(t *testing.T) {
	opts := newTestOptions(t, defaultFetcher(), &hashEmbedder{}, &fakeCompleter{answer: "ok"})

	first := New(opts)
	require.NoError(t, first.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	// Overwrite the transcript document with one for another video,
	// leaving video A's index behind.
	require.NoError(t, opts.Store.Save(domain.VideoTranscript{
		VideoID:  "bbb",
		Title:    "Video B",
		Captions: "tiny captions.",
	}))

	second := New(opts)
	require.Error(t, second.Resume(context.Background()))
	assert.False(t, second.Ready())
}

func TestResume_RebuildsTFIDFVocabulary(t *testing.T) {
	completer := &fakeCompleter{answer: "Cats are mammals."}
	opts := newTestOptions(t, defaultFetcher(), tfidf.NewEmbedder(), completer)

	first := New(opts)
	require.NoError(t, first.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	// A fresh embedder has no vocabulary until Resume re-feeds it the
	// persisted transcript's chunks.
	opts.Embedder = tfidf.NewEmbedder()
	second := New(opts)
	require.NoError(t, second.Resume(context.Background()))

	answer := second.Ask(context.Background(), "What are cats?")
	assert.Equal(t, "Cats are mammals.", answer)
	assert.Equal(t, 1, completer.calls)
}

func TestAsk_BlankQuestionNotRecorded(t *testing.T) {
	completer := &fakeCompleter{answer: "unused"}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))

	assert.Equal(t, EmptyQuestionAnswer, s.Ask(context.Background(), "   "))
	assert.Empty(t, s.History())
	assert.Equal(t, 0, completer.calls)
}

func TestClearHistory_KeepsVideo(t *testing.T) {
	completer := &fakeCompleter{answer: "yep"}
	s := New(newTestOptions(t, defaultFetcher(), &hashEmbedder{}, completer))
	require.NoError(t, s.LoadVideo(context.Background(), "https://youtu.be/aaa"))
	s.Ask(context.Background(), "q")

	s.ClearHistory()
	assert.Empty(t, s.History())
	assert.True(t, s.Ready())
	assert.Equal(t, "aaa", s.VideoID())
}
