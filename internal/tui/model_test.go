package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	title   string
	summary string
	ready   bool
	answer  string
}

func (s *stubSession) LoadVideo(ctx context.Context, rawURL string) error { return nil }
func (s *stubSession) Ask(ctx context.Context, question string) string { return s.answer }
func (s *stubSession) Ready() bool { return s.ready }
func (s *stubSession) VideoTitle() string { return s.title }
func (s *stubSession) Summary() string { return s.summary }
func (s *stubSession) ClearHistory() {}

func TestDispatch_QuestionAppearsOnceInChat(t *testing.T) {
	m := New(&stubSession{title: "Video A", ready: true, answer: "an answer"})

	next, cmd := m.dispatch("what are cats?")
	require.NotNil(t, cmd)
	model := next.(Model)
	assert.True(t, model.busy)

	updated, _ := model.Update(cmd())
	final := updated.(Model)
	assert.False(t, final.busy)

	chat := strings.Join(final.lines, "\n")
	assert.Equal(t, 1, strings.Count(chat, "what are cats?"))
	assert.Contains(t, chat, "an answer")
}

func TestDispatch_ClearResetsChat(t *testing.T) {
	m := New(&stubSession{title: "Video A", ready: true, answer: "hi"})
	next, cmd := m.dispatch("a question")
	model := next.(Model)
	updated, _ := model.Update(cmd())
	model = updated.(Model)
	require.NotEmpty(t, model.lines)

	next, _ = model.dispatch("/clear")
	model = next.(Model)
	assert.Empty(t, model.lines)
	assert.Equal(t, "History cleared.", model.status)
}
