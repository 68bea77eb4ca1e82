package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yelly/internal/domain"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "transcripts.json")
	s := NewStore(path)

	want := domain.VideoTranscript{
		VideoID:  "abc123",
		Title:    "Go in 100 Seconds <official>",
		Captions: "Hello everyone, today we're learning Go.",
	}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SaveUsesExpectedFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.json")
	s := NewStore(path)
	require.NoError(t, s.Save(domain.VideoTranscript{VideoID: "id", Title: "name", Captions: "text"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"video_id"`)
	assert.Contains(t, string(data), `"video_name"`)
	assert.Contains(t, string(data), `"captions"`)
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	_, err := s.Load()
	assert.Error(t, err)
}
