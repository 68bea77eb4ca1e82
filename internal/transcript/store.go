package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"

	"yelly/internal/domain"
)

// Store persists the fetched transcript as a JSON document
// {video_id, video_name, captions} at a well-known path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = filepath.Join("data", "transcripts.json")
	}
	return &Store{path: path}
}

func (s *Store) Save(t domain.VideoTranscript) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(t)
}

func (s *Store) Load() (domain.VideoTranscript, error) {
	var t domain.VideoTranscript
	f, err := os.Open(s.path)
	if err != nil {
		return t, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&t)
	return t, err
}
