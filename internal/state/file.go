package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

const defaultRecordKey = "monitor"

// record is the on-disk layout, shared with the object store
type record struct {
	Seen []string `json:"seen"`
}

// FileStore keeps each record in its own JSON file. The default record lives
// at Path; any other key gets a sibling file named after it.
type FileStore struct {
	Path string
}

// NewFileStore creates a store rooted at path
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PathFor returns the file backing key
func (s *FileStore) PathFor(key string) string {
	if key == "" || key == defaultRecordKey {
		return s.Path
	}
	ext := filepath.Ext(s.Path)
	base := strings.TrimSuffix(s.Path, ext)
	if ext == "" {
		ext = ".json"
	}
	return base + "." + unsafeKeyChars.ReplaceAllString(key, "_") + ext
}

// Load reads the record for key. A missing file is an empty set.
func (s *FileStore) Load(_ context.Context, key string) (models.SeenSet, error) {
	data, err := os.ReadFile(s.PathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return models.NewSeenSet(), nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "file", Key: key, Err: err}
	}
	set, err := decodeRecord(data)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "file", Key: key, Err: err}
	}
	return set, nil
}

// Save writes the record for key through a temp file and rename, so a crash
// never leaves a truncated record behind.
func (s *FileStore) Save(_ context.Context, key string, set models.SeenSet) error {
	path := s.PathFor(key)
	data, err := encodeRecord(set)
	if err != nil {
		return &PersistenceError{Op: "save", Backend: "file", Key: key, Err: err}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &PersistenceError{Op: "save", Backend: "file", Key: key, Err: err}
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &PersistenceError{Op: "save", Backend: "file", Key: key, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &PersistenceError{Op: "save", Backend: "file", Key: key, Err: err}
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error { return nil }

func encodeRecord(set models.SeenSet) ([]byte, error) {
	return json.MarshalIndent(record{Seen: set.Keys()}, "", "  ")
}

func decodeRecord(data []byte) (models.SeenSet, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return models.NewSeenSet(r.Seen...), nil
}
