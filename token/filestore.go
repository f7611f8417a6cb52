package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore keeps tokens in a single JSON file, one record per credential
// key. A missing file is treated as an empty store.
type FileStore struct {
	path string
}

// NewFileStore creates a store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (s *FileStore) Load(key string) (Token, bool, error) {
	records, err := s.read()
	if err != nil {
		return Token{}, false, err
	}
	tok, ok := records[key]
	return tok, ok, nil
}

// Save implements Store.
func (s *FileStore) Save(key string, tok Token) error {
	records, err := s.read()
	if err != nil {
		return err
	}
	records[key] = tok

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token file: %w", err)
	}
	// Tokens are credentials; keep the file owner-only.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	records := map[string]Token{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", s.path, err)
	}
	return records, nil
}
