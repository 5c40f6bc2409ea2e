package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage keeps the ledger in a single JSON document on disk. Saves are
// atomic: the document is written to a temp file in the same directory and
// renamed over the previous version, so a crash mid-write never leaves a
// half-written ledger behind.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Load(ctx context.Context) (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return emptyLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file %s: %w", s.path, err)
	}

	l := emptyLedger()
	if err := json.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("failed to decode ledger file %s: %w", s.path, err)
	}
	if l.Invoices == nil {
		l.Invoices = []Invoice{}
	}
	if l.Counter == 0 {
		l.Counter = initialCounter
	}
	return l, nil
}

func (s *FileStorage) Save(ctx context.Context, l *Ledger) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
