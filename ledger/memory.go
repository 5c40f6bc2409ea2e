package ledger

import (
	"context"
	"encoding/json"
)

// MemoryStorage holds the ledger in memory. Used in tests as a drop-in
// substitute for the file-backed storage.
type MemoryStorage struct {
	data []byte
	// LoadErr and SaveErr, when set, are returned by the respective
	// operation. Lets tests exercise storage failure paths.
	LoadErr error
	SaveErr error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load(ctx context.Context) (*Ledger, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if s.data == nil {
		return emptyLedger(), nil
	}
	l := emptyLedger()
	if err := json.Unmarshal(s.data, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *MemoryStorage) Save(ctx context.Context, l *Ledger) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}
