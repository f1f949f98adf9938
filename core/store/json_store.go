package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"ticket-desk/core/utils"
)

type ticketsDocument struct {
	NextID  int64    `json:"next_id"`
	Tickets []Ticket `json:"tickets"`
}

// JSONFileStore keeps the whole collection in one JSON document. Writes go
// through a temp file and rename so a crash never leaves a torn document.
type JSONFileStore struct {
	mu     sync.Mutex
	path   string
	logger *utils.Logger
}

func NewJSONFileStore(path string, logger *utils.Logger) *JSONFileStore {
	return &JSONFileStore{path: path, logger: logger}
}

// Load returns an empty snapshot when the document is missing or malformed.
// A bare JSON array of tickets is accepted as well as the envelope.
func (s *JSONFileStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{NextID: 1}, nil
		}
		if s.logger != nil {
			s.logger.Errorf("tickets store: read %s: %v", s.path, err)
		}
		return Snapshot{NextID: 1}, nil
	}
	snap, err := decodeTicketsDocument(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("tickets store: malformed %s, starting empty: %v", s.path, err)
		}
		return Snapshot{NextID: 1}, nil
	}
	return snap.normalize(), nil
}

func decodeTicketsDocument(raw []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Snapshot{}, nil
	}
	if trimmed[0] == '[' {
		var items []Ticket
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Tickets: items}, nil
	}
	var doc ticketsDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{NextID: doc.NextID, Tickets: doc.Tickets}, nil
}

func (s *JSONFileStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap = snap.normalize()
	doc := ticketsDocument{NextID: snap.NextID, Tickets: snap.Tickets}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("tickets store: encode: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("tickets store: mkdir %s: %w", dir, err)
		}
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(append(body, '\n'))); err != nil {
		return fmt.Errorf("tickets store: write %s: %w", s.path, err)
	}
	return nil
}

func (s *JSONFileStore) Close() error {
	return nil
}
