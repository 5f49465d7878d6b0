package orchestrator

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"econ-curator/internal/domain"
)

// State is the durable snapshot of the queue and its bounded history. It
// is rewritten wholesale on every mutation — no partial or append writes —
// so a crash mid-write leaves at worst an unparsable file, which the
// loader treats as empty.
type State struct {
	Queue   []*domain.Job `json:"queue"`
	History []*domain.Job `json:"history"`
}

// QueueStore persists orchestrator state.
type QueueStore interface {
	Load() (*State, error)
	Save(state *State) error
}

// FileQueueStore persists state as a single JSON file at a fixed path.
type FileQueueStore struct {
	path   string
	logger *slog.Logger
}

func NewFileQueueStore(path string, logger *slog.Logger) *FileQueueStore {
	return &FileQueueStore{path: path, logger: logger}
}

// Load reads the persisted state. A missing or unparsable file is never a
// startup-abort condition: it loads as an empty queue with a warning.
func (s *FileQueueStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("queue file unreadable, starting empty", "path", s.path, "error", err)
		}
		return &State{}, nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("queue file unparsable, starting empty", "path", s.path, "error", err)
		return &State{}, nil
	}
	return &state, nil
}

// Save rewrites the state file wholesale.
func (s *FileQueueStore) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return domain.ErrPersistence("marshal queue state: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return domain.ErrPersistence("create queue dir: %v", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return domain.ErrPersistence("write queue file %s: %v", s.path, err)
	}
	return nil
}

var _ QueueStore = (*FileQueueStore)(nil)
