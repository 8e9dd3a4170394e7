package gameloop

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SessionDocument is the durable form of a session: model choice,
// credential, feature flags, bounded conversation history, and the
// notes with their verification status.
type SessionDocument struct {
	Model           string        `json:"model"`
	APIKey          string        `json:"api_key"`
	ThinkingEnabled bool          `json:"thinking_enabled"`
	SearchEnabled   bool          `json:"search_enabled"`
	History         []ChatMessage `json:"conversation_history"`
	Notes           []Note        `json:"notes"`
	NextNoteID      int           `json:"next_note_id"`
}

// Store reads and writes the session document. A nil Store (no path
// configured) disables persistence.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a Store for the given path, or nil when the path is
// empty.
func NewStore(path string, logger *zap.Logger) *Store {
	if path == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Save writes the document. The write goes through a temp file and
// rename so a crash never leaves a torn document behind.
func (s *Store) Save(doc *SessionDocument) error {
	if s == nil {
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the document best-effort: a missing or malformed file
// yields nil, never an error the caller must handle.
func (s *Store) Load() *SessionDocument {
	if s == nil {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("session file unreadable, starting fresh",
				zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}
	var doc SessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("session file malformed, starting fresh",
			zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return &doc
}
