package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// SessionStore persists the authenticated X.com session snapshot
type SessionStore struct {
	path string
}

// NewSessionStore creates a session store at the given path
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the session file location
func (s *SessionStore) Path() string {
	return s.path
}

// Exists reports whether a session snapshot has been saved
func (s *SessionStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save overwrites the snapshot on disk
// TODO: Encrypt session state at rest
func (s *SessionStore) Save(state *types.SessionState) error {
	if state == nil {
		return errors.New("refusing to save empty session state")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load retrieves the snapshot, returning types.ErrNoSession when none was saved
func (s *SessionStore) Load() (*types.SessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNoSession
		}
		return nil, err
	}

	var state types.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session state %s: %w", s.path, err)
	}

	return &state, nil
}

// Clear removes the saved snapshot
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
