// Package jsonstore provides a JSON file-based implementation of SessionStore.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// storeData represents the JSON file structure.
type storeData struct {
	Session *domain.Session `json:"session,omitempty"`
	Meta    meta            `json:"meta"`
}

// meta contains store metadata.
type meta struct {
	Version int `json:"version"`
}

const storeVersion = 1

// Sealer encrypts the file contents at rest.
type Sealer interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Store implements domain.SessionStore using a JSON file.
// The file holds tokens, so it is written with 0600 permissions.
type Store struct {
	sealer   Sealer
	path     string
	lockPath string
}

// New creates a new Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// NewSealed creates a Store whose file is encrypted with sealer.
// A file that cannot be decrypted (for example after the key was
// replaced) loads as no session.
func NewSealed(path string, sealer Sealer) *Store {
	s := New(path)
	s.sealer = sealer
	return s
}

// Ensure Store implements SessionStore.
var _ domain.SessionStore = (*Store)(nil)

// Load returns the saved session, or nil if none.
func (s *Store) Load() (*domain.Session, error) {
	var session *domain.Session
	err := s.withLock(syscall.LOCK_SH, func() error {
		data, err := s.read()
		if err != nil {
			return err
		}
		session = data.Session
		return nil
	})
	return session, err
}

// Save persists the session. A nil session removes the file.
func (s *Store) Save(session *domain.Session) error {
	return s.withLock(syscall.LOCK_EX, func() error {
		if session == nil {
			if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove session file: %w", err)
			}
			return nil
		}
		return s.write(&storeData{Session: session, Meta: meta{Version: storeVersion}})
	})
}

func (s *Store) withLock(lockType int, fn func() error) error {
	lock, err := s.acquireLock(lockType)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)
	return fn()
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*storeData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &storeData{}, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	if s.sealer != nil {
		plain, err := s.sealer.Decrypt(content)
		if err != nil {
			return &storeData{}, nil
		}
		content = plain
	}

	var data storeData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &data, nil
}

func (s *Store) write(data *storeData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if s.sealer != nil {
		content, err = s.sealer.Encrypt(content)
		if err != nil {
			return fmt.Errorf("encrypt session: %w", err)
		}
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
