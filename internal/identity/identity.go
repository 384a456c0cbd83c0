// Package identity owns the stable per-installation client identifier sent
// with every authorization request.
//
// The identifier is generated once, persisted in its own file and never
// rotated. It lives outside the credential store so that logging out does not
// make the remote service see a new device.
package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FileName is the name of the file holding the identifier.
const FileName = "client_id"

// Store produces and persists the client identifier.
type Store struct {
	mu     sync.Mutex
	path   string
	cached string
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore returns a store that keeps the identifier under dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		path:   filepath.Join(dir, FileName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the identifier is persisted in.
func (s *Store) Path() string {
	return s.path
}

// GetClientID returns the persisted identifier, generating and persisting a
// new one on first use. Once an identifier exists every call returns it.
func (s *Store) GetClientID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	// #nosec G304 -- path is built from the configured storage directory
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			s.cached = id
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to read client identifier: %w", err)
	}

	id := uuid.NewString()
	if err := s.write(id); err != nil {
		return "", err
	}

	s.logger.Info("Generated new client identifier", "path", s.path)
	s.cached = id
	return id, nil
}

// write persists id atomically so a crash never leaves a half-written file.
func (s *Store) write(id string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist client identifier: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(id + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist client identifier: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist client identifier: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist client identifier: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to persist client identifier: %w", err)
	}
	return nil
}
