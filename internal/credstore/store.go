package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Logical keys held by the store.
const (
	KeyAuthToken = "auth_token"
	KeyServerURL = "server_url"
	KeyUserName  = "user_name"
)

const (
	// FileName is the credential document inside the storage directory.
	FileName = "credentials.json"

	// KeyFileName is the default master key file inside the storage directory.
	KeyFileName = "master.key"

	// TokenType is reported on tokens handed out through TokenSource.
	TokenType = "X-Plex-Token"

	documentVersion = 1
)

// ErrNoCredential is returned by the TokenSource when no token is stored.
var ErrNoCredential = errors.New("no credential stored")

// Config configures the credential store.
type Config struct {
	// Dir is the storage directory. Required.
	Dir string

	// KeyFile is the master key path. Defaults to Dir/master.key.
	KeyFile string

	// DisableEncryption forces plaintext persistence.
	DisableEncryption bool
}

// Store is the encrypted-at-rest key/value store for credentials.
//
// SECURITY: values are never logged. Only events and key names are.
type Store struct {
	mu     sync.RWMutex
	path   string
	sealer sealer // nil in plaintext mode
	values map[string]string
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

// document is the on-disk layout. Payload holds the sealed JSON of the
// values when Encrypted is set; Values holds them otherwise.
type document struct {
	Version   int               `json:"version"`
	Encrypted bool              `json:"encrypted"`
	Payload   []byte            `json:"payload,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
}

// Open opens the store in cfg.Dir, loading any persisted credentials.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("credential store directory is required")
	}

	s := &Store{
		path:   filepath.Join(cfg.Dir, FileName),
		values: map[string]string{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	keyFile := cfg.KeyFile
	if keyFile == "" {
		keyFile = filepath.Join(cfg.Dir, KeyFileName)
	}

	if cfg.DisableEncryption {
		s.logger.Warn("SECURITY_AUDIT: Credential encryption disabled by configuration",
			"event", "encryption_disabled",
			"path", s.path,
		)
	} else {
		sl, err := newKeyFileSealer(keyFile)
		if err != nil {
			s.logger.Warn("SECURITY_AUDIT: Credential encryption unavailable, falling back to plaintext storage",
				"event", "encryption_unavailable",
				"path", s.path,
				"key_file", keyFile,
				"error", err.Error(),
			)
		} else {
			s.sealer = sl
		}
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the credential document path.
func (s *Store) Path() string {
	return s.path
}

// Encrypted reports whether values are sealed at rest.
func (s *Store) Encrypted() bool {
	return s.sealer != nil
}

// SaveToken stores the access token, replacing any previous one.
func (s *Store) SaveToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("refusing to store an empty token")
	}
	if err := s.set(KeyAuthToken, token); err != nil {
		return err
	}
	s.logger.Info("SECURITY_AUDIT: Auth token stored",
		"event", "token_stored",
		"encrypted", s.Encrypted(),
	)
	return nil
}

// Token returns the stored access token.
func (s *Store) Token() (string, bool) {
	return s.get(KeyAuthToken)
}

// HasToken reports whether a non-blank token is stored.
func (s *Store) HasToken() bool {
	token, ok := s.Token()
	return ok && strings.TrimSpace(token) != ""
}

// ClearToken removes the access token and keeps the other keys.
func (s *Store) ClearToken() error {
	if err := s.remove(KeyAuthToken); err != nil {
		return err
	}
	s.logger.Info("SECURITY_AUDIT: Auth token deleted", "event", "token_deleted")
	return nil
}

// SaveServerURL stores the selected server base URL.
func (s *Store) SaveServerURL(serverURL string) error {
	if err := s.set(KeyServerURL, serverURL); err != nil {
		return err
	}
	s.logger.Debug("Server URL saved", "server_url", serverURL)
	return nil
}

// ServerURL returns the stored server base URL.
func (s *Store) ServerURL() (string, bool) {
	return s.get(KeyServerURL)
}

// SaveUserName stores the account name.
func (s *Store) SaveUserName(name string) error {
	return s.set(KeyUserName, name)
}

// UserName returns the stored account name.
func (s *Store) UserName() (string, bool) {
	return s.get(KeyUserName)
}

// Clear removes every stored key at once.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("SECURITY_AUDIT: Credential clearing failed",
			"event", "credentials_clear_failed",
			"error", err.Error(),
		)
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	cleared := len(s.values)
	s.values = map[string]string{}

	s.logger.Info("SECURITY_AUDIT: All credentials cleared",
		"event", "credentials_cleared",
		"keys_cleared", cleared,
	)
	return nil
}

// Reload re-reads the document from disk, replacing the in-memory view.
// A document that cannot be decoded or decrypted is treated as empty.
func (s *Store) Reload() error {
	values, err := s.readDocument()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// TokenSource exposes the stored token to HTTP layers that pull credentials
// per request. Each call reads the current value, so a Clear or a new login
// is visible immediately.
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store *Store
}

// Token implements oauth2.TokenSource.
func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	token, ok := ts.store.Token()
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: token, TokenType: TokenType}, nil
}

func (s *Store) get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[key] = value

	if err := s.writeDocumentLocked(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *Store) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}

	next := make(map[string]string, len(s.values))
	for k, v := range s.values {
		if k != key {
			next[k] = v
		}
	}

	if err := s.writeDocumentLocked(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// readDocument loads and decodes the document from disk.
func (s *Store) readDocument() (map[string]string, error) {
	// #nosec G304 -- path is built from the configured storage directory
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("Credential document is corrupt, ignoring it", "path", s.path, "error", err.Error())
		return map[string]string{}, nil
	}

	if !doc.Encrypted {
		if doc.Values == nil {
			return map[string]string{}, nil
		}
		return doc.Values, nil
	}

	if s.sealer == nil {
		s.logger.Warn("SECURITY_AUDIT: Stored credentials are encrypted but encryption is unavailable",
			"event", "credentials_unreadable",
			"path", s.path,
		)
		return map[string]string{}, nil
	}

	plaintext, err := s.sealer.Open(doc.Payload)
	if err != nil {
		s.logger.Warn("SECURITY_AUDIT: Stored credentials could not be decrypted",
			"event", "credentials_unreadable",
			"path", s.path,
			"error", err.Error(),
		)
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		s.logger.Warn("Decrypted credentials are corrupt, ignoring them", "path", s.path, "error", err.Error())
		return map[string]string{}, nil
	}
	return values, nil
}

// writeDocumentLocked persists values atomically. Caller holds s.mu.
func (s *Store) writeDocumentLocked(values map[string]string) error {
	doc := document{Version: documentVersion}

	if s.sealer != nil {
		plaintext, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("failed to encode credentials: %w", err)
		}
		payload, err := s.sealer.Seal(plaintext)
		if err != nil {
			return fmt.Errorf("failed to encrypt credentials: %w", err)
		}
		doc.Encrypted = true
		doc.Payload = payload
	} else {
		doc.Values = values
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}
