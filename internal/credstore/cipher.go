package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/hkdf"
	"gopkg.in/retry.v1"
)

const masterKeySize = 32

// A key file shorter than masterKeySize may still be being written by the
// process that created it. It is re-read on this schedule before it is
// rejected.
var keyReadStrategy retry.Strategy = retry.LimitCount(10, retry.Regular{
	Delay: 20 * time.Millisecond,
	Min:   10,
})

var (
	hkdfInfo       = []byte("replex credential store v1")
	associatedData = []byte("replex/credentials")
)

// errCiphertextTooShort is returned when a sealed payload cannot even hold a nonce.
var errCiphertextTooShort = errors.New("ciphertext too short")

// sealer encrypts and decrypts the credential document.
type sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// aeadSealer seals with an AEAD, prefixing each ciphertext with its nonce.
type aeadSealer struct {
	aead cipher.AEAD
}

// newKeyFileSealer builds an AES-256-GCM sealer from the master key at path,
// creating the key on first use.
func newKeyFileSealer(path string) (*aeadSealer, error) {
	master, err := loadOrCreateMasterKey(path)
	if err != nil {
		return nil, err
	}

	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &aeadSealer{aead: aead}, nil
}

// Seal implements sealer.
func (s *aeadSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, associatedData), nil
}

// Open implements sealer.
func (s *aeadSealer) Open(ciphertext []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil, errCiphertextTooShort
	}
	return s.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], associatedData)
}

// loadOrCreateMasterKey reads the master key, generating it when absent.
func loadOrCreateMasterKey(path string) ([]byte, error) {
	key, err := readMasterKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		// Another process created it first; use theirs.
		return loadOrCreateMasterKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write master key: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write master key: %w", err)
	}

	return key, nil
}

// readMasterKey reads the key at path. A short key is re-read until it is
// complete or keyReadStrategy gives up.
func readMasterKey(path string) ([]byte, error) {
	var key []byte
	for a := retry.Start(keyReadStrategy, nil); a.Next(); {
		// #nosec G304 -- path comes from configuration, not request input
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read master key: %w", err)
		}
		key = data
		if len(key) >= masterKeySize {
			break
		}
	}
	if len(key) != masterKeySize {
		return nil, fmt.Errorf("master key %s has invalid length %d", path, len(key))
	}
	return key, nil
}
