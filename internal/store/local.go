package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keyLength   = 32
	nonceLength = 24
)

// sealedMagic prefixes sealed files so an unsealed copy can still be read
// after a key is added.
var sealedMagic = []byte("HSSEAL1\n")

var (
	// ErrInvalidKeyLength indicates the key file does not hold 32 bytes.
	ErrInvalidKeyLength = errors.New("store: sealing key must be 32 bytes")
	// ErrSealedNoKey indicates a sealed file was found but no key is configured.
	ErrSealedNoKey = errors.New("store: local copy is sealed but no key is configured")
	// ErrUnseal indicates the sealed payload could not be opened with the key.
	ErrUnseal = errors.New("store: cannot open sealed local copy")
)

// LocalStore persists the config document as a file in the state directory.
// When a key is set the file is sealed with NaCl secretbox.
type LocalStore struct {
	mu   sync.Mutex
	path string
	key  *[keyLength]byte
}

// NewLocalStore returns a store that writes <dir>/HomeStatsConfig_Local.json.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{path: filepath.Join(dir, LocalKey+".json")}
}

// WithKey enables sealing at rest.
func (s *LocalStore) WithKey(key []byte) (*LocalStore, error) {
	if len(key) != keyLength {
		return nil, ErrInvalidKeyLength
	}
	var k [keyLength]byte
	copy(k[:], key)
	s.key = &k
	return s, nil
}

// ReadKeyFile loads a hex-encoded sealing key.
func ReadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	if len(key) != keyLength {
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}

// GenerateKeyFile writes a new random hex key to path with 0600 permissions.
func GenerateKeyFile(path string) error {
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	return os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600)
}

// Path returns the file backing the store.
func (s *LocalStore) Path() string {
	return s.path
}

// Load returns the stored document, or nil if there is none.
func (s *LocalStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read local config: %w", err)
	}

	if !isSealed(data) {
		return data, nil
	}
	if s.key == nil {
		return nil, ErrSealedNoKey
	}
	return s.open(data[len(sealedMagic):])
}

// Save writes data atomically, sealing it when a key is set.
func (s *LocalStore) Save(data []byte) error {
	payload := data
	if s.key != nil {
		sealed, err := s.seal(data)
		if err != nil {
			return err
		}
		payload = sealed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o600); err != nil {
		return fmt.Errorf("write temporary local config: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace local config: %w", err)
	}
	return nil
}

func (s *LocalStore) seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := append([]byte{}, sealedMagic...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, s.key), nil
}

func (s *LocalStore) open(payload []byte) ([]byte, error) {
	if len(payload) < nonceLength+secretbox.Overhead {
		return nil, ErrUnseal
	}
	var nonce [nonceLength]byte
	copy(nonce[:], payload[:nonceLength])
	plaintext, ok := secretbox.Open(nil, payload[nonceLength:], &nonce, s.key)
	if !ok {
		return nil, ErrUnseal
	}
	return plaintext, nil
}

func isSealed(data []byte) bool {
	return len(data) >= len(sealedMagic) && string(data[:len(sealedMagic)]) == string(sealedMagic)
}
