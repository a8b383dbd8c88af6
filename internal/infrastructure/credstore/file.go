package credstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/brickworks/console/internal/core/domain"
)

const (
	fileMagic = "BWC1"
	saltSize  = 16
	keySize   = chacha20poly1305.KeySize

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// ErrNoPassphrase is returned by NewFileStore when the passphrase is empty.
var ErrNoPassphrase = errors.New("credential file passphrase is empty")

// FileStore keeps the credential on disk so it survives restarts. The token
// is sealed with XChaCha20-Poly1305 under an argon2id key; a fresh salt and
// nonce are written on every save.
//
// File layout: magic | salt | nonce | ciphertext.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte
}

func NewFileStore(path, passphrase string) (*FileStore, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	return &FileStore{path: path, passphrase: []byte(passphrase)}, nil
}

// Load returns domain.ErrCredentialNotFound when the file is missing. A file
// that cannot be opened with the passphrase is reported as corrupt.
func (s *FileStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.ErrCredentialNotFound
		}
		return "", fmt.Errorf("read credential file: %w", err)
	}

	plain, err := s.open(data)
	if err != nil {
		return "", fmt.Errorf("open credential file: %w", err)
	}
	return string(plain), nil
}

func (s *FileStore) Save(_ context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := s.seal([]byte(raw))
	if err != nil {
		return fmt.Errorf("seal credential: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	// Write-then-rename so a crash never leaves a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (s *FileStore) key(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, keySize)
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(fileMagic)+saltSize+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, fileMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, []byte(fileMagic)), nil
}

func (s *FileStore) open(data []byte) ([]byte, error) {
	header := len(fileMagic) + saltSize + chacha20poly1305.NonceSizeX
	if len(data) < header || string(data[:len(fileMagic)]) != fileMagic {
		return nil, errors.New("unrecognised credential file")
	}
	salt := data[len(fileMagic) : len(fileMagic)+saltSize]
	nonce := data[len(fileMagic)+saltSize : header]

	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, data[header:], []byte(fileMagic))
}
