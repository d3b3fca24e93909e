package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/lborres/medassist/core"
	"github.com/lborres/medassist/pkg/crypto"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Config for a file-backed TokenStore.
type Config struct {
	// Path of the state file. Empty means DefaultPath().
	Path string
	// Sealer, when set, encrypts the token at rest.
	Sealer *crypto.Sealer
}

// state is the file layout. Sealed marks a token encrypted by a Sealer.
type state struct {
	Token  string `json:"token"`
	Sealed bool   `json:"sealed,omitempty"`
}

// TokenStore persists the token as {"token": "..."} in a JSON file only the
// current user can read.
type TokenStore struct {
	path   string
	sealer *crypto.Sealer
	mu     sync.Mutex
}

var _ core.TokenStore = (*TokenStore)(nil)

// DefaultPath is ~/.medassist/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".medassist", "session.json"), nil
}

func New(c Config) (*TokenStore, error) {
	if c.Path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		c.Path = p
	}
	return &TokenStore{path: c.Path, sealer: c.Sealer}, nil
}

func (s *TokenStore) Path() string {
	return s.path
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return "", fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}

	switch {
	case st.Token == "" || !st.Sealed:
		return st.Token, nil
	case s.sealer == nil:
		return "", fmt.Errorf("%w: %s is sealed and no passphrase is set", crypto.ErrSealedTampered, s.path)
	}
	return s.sealer.Open(st.Token)
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := state{Token: token}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return fmt.Errorf("failed to seal token: %w", err)
		}
		st = state{Token: sealed, Sealed: true}
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return err
	}

	// write then rename so a crash never leaves a half-written file
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Clear removes the state file. A missing file is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
