package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "scoreproxy"
	keyringUser    = "upstream_token"
	tokenFileName  = "upstream_token"
	fileMode       = 0600
)

// ErrNoToken is returned when no upstream token is stored.
var ErrNoToken = errors.New("no upstream token stored")

// Store keeps the upstream API token in the OS keychain, falling back to a
// file under dir when the keychain is unavailable.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) filePath() string {
	return filepath.Join(s.dir, tokenFileName)
}

// Save stores token, preferring the keychain.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return s.saveFile(token)
	}

	// Clean up legacy file if it exists
	if err := os.Remove(s.filePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("failed to remove token file", "path", s.filePath(), "error", err)
	}
	return nil
}

// Get returns the stored token, migrating a file token into the keychain
// when possible.
func (s *Store) Get() (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = s.getFile()
	if err != nil {
		return "", err
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated upstream token from file to OS keychain")
		_ = os.Remove(s.filePath())
	}

	return token, nil
}

// Delete removes the token from the keychain and the fallback file.
func (s *Store) Delete() error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keychain token: %w", err)
	}
	if err := os.Remove(s.filePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting token file: %w", err)
	}
	return nil
}

// Resolve returns explicit when set, otherwise the stored token. A missing
// token is not an error, the upstream is called anonymously.
func (s *Store) Resolve(explicit string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	t, err := s.Get()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			slog.Debug("upstream token unavailable", "error", err)
		}
		return ""
	}
	return t
}

func (s *Store) saveFile(token string) error {
	if s.dir == "" {
		return errors.New("token directory required")
	}
	return os.WriteFile(s.filePath(), []byte(token), fileMode)
}

func (s *Store) getFile() (string, error) {
	if s.dir == "" {
		return "", ErrNoToken
	}
	b, err := os.ReadFile(s.filePath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", s.filePath(), err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
