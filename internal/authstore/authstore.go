// Package authstore persists the session token and sign-in preferences
// across runs in a small JSON file under the user config dir.
package authstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileData is the on-disk layout. The token lives under "jwt"; "token" is the
// key an earlier release used — it is still read as a fallback and cleared on
// the next write.
type fileData struct {
	JWT           string `json:"jwt,omitempty"`
	LegacyToken   string `json:"token,omitempty"`
	RememberMe    bool   `json:"rememberMe,omitempty"`
	RememberEmail string `json:"rememberEmail,omitempty"`
}

// Store is a file-backed key-value store for auth state. It is safe for
// concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	data fileData
}

// DefaultPath returns the standard store location: <user config dir>/teller/auth.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("authstore.DefaultPath: %w", err)
	}
	return filepath.Join(dir, "teller", "auth.json"), nil
}

// Open loads the store at path, creating an empty one if the file is missing.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authstore.Open: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("authstore.Open: parse %s: %w", path, err)
	}
	return s, nil
}

// Token returns the stored bearer token, falling back to the legacy key.
// Empty string means no token is stored.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.JWT != "" {
		return s.data.JWT
	}
	return s.data.LegacyToken
}

// SetToken persists the bearer token under the primary key and clears the
// legacy key. An empty token is a no-op.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.JWT = token
	s.data.LegacyToken = ""
	return s.save()
}

// ClearToken removes both the primary and legacy token keys. Sign-in
// preferences (remember-me) are left intact.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.JWT == "" && s.data.LegacyToken == "" {
		return nil
	}
	s.data.JWT = ""
	s.data.LegacyToken = ""
	return s.save()
}

// Remember returns the remember-me flag and the last remembered email.
func (s *Store) Remember() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.RememberMe, s.data.RememberEmail
}

// SetRemember persists the remember-me preference. Disabling it clears the
// remembered email.
func (s *Store) SetRemember(remember bool, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RememberMe = remember
	if remember {
		s.data.RememberEmail = email
	} else {
		s.data.RememberEmail = ""
	}
	return s.save()
}

// save writes the store atomically with owner-only permissions: the file
// holds a live credential.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("authstore: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("authstore: create dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("authstore: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("authstore: replace: %w", err)
	}
	return nil
}
