package authstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "auth.json"))
	require.NoError(t, err)
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.Token())
	require.NoError(t, s.SetToken("abc123"))
	assert.Equal(t, "abc123", s.Token())

	// Survives a reopen.
	reopened, err := Open(s.path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", reopened.Token())
}

func TestSetToken_EmptyIsNoOp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("abc123"))
	require.NoError(t, s.SetToken(""))
	assert.Equal(t, "abc123", s.Token())
}

func TestClearToken(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetToken("abc123"))
	require.NoError(t, s.ClearToken())
	assert.Empty(t, s.Token())

	// Idempotent.
	require.NoError(t, s.ClearToken())
	assert.Empty(t, s.Token())
}

func TestLegacyKeyFallbackAndMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	raw, err := json.Marshal(map[string]string{"token": "legacy-tok"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy-tok", s.Token(), "legacy key must be readable")

	// Next write migrates to the primary key and drops the legacy one.
	require.NoError(t, s.SetToken("new-tok"))
	assert.Equal(t, "new-tok", s.Token())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(onDisk, &data))
	assert.Equal(t, "new-tok", data["jwt"])
	assert.NotContains(t, data, "token")
}

func TestClearToken_RemovesLegacyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	raw, err := json.Marshal(map[string]string{"token": "legacy-tok"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.ClearToken())
	assert.Empty(t, s.Token())
}

func TestRememberPreference(t *testing.T) {
	s := newTestStore(t)

	remember, email := s.Remember()
	assert.False(t, remember)
	assert.Empty(t, email)

	require.NoError(t, s.SetRemember(true, "noa@example.com"))
	remember, email = s.Remember()
	assert.True(t, remember)
	assert.Equal(t, "noa@example.com", email)

	// Independent of the token lifecycle.
	require.NoError(t, s.SetToken("abc123"))
	require.NoError(t, s.ClearToken())
	remember, email = s.Remember()
	assert.True(t, remember)
	assert.Equal(t, "noa@example.com", email)

	require.NoError(t, s.SetRemember(false, ""))
	remember, email = s.Remember()
	assert.False(t, remember)
	assert.Empty(t, email)
}

func TestOpen_MissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "does", "not", "exist.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Token())
}
