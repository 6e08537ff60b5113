package secrets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	keyring "github.com/zalando/go-keyring"
)

func newSystemTestKeyring(t *testing.T) *SystemKeyring {
	t.Helper()
	keyring.MockInit()
	return NewSystemKeyring(nil)
}

func TestSystemKeyring_SaveAndGet(t *testing.T) {
	k := newSystemTestKeyring(t)

	require.NoError(t, k.Save("openai", "sk-test-123"))

	apiKey, ok, err := k.Get("openai")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-test-123", apiKey)
}

func TestSystemKeyring_Get_Missing(t *testing.T) {
	k := newSystemTestKeyring(t)

	apiKey, ok, err := k.Get("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, apiKey)
}

func TestSystemKeyring_Delete_Idempotent(t *testing.T) {
	k := newSystemTestKeyring(t)

	require.NoError(t, k.Save("openai", "sk-test-123"))
	require.NoError(t, k.Delete("openai"))
	require.NoError(t, k.Delete("openai"))

	_, ok, err := k.Get("openai")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSystemKeyring_Save_EmptyProvider(t *testing.T) {
	k := newSystemTestKeyring(t)
	require.Error(t, k.Save("", "sk-test"))
}

func TestOpen_PrefersSystemKeyring(t *testing.T) {
	orig := systemKeyringAvailable
	t.Cleanup(func() { systemKeyringAvailable = orig })

	systemKeyringAvailable = func() bool { return true }
	k := Open(filepath.Join(t.TempDir(), "keyring.json"), nil)
	assert.IsType(t, &SystemKeyring{}, k)
}

func TestOpen_FallsBackToFile(t *testing.T) {
	orig := systemKeyringAvailable
	t.Cleanup(func() { systemKeyringAvailable = orig })

	systemKeyringAvailable = func() bool { return false }
	path := filepath.Join(t.TempDir(), "keyring.json")
	k := Open(path, nil)
	require.IsType(t, &FileKeyring{}, k)

	// The fallback still honors the full contract.
	require.NoError(t, k.Save("openai", "sk-test-123"))
	apiKey, ok, err := k.Get("openai")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-test-123", apiKey)
}
