package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "mcp_servers.json"), nil)
}

func stdioRecord(name string) ServerRecord {
	return ServerRecord{
		Name:    name,
		Type:    TypeStdio,
		Command: "npx",
		Args:    []string{"-y", "test-mcp"},
	}
}

func TestStore_List_MissingFile(t *testing.T) {
	s := newTestStore(t)

	servers, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, servers)
	assert.Empty(t, servers)
}

func TestStore_Add(t *testing.T) {
	s := newTestStore(t)

	added, err := s.Add(stdioRecord("Test Server"))
	require.NoError(t, err)
	assert.True(t, len(added.ID) > len("mcp_"))
	assert.Contains(t, added.ID, "mcp_")
	assert.NotZero(t, added.CreatedAt)
	assert.Equal(t, added.CreatedAt, added.UpdatedAt)

	servers, err := s.List()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "Test Server", servers[0].Name)
}

func TestStore_Add_DuplicateName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(stdioRecord("Dup"))
	require.NoError(t, err)

	_, err = s.Add(stdioRecord("Dup"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestStore_Add_Invalid(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(ServerRecord{Name: "Bad", Type: TypeStdio})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = s.Add(ServerRecord{Name: "NoURL", Type: TypeHTTP})
	require.Error(t, err)

	_, err = s.Add(ServerRecord{Name: "Weird", Type: "carrier-pigeon", Command: "x"})
	require.Error(t, err)
}

func TestStore_Get(t *testing.T) {
	s := newTestStore(t)

	added, err := s.Add(stdioRecord("Findable"))
	require.NoError(t, err)

	got, err := s.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Findable", got.Name)

	_, err = s.Get("ghost")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t)

	added, err := s.Add(stdioRecord("Original"))
	require.NoError(t, err)

	added.Name = "Renamed"
	added.Enabled = true
	updated, err := s.Update(added)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.GreaterOrEqual(t, updated.UpdatedAt, updated.CreatedAt)

	servers, err := s.List()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.True(t, servers[0].Enabled)
}

func TestStore_Update_NotFound(t *testing.T) {
	s := newTestStore(t)

	rec := stdioRecord("Missing")
	rec.ID = "ghost"
	_, err := s.Update(rec)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	added, err := s.Add(stdioRecord("Doomed"))
	require.NoError(t, err)
	_, err = s.Add(stdioRecord("Survivor"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(added.ID))

	servers, err := s.List()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "Survivor", servers[0].Name)

	err = s.Delete(added.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestStore_SaveAll(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Add(stdioRecord("Old"))
	require.NoError(t, err)

	rec := stdioRecord("NewOnly")
	rec.ID = "fixed"
	require.NoError(t, s.SaveAll([]ServerRecord{rec}))

	servers, err := s.List()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "NewOnly", servers[0].Name)
}

func TestServerRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     ServerRecord
		wantErr bool
	}{
		{"valid stdio", stdioRecord("s"), false},
		{"valid http", ServerRecord{Name: "h", Type: TypeHTTP, URL: "http://x"}, false},
		{"valid sse", ServerRecord{Name: "e", Type: TypeSSE, URL: "http://x"}, false},
		{"missing name", ServerRecord{Type: TypeStdio, Command: "x"}, true},
		{"stdio without command", ServerRecord{Name: "s", Type: TypeStdio}, true},
		{"sse without url", ServerRecord{Name: "e", Type: TypeSSE}, true},
		{"unknown type", ServerRecord{Name: "u", Type: "quic"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	presets := Presets()
	require.Len(t, presets, 4)

	names := make(map[string]bool)
	ids := make(map[string]bool)
	for _, p := range presets {
		assert.Contains(t, p.ID, "preset_")
		assert.Equal(t, TypeStdio, p.Type)
		assert.False(t, p.Enabled)
		assert.NotZero(t, p.CreatedAt)
		require.NoError(t, p.Validate())
		names[p.Name] = true
		ids[p.ID] = true
	}
	assert.Len(t, ids, 4)
	assert.True(t, names["GitHub"])

	// The GitHub preset ships an empty token placeholder.
	for _, p := range presets {
		if p.Name == "GitHub" {
			_, ok := p.Env["GITHUB_PERSONAL_ACCESS_TOKEN"]
			assert.True(t, ok)
		}
	}
}

func TestDetectExternalConfigs_NoPanic(t *testing.T) {
	// Result depends on the machine; only the shape is checked.
	for _, src := range DetectExternalConfigs() {
		assert.NotEmpty(t, src.Name)
		assert.NotEmpty(t, src.Path)
		assert.NotEmpty(t, src.SourceType)
	}
}
