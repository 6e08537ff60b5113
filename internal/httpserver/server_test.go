package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/aiproxy"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/config"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/procman"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/secrets"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/session"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/store"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/usage"
)

// fakeSessions scripts the session manager surface.
type fakeSessions struct {
	clients   []session.ClientInfo
	tools     []session.ToolInfo
	callRes   *session.ToolCallResult
	err       error
	lastID    string
	lastTool  string
	lastArgs  any
	connected connectRequest

	hadDeadline bool
}

func (f *fakeSessions) Connect(ctx context.Context, serverID, serverName, command string, args []string, env map[string]string) (session.ClientInfo, error) {
	_, f.hadDeadline = ctx.Deadline()
	f.connected = connectRequest{ID: serverID, Name: serverName, Command: command, Args: args, Env: env}
	if f.err != nil {
		return session.ClientInfo{}, f.err
	}
	return session.ClientInfo{ServerID: serverID, ServerName: serverName, Status: session.StatusConnected}, nil
}

func (f *fakeSessions) ConnectFromConfig(ctx context.Context, cfg session.ServerConfig) (session.ClientInfo, error) {
	if cfg.Type != "stdio" {
		return session.ClientInfo{}, errors.UnsupportedTransport("test", "transport "+cfg.Type+" is not supported")
	}
	return f.Connect(ctx, cfg.ID, cfg.Name, cfg.Command, cfg.Args, cfg.Env)
}

func (f *fakeSessions) Disconnect(serverID string) error {
	f.lastID = serverID
	return f.err
}

func (f *fakeSessions) DisconnectAll() {}

func (f *fakeSessions) ConnectedClients() []session.ClientInfo {
	return f.clients
}

func (f *fakeSessions) ListTools(_ context.Context, serverID string) ([]session.ToolInfo, error) {
	f.lastID = serverID
	return f.tools, f.err
}

func (f *fakeSessions) CallTool(_ context.Context, serverID, toolName string, arguments any) (*session.ToolCallResult, error) {
	f.lastID = serverID
	f.lastTool = toolName
	f.lastArgs = arguments
	return f.callRes, f.err
}

func (f *fakeSessions) ListResources(_ context.Context, serverID string) ([]session.ResourceInfo, error) {
	f.lastID = serverID
	return []session.ResourceInfo{}, f.err
}

func (f *fakeSessions) ReadResource(_ context.Context, serverID, uri string) (*session.ReadResourceResult, error) {
	f.lastID = serverID
	if f.err != nil {
		return nil, f.err
	}
	return &session.ReadResourceResult{Contents: []session.ResourceContent{{URI: uri}}}, nil
}

func (f *fakeSessions) ListPrompts(_ context.Context, serverID string) ([]session.PromptInfo, error) {
	f.lastID = serverID
	return []session.PromptInfo{}, f.err
}

func (f *fakeSessions) GetPrompt(_ context.Context, serverID, promptName string, _ map[string]string) (*session.GetPromptResult, error) {
	f.lastID = serverID
	if f.err != nil {
		return nil, f.err
	}
	return &session.GetPromptResult{Messages: []session.PromptMessage{}}, nil
}

// fakeCompleter scripts the AI proxy surface.
type fakeCompleter struct {
	completion *aiproxy.Completion
	err        error
	lastReq    aiproxy.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req aiproxy.Request) (*aiproxy.Completion, error) {
	f.lastReq = req
	return f.completion, f.err
}

type testEnv struct {
	server   *Server
	sessions *fakeSessions
	ai       *fakeCompleter
	keyring  secrets.Keyring
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	sessions := &fakeSessions{}
	ai := &fakeCompleter{completion: &aiproxy.Completion{Content: "ok"}}
	keyring := secrets.NewFileKeyring(filepath.Join(dir, "keyring.json"), nil)

	cfg := config.DefaultConfig()
	server := NewServer(cfg.Server, Deps{
		Sessions:       sessions,
		Servers:        store.New(filepath.Join(dir, "mcp_servers.json"), nil),
		Keyring:        keyring,
		AI:             ai,
		Usage:          usage.NewRecorder(filepath.Join(dir, "usage.json"), nil),
		Processes:      procman.NewManager(nil),
		ConnectTimeout: cfg.MCP.ConnectTimeout,
	}, nil)

	return &testEnv{server: server, sessions: sessions, ai: ai, keyring: keyring}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.GoVersion)
}

func TestConnectSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions", connectRequest{
		ID:      "srv-1",
		Name:    "files",
		Command: "npx",
		Args:    []string{"-y", "@modelcontextprotocol/server-filesystem"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	info := decodeBody[session.ClientInfo](t, rec)
	assert.Equal(t, "srv-1", info.ServerID)
	assert.Equal(t, session.StatusConnected, info.Status)
	assert.Equal(t, "npx", env.sessions.connected.Command)
	// The configured connect timeout bounds spawn plus handshake.
	assert.True(t, env.sessions.hadDeadline)
}

func TestConnectSession_NoTimeoutConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.server.deps.ConnectTimeout = 0

	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions", connectRequest{
		ID:      "srv-1",
		Name:    "files",
		Command: "npx",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, env.sessions.hadDeadline)
}

func TestConnectSession_MissingID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions", connectRequest{Command: "npx"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectSession_UnsupportedTransport(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions", connectRequest{
		ID:   "srv-http",
		Type: "http",
		URL:  "https://example.com/mcp",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "unsupported_transport", resp.Kind)
}

func TestConnectSession_Conflict(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.err = errors.AlreadyConnected("test", "server srv-1 is already connected")

	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions", connectRequest{ID: "srv-1", Command: "npx"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDisconnect_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.err = errors.NotFoundf("test", "no connected client with id %q", "ghost")

	rec := env.do(t, http.MethodDelete, "/api/v1/mcp/sessions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallTool(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.callRes = &session.ToolCallResult{
		Success: true,
		Content: []session.ContentItem{{Type: "text"}},
	}

	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions/srv-1/tools/call", callToolRequest{
		Name:      "search",
		Arguments: map[string]any{"query": "golang"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "srv-1", env.sessions.lastID)
	assert.Equal(t, "search", env.sessions.lastTool)
	assert.Equal(t, map[string]any{"query": "golang"}, env.sessions.lastArgs)
}

func TestCallTool_RemoteFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.err = errors.RemoteCall("test", "tools/call failed")

	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions/srv-1/tools/call", callToolRequest{Name: "x"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReadResource_RequiresURI(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/mcp/sessions/srv-1/resources/read", readResourceRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/mcp/servers", store.ServerRecord{
		Name:    "files",
		Type:    store.TypeStdio,
		Command: "npx",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decodeBody[store.ServerRecord](t, rec)
	require.NotEmpty(t, added.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/mcp/servers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]store.ServerRecord](t, rec)
	require.Len(t, list, 1)

	added.Description = "local files"
	rec = env.do(t, http.MethodPut, "/api/v1/mcp/servers/"+added.ID, added)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/mcp/servers/"+added.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/mcp/servers/"+added.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddServer_Invalid(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/mcp/servers", store.ServerRecord{Type: store.TypeStdio})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresets(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/mcp/servers/presets", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	presets := decodeBody[[]store.ServerRecord](t, rec)
	assert.Len(t, presets, 4)
}

func TestImportExport(t *testing.T) {
	env := newTestEnv(t)

	content := `{"mcpServers": {"files": {"command": "npx", "args": ["-y", "pkg"]}}}`
	rec := env.do(t, http.MethodPost, "/api/v1/mcp/servers/import", importRequest{
		Content: content,
		Merge:   true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeBody[store.ImportResult](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.ImportedCount)

	rec = env.do(t, http.MethodGet, "/api/v1/mcp/servers/export?format=claude", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mcpServers")

	rec = env.do(t, http.MethodGet, "/api/v1/mcp/servers/export?format=tsv", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComplete(t *testing.T) {
	env := newTestEnv(t)
	env.ai.completion = &aiproxy.Completion{Content: "summary", InputTokens: 5, OutputTokens: 2}

	rec := env.do(t, http.MethodPost, "/api/v1/ai/complete", aiproxy.Request{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		Messages: []aiproxy.Message{{Role: "user", Content: "hi"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	completion := decodeBody[aiproxy.Completion](t, rec)
	assert.Equal(t, "summary", completion.Content)
	assert.Equal(t, "openai", env.ai.lastReq.Provider)
}

func TestComplete_MissingKey(t *testing.T) {
	env := newTestEnv(t)
	env.ai.completion = nil
	env.ai.err = errors.Secret("test", "no API key found for openai")

	rec := env.do(t, http.MethodPost, "/api/v1/ai/complete", aiproxy.Request{Provider: "openai", Model: "m"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestKeyLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/ai/keys/openai", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[map[string]any](t, rec)
	assert.Equal(t, false, status["hasKey"])

	rec = env.do(t, http.MethodPut, "/api/v1/ai/keys/openai", saveKeyRequest{APIKey: "sk-test"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/ai/keys/openai", nil)
	status = decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, status["hasKey"])
	// The stored key must never appear in the status payload.
	assert.NotContains(t, rec.Body.String(), "sk-test")

	rec = env.do(t, http.MethodDelete, "/api/v1/ai/keys/openai", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUsageEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/ai/usage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[usage.Stats](t, rec)
	assert.Zero(t, stats.TotalTokens)

	rec = env.do(t, http.MethodDelete, "/api/v1/ai/usage", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSystemEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/system/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/system/runtime", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/system/reveal", revealRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/process", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/process", procman.StartConfig{
		ID:   "p1",
		Type: "http",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
