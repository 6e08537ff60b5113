package mcp

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransport implements ClientTransport for testing.
type mockTransport struct {
	responses []*Response
	requests  []*Request
	index     int
	closed    bool
}

func newMockTransport(responses ...*Response) *mockTransport {
	return &mockTransport{responses: responses}
}

func (t *mockTransport) SendRequest(_ context.Context, req *Request) (*Response, error) {
	t.requests = append(t.requests, req)

	if t.closed {
		return nil, io.ErrClosedPipe
	}

	// Notifications carry no id and get no response.
	if req.ID == nil {
		return &Response{JSONRPC: JSONRPCVersion}, nil
	}

	if t.index >= len(t.responses) {
		return &Response{
			JSONRPC: JSONRPCVersion,
			ID:      req.ID,
			Error:   &Error{Code: -1, Message: "no more responses"},
		}, nil
	}

	resp := t.responses[t.index]
	t.index++
	return resp, nil
}

func (t *mockTransport) Close() error {
	t.closed = true
	return nil
}

func resultResponse(t *testing.T, result any) *Response {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	return &Response{JSONRPC: JSONRPCVersion, ID: int64(1), Result: data}
}

func TestNewClient(t *testing.T) {
	transport := newMockTransport()
	client := NewClient(transport)

	assert.NotNil(t, client)
	assert.Equal(t, "sast-readium", client.clientInfo.Name)
	assert.Equal(t, "1.0.0", client.clientInfo.Version)
}

func TestNewClient_WithOptions(t *testing.T) {
	transport := newMockTransport()
	client := NewClient(transport,
		WithClientInfo("test-client", "2.0.0"),
	)

	assert.Equal(t, "test-client", client.clientInfo.Name)
	assert.Equal(t, "2.0.0", client.clientInfo.Version)
}

func TestClient_Initialize(t *testing.T) {
	initResult := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{ListChanged: true},
			Resources: &ResourcesCapability{Subscribe: true},
			Prompts:   &PromptsCapability{ListChanged: true},
		},
		ServerInfo: Implementation{Name: "test-server", Version: "0.1.0"},
	}

	transport := newMockTransport(resultResponse(t, initResult))
	client := NewClient(transport)

	got, err := client.Initialize(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "test-server", got.ServerInfo.Name)
	assert.True(t, got.Capabilities.Tools.ListChanged)
	assert.Equal(t, got, client.InitializeResult())

	// initialize call plus the initialized notification.
	require.Len(t, transport.requests, 2)
	assert.Equal(t, "initialize", transport.requests[0].Method)
	assert.NotNil(t, transport.requests[0].ID)
	assert.Equal(t, "notifications/initialized", transport.requests[1].Method)
	assert.Nil(t, transport.requests[1].ID)

	var params InitializeParams
	require.NoError(t, json.Unmarshal(transport.requests[0].Params, &params))
	assert.Equal(t, ProtocolVersion, params.ProtocolVersion)
	assert.Equal(t, "sast-readium", params.ClientInfo.Name)
}

func TestClient_Initialize_RPCError(t *testing.T) {
	transport := newMockTransport(&Response{
		JSONRPC: JSONRPCVersion,
		ID:      int64(1),
		Error:   &Error{Code: ErrCodeInvalidRequest, Message: "unsupported protocol"},
	})
	client := NewClient(transport)

	got, err := client.Initialize(context.Background())
	assert.Nil(t, got)
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeInvalidRequest, rpcErr.Code)
	assert.Nil(t, client.InitializeResult())
}

func TestClient_ListTools(t *testing.T) {
	transport := newMockTransport(resultResponse(t, ListToolsResult{
		Tools: []Tool{
			{Name: "read_document", Description: "Reads a document"},
			{Name: "search", Description: "Full text search"},
		},
	}))
	client := NewClient(transport)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "read_document", tools[0].Name)
	assert.Equal(t, "tools/list", transport.requests[0].Method)
	assert.Nil(t, transport.requests[0].Params)
}

func TestClient_CallTool(t *testing.T) {
	transport := newMockTransport(resultResponse(t, CallToolResult{
		Content: []Content{{Type: ContentTypeText, Text: "42"}},
	}))
	client := NewClient(transport)

	result, err := client.CallTool(context.Background(), "calc", map[string]any{"expr": "6*7"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "42", result.Content[0].Text)
	assert.False(t, result.IsError)

	var params CallToolParams
	require.NoError(t, json.Unmarshal(transport.requests[0].Params, &params))
	assert.Equal(t, "calc", params.Name)
	assert.Equal(t, "6*7", params.Arguments["expr"])
}

func TestClient_CallTool_ToolError(t *testing.T) {
	transport := newMockTransport(resultResponse(t, CallToolResult{
		Content: []Content{{Type: ContentTypeText, Text: "division by zero"}},
		IsError: true,
	}))
	client := NewClient(transport)

	result, err := client.CallTool(context.Background(), "calc", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClient_ListResources(t *testing.T) {
	transport := newMockTransport(resultResponse(t, ListResourcesResult{
		Resources: []Resource{{URI: "file:///doc.pdf", Name: "doc"}},
	}))
	client := NewClient(transport)

	resources, err := client.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "file:///doc.pdf", resources[0].URI)
	assert.Equal(t, "resources/list", transport.requests[0].Method)
}

func TestClient_ReadResource(t *testing.T) {
	text := "hello"
	transport := newMockTransport(resultResponse(t, ReadResourceResult{
		Contents: []ResourceContents{{URI: "file:///doc.txt", Text: &text}},
	}))
	client := NewClient(transport)

	result, err := client.ReadResource(context.Background(), "file:///doc.txt")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	require.NotNil(t, result.Contents[0].Text)
	assert.Equal(t, "hello", *result.Contents[0].Text)

	var params ReadResourceParams
	require.NoError(t, json.Unmarshal(transport.requests[0].Params, &params))
	assert.Equal(t, "file:///doc.txt", params.URI)
}

func TestClient_ListPrompts(t *testing.T) {
	transport := newMockTransport(resultResponse(t, ListPromptsResult{
		Prompts: []Prompt{{
			Name:      "summarize",
			Arguments: []PromptArgument{{Name: "length", Required: true}},
		}},
	}))
	client := NewClient(transport)

	prompts, err := client.ListPrompts(context.Background())
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "summarize", prompts[0].Name)
	assert.True(t, prompts[0].Arguments[0].Required)
}

func TestClient_GetPrompt(t *testing.T) {
	transport := newMockTransport(resultResponse(t, GetPromptResult{
		Description: "summarizes a document",
		Messages: []PromptMessage{{
			Role:    RoleUser,
			Content: Content{Type: ContentTypeText, Text: "Summarize this."},
		}},
	}))
	client := NewClient(transport)

	result, err := client.GetPrompt(context.Background(), "summarize", map[string]string{"length": "short"})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, RoleUser, result.Messages[0].Role)

	var params GetPromptParams
	require.NoError(t, json.Unmarshal(transport.requests[0].Params, &params))
	assert.Equal(t, "summarize", params.Name)
	assert.Equal(t, "short", params.Arguments["length"])
}

func TestClient_RequestIDsIncrement(t *testing.T) {
	transport := newMockTransport(
		resultResponse(t, ListToolsResult{}),
		resultResponse(t, ListToolsResult{}),
	)
	client := NewClient(transport)

	_, err := client.ListTools(context.Background())
	require.NoError(t, err)
	_, err = client.ListTools(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), transport.requests[0].ID)
	assert.Equal(t, int64(2), transport.requests[1].ID)
}

func TestClient_Close(t *testing.T) {
	transport := newMockTransport()
	client := NewClient(transport)

	require.NoError(t, client.Close())
	assert.True(t, transport.closed)

	// Idempotent.
	require.NoError(t, client.Close())

	_, err := client.ListTools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestRPCError_Error(t *testing.T) {
	err := &RPCError{Code: -32601, Message: "method not found"}
	assert.Equal(t, "RPC error -32601: method not found", err.Error())

	withData := &RPCError{Code: -32602, Message: "invalid params", Data: "bad"}
	assert.Contains(t, withData.Error(), "data: bad")
}
