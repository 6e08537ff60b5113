package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Client provides a type-safe API for interacting with MCP servers.
// It handles request/response correlation through its transport and exposes
// convenience methods for all client-side MCP operations.
type Client struct {
	transport ClientTransport
	requestID atomic.Int64
	mu        sync.Mutex
	closed    bool

	clientInfo Implementation
	initResult *InitializeResult
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientInfo sets the client information sent during initialization.
func WithClientInfo(name, version string) ClientOption {
	return func(c *Client) {
		c.clientInfo = Implementation{
			Name:    name,
			Version: version,
		}
	}
}

// NewClient creates a new MCP client with the given transport.
// The client is not usable until Initialize has completed.
func NewClient(transport ClientTransport, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		clientInfo: Implementation{
			Name:    "sast-readium",
			Version: "1.0.0",
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Initialize performs the MCP initialization handshake and returns the raw
// handshake result. This must be called before any other client method.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ClientCapabilities{
			Roots:    &RootsCapability{ListChanged: true},
			Sampling: &SamplingCapability{},
		},
		ClientInfo: c.clientInfo,
	}

	var result InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return nil, fmt.Errorf("initialize failed: %w", err)
	}

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		return nil, fmt.Errorf("initialized notification failed: %w", err)
	}

	c.mu.Lock()
	c.initResult = &result
	c.mu.Unlock()

	return &result, nil
}

// InitializeResult returns the handshake result captured at Initialize time,
// or nil if the client has not completed a handshake.
func (c *Client) InitializeResult() *InitializeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initResult
}

// Tool Operations

// ListTools returns all available tools from the server.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var result ListToolsResult
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResult, error) {
	params := CallToolParams{
		Name:      name,
		Arguments: args,
	}

	var result CallToolResult
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Resource Operations

// ListResources returns all available resources from the server.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	var result ListResourcesResult
	if err := c.call(ctx, "resources/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// ReadResource reads a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	params := ReadResourceParams{URI: uri}

	var result ReadResourceResult
	if err := c.call(ctx, "resources/read", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Prompt Operations

// ListPrompts returns all available prompts from the server.
func (c *Client) ListPrompts(ctx context.Context) ([]Prompt, error) {
	var result ListPromptsResult
	if err := c.call(ctx, "prompts/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Prompts, nil
}

// GetPrompt retrieves a prompt with the given string arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*GetPromptResult, error) {
	params := GetPromptParams{
		Name:      name,
		Arguments: args,
	}

	var result GetPromptResult
	if err := c.call(ctx, "prompts/get", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close closes the client and its transport. It is safe to call more than
// once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.transport.Close()
}

// Internal methods

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("client is closed")
	}
	c.mu.Unlock()

	req := &Request{
		JSONRPC: JSONRPCVersion,
		ID:      c.requestID.Add(1),
		Method:  method,
	}

	if params != nil {
		paramsData, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = paramsData
	}

	resp, err := c.transport.SendRequest(ctx, req)
	if err != nil {
		return err
	}

	if resp.Error != nil {
		return &RPCError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}

	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}

	return nil
}

func (c *Client) notify(ctx context.Context, method string, params any) error {
	notification := &Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
	}

	if params != nil {
		paramsData, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal notification params: %w", err)
		}
		notification.Params = paramsData
	}

	_, err := c.transport.SendRequest(ctx, notification)
	return err
}

// RPCError represents a JSON-RPC error returned by the server.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("RPC error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}
