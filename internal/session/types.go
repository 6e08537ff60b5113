// Package session manages live connections to MCP servers: spawning them,
// running the handshake, keeping a registry of connected peers, and
// dispatching typed operations against them.
package session

// ServerCapabilities is the fixed set of capability flags derived from a
// server's handshake result. The flags are a snapshot taken at connect time
// and are never re-queried.
type ServerCapabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
	Logging   bool `json:"logging"`
}

// ClientInfo is a read-only snapshot of one connected session, assembled on
// demand from the handshake data stored at connect time.
type ClientInfo struct {
	ServerID        string             `json:"serverId"`
	ServerName      string             `json:"serverName"`
	ProtocolVersion *string            `json:"protocolVersion,omitempty"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	Status          string             `json:"status"`
}

// StatusConnected is the only status a registered session can report.
// Sessions in any other state are simply absent from the registry.
const StatusConnected = "connected"

// ContentItem is the flat content representation every protocol payload is
// normalized into. Type selects the variant; text carries text and resource
// link URIs, data carries base64 payloads.
type ContentItem struct {
	Type     string  `json:"type"`
	Text     *string `json:"text,omitempty"`
	Data     *string `json:"data,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
}

// ToolInfo describes one tool published by a connected server.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// ResourceInfo describes one resource published by a connected server.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// PromptArgument describes one argument a prompt accepts. Required defaults
// to false when the server leaves it unspecified.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// PromptInfo describes one prompt published by a connected server.
type PromptInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ToolCallResult is the outcome of a tool invocation. Success reflects the
// round trip only; a tool-level failure surfaces through IsError and the
// content, not through an error return.
type ToolCallResult struct {
	Success bool          `json:"success"`
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError"`
}

// ResourceContent is one content entry returned by a resource read. Exactly
// one of Text and Blob is set.
type ResourceContent struct {
	URI      string  `json:"uri"`
	MimeType *string `json:"mimeType,omitempty"`
	Text     *string `json:"text,omitempty"`
	Blob     *string `json:"blob,omitempty"`
}

// ReadResourceResult is the full contents sequence for one resource URI. A
// server may return more than one entry per URI.
type ReadResourceResult struct {
	Contents []ResourceContent `json:"contents"`
}

// PromptMessage is one message of a resolved prompt.
type PromptMessage struct {
	Role    string      `json:"role"`
	Content ContentItem `json:"content"`
}

// GetPromptResult is a resolved prompt with its message sequence.
type GetPromptResult struct {
	Description *string         `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// ServerConfig is the slice of a persisted server record this package reads.
// Only stdio servers can be connected through this transport.
type ServerConfig struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}
