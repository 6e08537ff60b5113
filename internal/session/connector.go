package session

import (
	"context"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/mcp"
)

// Peer is the connected-server handle the registry owns. *mcp.Client
// satisfies it; tests substitute fakes.
type Peer interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
	ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error)
	ListPrompts(ctx context.Context) ([]mcp.Prompt, error)
	GetPrompt(ctx context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error)
	Close() error
}

// Connector establishes a handshaken connection to a server process.
type Connector interface {
	Dial(ctx context.Context, command string, args []string, env map[string]string) (Peer, *mcp.InitializeResult, error)
}

// StdioConnector spawns a server as a child process and talks to it over
// stdio. One deterministic attempt, no retry.
type StdioConnector struct {
	// ClientName and ClientVersion are announced during the handshake.
	ClientName    string
	ClientVersion string
}

var _ Connector = (*StdioConnector)(nil)

// Dial spawns the command and runs the initialization handshake. Spawn and
// handshake failures are distinguished so callers can report which phase
// broke.
func (c *StdioConnector) Dial(ctx context.Context, command string, args []string, env map[string]string) (Peer, *mcp.InitializeResult, error) {
	const op = "session.StdioConnector.Dial"

	transport, err := mcp.NewCommandTransport(command, args, env)
	if err != nil {
		return nil, nil, errors.SpawnWrap(err, op, "failed to spawn server process")
	}

	var opts []mcp.ClientOption
	if c.ClientName != "" {
		opts = append(opts, mcp.WithClientInfo(c.ClientName, c.ClientVersion))
	}
	client := mcp.NewClient(transport, opts...)

	init, err := client.Initialize(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, errors.HandshakeWrap(err, op, "initialization handshake failed")
	}

	return client, init, nil
}
