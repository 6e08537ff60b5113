package store

import (
	"os"
	"path/filepath"
	"runtime"
)

// detectCandidate is one known location an external tool keeps its MCP
// configuration in.
type detectCandidate struct {
	name       string
	sourceType string
	path       string
}

// DetectExternalConfigs lists MCP configuration files from known
// Claude Desktop, VS Code, Cursor, and Windsurf locations that exist on this
// machine.
func DetectExternalConfigs() []ConfigSource {
	sources := make([]ConfigSource, 0, 4)
	for _, c := range detectCandidates(runtime.GOOS) {
		if c.path == "" {
			continue
		}
		if _, err := os.Stat(c.path); err != nil {
			continue
		}
		sources = append(sources, ConfigSource{
			Name:       c.name,
			Path:       c.path,
			SourceType: c.sourceType,
		})
	}
	return sources
}

func detectCandidates(goos string) []detectCandidate {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	config, err := os.UserConfigDir()
	if err != nil {
		config = ""
	}

	join := func(base string, elem ...string) string {
		if base == "" {
			return ""
		}
		return filepath.Join(append([]string{base}, elem...)...)
	}

	var claude, vscode, cursor string
	switch goos {
	case "darwin":
		claude = join(home, "Library/Application Support/Claude/claude_desktop_config.json")
		vscode = join(home, "Library/Application Support/Code/User/globalStorage/anthropic.claude-mcp/mcp_servers.json")
		cursor = join(home, "Library/Application Support/Cursor/User/globalStorage/anthropic.claude-mcp/mcp_servers.json")
	default:
		// Windows resolves config to %AppData%, Linux to ~/.config.
		claude = join(config, "Claude/claude_desktop_config.json")
		vscode = join(config, "Code/User/globalStorage/anthropic.claude-mcp/mcp_servers.json")
		cursor = join(config, "Cursor/User/globalStorage/anthropic.claude-mcp/mcp_servers.json")
	}

	return []detectCandidate{
		{"Claude Desktop", "claude-desktop", claude},
		{"VS Code MCP Extension", "vscode", vscode},
		{"Cursor IDE", "cursor", cursor},
		{"Cursor IDE (User Config)", "cursor", join(home, ".cursor/mcp.json")},
		{"Windsurf IDE", "windsurf", join(home, ".codeium/windsurf/mcp_config.json")},
	}
}
