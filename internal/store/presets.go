package store

import (
	"time"

	"github.com/google/uuid"
)

// Presets returns ready-to-use server configurations for common MCP servers.
// Presets start disabled; the user enables them after filling in any
// credentials.
func Presets() []ServerRecord {
	now := time.Now().Unix()

	preset := func(slug, name, description string, args []string, env map[string]string) ServerRecord {
		return ServerRecord{
			ID:          "preset_" + slug + "_" + uuid.NewString(),
			Name:        name,
			Type:        TypeStdio,
			Enabled:     false,
			Command:     "npx",
			Args:        args,
			Env:         env,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []ServerRecord{
		preset("filesystem", "Filesystem (Local)", "Access local filesystem",
			[]string{"-y", "@modelcontextprotocol/server-filesystem", "."}, nil),
		preset("github", "GitHub", "Access GitHub repositories and issues",
			[]string{"-y", "@modelcontextprotocol/server-github"},
			map[string]string{"GITHUB_PERSONAL_ACCESS_TOKEN": ""}),
		preset("memory", "Memory", "Persistent memory for conversations",
			[]string{"-y", "@modelcontextprotocol/server-memory"}, nil),
		preset("fetch", "Fetch", "Fetch and parse web content",
			[]string{"-y", "@modelcontextprotocol/server-fetch"}, nil),
	}
}
