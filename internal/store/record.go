// Package store persists MCP server configuration records on disk and
// converts them to and from external configuration formats.
package store

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// Server transport types.
const (
	TypeStdio = "stdio"
	TypeHTTP  = "http"
	TypeSSE   = "sse"
)

// ServerRecord is one persisted MCP server configuration.
type ServerRecord struct {
	ID      string `json:"id" yaml:"id" toml:"id"`
	Name    string `json:"name" yaml:"name" toml:"name"`
	Type    string `json:"type" yaml:"type" toml:"type"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`

	// Stdio configuration.
	Command string            `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`

	// HTTP/SSE configuration.
	URL     string            `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	CreatedAt   int64  `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt"`
}

// Validate checks the invariants a record must satisfy before it can be
// persisted or connected.
func (r ServerRecord) Validate() error {
	const op = "store.ServerRecord.Validate"

	if r.Name == "" {
		return errors.Validation(op, "server name is required")
	}
	switch r.Type {
	case TypeStdio:
		if r.Command == "" {
			return errors.Validation(op, "stdio server requires command")
		}
	case TypeHTTP, TypeSSE:
		if r.URL == "" {
			return errors.Validation(op, r.Type+" server requires url")
		}
	default:
		return errors.Newf(errors.KindValidation, "unknown server type %q", r.Type)
	}
	return nil
}

// storeFile is the on-disk shape of the server collection.
type storeFile struct {
	Version   int            `json:"version"`
	Servers   []ServerRecord `json:"servers"`
	UpdatedAt int64          `json:"updatedAt"`
}

// ClaudeDesktopServer is one entry of the mcpServers object used by Claude
// Desktop and several IDE integrations.
type ClaudeDesktopServer struct {
	Command string            `json:"command,omitempty" toml:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" toml:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" toml:"env,omitempty" yaml:"env,omitempty"`
	URL     string            `json:"url,omitempty" toml:"url,omitempty" yaml:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty" toml:"headers,omitempty" yaml:"headers,omitempty"`
	Type    string            `json:"type,omitempty" toml:"type,omitempty" yaml:"type,omitempty"`
}

// importPayload accepts both the native export format and the Claude Desktop
// mcpServers object format.
type importPayload struct {
	Version    int                            `json:"version,omitempty" toml:"version,omitempty" yaml:"version,omitempty"`
	Source     string                         `json:"source,omitempty" toml:"source,omitempty" yaml:"source,omitempty"`
	Servers    []ServerRecord                 `json:"servers,omitempty" toml:"servers,omitempty" yaml:"servers,omitempty"`
	MCPServers map[string]ClaudeDesktopServer `json:"mcpServers,omitempty" toml:"mcpServers,omitempty" yaml:"mcpServers,omitempty"`
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Success       bool           `json:"success"`
	ImportedCount int            `json:"importedCount"`
	SkippedCount  int            `json:"skippedCount"`
	Errors        []string       `json:"errors"`
	Servers       []ServerRecord `json:"servers"`
}

// ExportResult summarizes one export-to-file run.
type ExportResult struct {
	Success     bool   `json:"success"`
	FilePath    string `json:"filePath,omitempty"`
	ServerCount int    `json:"serverCount"`
}

// ConfigSource is an external MCP configuration file found on this machine.
type ConfigSource struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	SourceType string `json:"sourceType"`
}

// convertClaudeDesktopServer maps one Claude Desktop entry onto a record.
// The transport type is inferred from which fields are set when the entry
// does not declare one. Imported servers start disabled.
func convertClaudeDesktopServer(name string, server ClaudeDesktopServer) ServerRecord {
	now := time.Now().Unix()

	serverType := server.Type
	if serverType == "" {
		switch {
		case server.Command != "":
			serverType = TypeStdio
		case server.URL != "":
			serverType = TypeHTTP
		default:
			serverType = TypeStdio
		}
	}

	slug := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	return ServerRecord{
		ID:          "imported_" + slug + "_" + uuid.NewString(),
		Name:        name,
		Type:        serverType,
		Enabled:     false,
		Command:     server.Command,
		Args:        server.Args,
		Env:         server.Env,
		URL:         server.URL,
		Headers:     server.Headers,
		Description: "Imported from external configuration",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
