package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/fileutil"
)

// exportSource identifies exports produced by this application.
const exportSource = "sast-readium"

// maxImportSize bounds import files read from disk.
const maxImportSize = 8 * 1024 * 1024

// Format is an import/export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the encoding implied by a file extension, defaulting
// to JSON.
func FormatForPath(path string) Format {
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return FormatYAML
	case strings.HasSuffix(path, ".toml"):
		return FormatTOML
	default:
		return FormatJSON
	}
}

// ParseImport decodes server records from import data. Both the native
// export shape (a servers array) and the Claude Desktop mcpServers object
// are accepted, in JSON, YAML, or TOML.
func ParseImport(data []byte, format Format) ([]ServerRecord, error) {
	const op = "store.ParseImport"

	var payload importPayload
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &payload)
	case FormatTOML:
		err = toml.Unmarshal(data, &payload)
	default:
		err = json.Unmarshal(data, &payload)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, op, "failed to parse %s import data", format)
	}

	var servers []ServerRecord

	now := time.Now().Unix()
	for _, server := range payload.Servers {
		if server.ID == "" {
			server.ID = "imported_" + uuid.NewString()
		}
		if server.CreatedAt == 0 {
			server.CreatedAt = now
		}
		if server.UpdatedAt == 0 {
			server.UpdatedAt = now
		}
		servers = append(servers, server)
	}

	for name, server := range payload.MCPServers {
		servers = append(servers, convertClaudeDesktopServer(name, server))
	}

	return servers, nil
}

// Import adds parsed records to the store. With merge set, existing records
// are kept and incoming duplicates (by name) are skipped; without it the
// collection is replaced. Records failing validation are skipped and
// reported, never fatal.
func (s *Store) Import(data []byte, format Format, merge bool) (*ImportResult, error) {
	servers, err := ParseImport(data, format)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var file storeFile
	if merge {
		file, err = s.load()
		if err != nil {
			return nil, err
		}
	}

	result := &ImportResult{Errors: []string{}}
	for _, server := range servers {
		if merge && containsName(file.Servers, server.Name) {
			result.SkippedCount++
			result.Errors = append(result.Errors,
				fmt.Sprintf("Skipped '%s': already exists", server.Name))
			continue
		}
		if err := server.Validate(); err != nil {
			result.SkippedCount++
			result.Errors = append(result.Errors,
				fmt.Sprintf("Skipped '%s': %v", server.Name, err))
			continue
		}
		file.Servers = append(file.Servers, server)
		result.ImportedCount++
	}

	if err := s.save(file); err != nil {
		return nil, err
	}

	result.Success = result.ImportedCount > 0 || result.SkippedCount == 0
	result.Servers = file.Servers
	s.logger.Info("servers imported",
		"imported", result.ImportedCount, "skipped", result.SkippedCount)
	return result, nil
}

// ImportFile imports records from a file, picking the encoding from its
// extension.
func (s *Store) ImportFile(path string, merge bool) (*ImportResult, error) {
	const op = "store.Store.ImportFile"

	data, err := fileutil.ReadFileLimited(path, maxImportSize)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf(op, "file not found: %s", path)
		}
		return nil, errors.IOWrap(err, op, "failed to read import file")
	}
	return s.Import(data, FormatForPath(path), merge)
}

// exportEnvelope is the native export shape.
type exportEnvelope struct {
	Version    int            `json:"version" yaml:"version"`
	Source     string         `json:"source" yaml:"source"`
	ExportedAt int64          `json:"exportedAt" yaml:"exportedAt"`
	Servers    []ServerRecord `json:"servers" yaml:"servers"`
}

// Export encodes the whole collection in the native envelope.
func (s *Store) Export(format Format) ([]byte, error) {
	const op = "store.Store.Export"

	servers, err := s.List()
	if err != nil {
		return nil, err
	}

	envelope := exportEnvelope{
		Version:    storeVersion,
		Source:     exportSource,
		ExportedAt: time.Now().Unix(),
		Servers:    servers,
	}

	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(envelope)
		if err != nil {
			return nil, errors.IOWrap(err, op, "failed to encode yaml export")
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return nil, errors.IOWrap(err, op, "failed to encode json export")
		}
		return data, nil
	}
}

// ExportFile writes the native export to a file.
func (s *Store) ExportFile(path string) (*ExportResult, error) {
	const op = "store.Store.ExportFile"

	data, err := s.Export(FormatForPath(path))
	if err != nil {
		return nil, err
	}
	servers, err := s.List()
	if err != nil {
		return nil, err
	}
	if err := fileutil.AtomicWriteFile(path, data, 0o644); err != nil {
		return nil, errors.IOWrap(err, op, "failed to write export file")
	}

	s.logger.Info("servers exported", "path", path, "count", len(servers))
	return &ExportResult{Success: true, FilePath: path, ServerCount: len(servers)}, nil
}

// ExportClaudeFormat encodes the collection as a Claude Desktop mcpServers
// object, keyed by server name.
func (s *Store) ExportClaudeFormat() ([]byte, error) {
	const op = "store.Store.ExportClaudeFormat"

	servers, err := s.List()
	if err != nil {
		return nil, err
	}

	mcpServers := make(map[string]ClaudeDesktopServer, len(servers))
	for _, rec := range servers {
		mcpServers[rec.Name] = ClaudeDesktopServer{
			Command: rec.Command,
			Args:    rec.Args,
			Env:     rec.Env,
			URL:     rec.URL,
			Headers: rec.Headers,
		}
	}

	data, err := json.MarshalIndent(map[string]any{"mcpServers": mcpServers}, "", "  ")
	if err != nil {
		return nil, errors.IOWrap(err, op, "failed to encode claude format export")
	}
	return data, nil
}

func containsName(servers []ServerRecord, name string) bool {
	for _, rec := range servers {
		if rec.Name == name {
			return true
		}
	}
	return false
}
