// Package secrets stores AI provider credentials. Keys are held in a
// file-backed keyring readable only by the owning user.
package secrets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/fileutil"
)

// Service is the account name credentials are stored under.
const Service = "sast-readium"

// Keyring stores one credential per provider name.
type Keyring interface {
	// Save stores or replaces the credential for a provider.
	Save(provider, apiKey string) error
	// Get returns the credential for a provider. A missing entry is not an
	// error; ok reports whether one exists.
	Get(provider string) (apiKey string, ok bool, err error)
	// Delete removes the credential for a provider. Deleting a missing
	// entry succeeds.
	Delete(provider string) error
}

// FileKeyring keeps credentials in a JSON file with owner-only permissions.
type FileKeyring struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

var _ Keyring = (*FileKeyring)(nil)

// NewFileKeyring creates a keyring backed by the given file.
func NewFileKeyring(path string, logger *log.Logger) *FileKeyring {
	if logger == nil {
		logger = log.Default()
	}
	return &FileKeyring{path: path, logger: logger}
}

func (k *FileKeyring) load() (map[string]string, error) {
	const op = "secrets.FileKeyring.load"

	data, err := os.ReadFile(k.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.SecretWrap(err, op, "failed to read keyring")
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.SecretWrap(err, op, "keyring file is corrupt")
	}
	return entries, nil
}

func (k *FileKeyring) save(entries map[string]string) error {
	const op = "secrets.FileKeyring.save"

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.SecretWrap(err, op, "failed to encode keyring")
	}
	if err := fileutil.EnsureDir(filepath.Dir(k.path)); err != nil {
		return errors.SecretWrap(err, op, "failed to create keyring directory")
	}
	if err := fileutil.AtomicWriteFile(k.path, data, 0o600); err != nil {
		return errors.SecretWrap(err, op, "failed to write keyring")
	}
	return nil
}

// Save stores or replaces the credential for a provider.
func (k *FileKeyring) Save(provider, apiKey string) error {
	const op = "secrets.FileKeyring.Save"

	if provider == "" {
		return errors.Validation(op, "provider name is required")
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	entries, err := k.load()
	if err != nil {
		return err
	}
	entries[provider] = apiKey
	if err := k.save(entries); err != nil {
		return err
	}

	// The key itself never reaches the log.
	k.logger.Info("API key saved", "provider", provider)
	return nil
}

// Get returns the credential for a provider.
func (k *FileKeyring) Get(provider string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entries, err := k.load()
	if err != nil {
		return "", false, err
	}
	apiKey, ok := entries[provider]
	return apiKey, ok, nil
}

// Delete removes the credential for a provider.
func (k *FileKeyring) Delete(provider string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	entries, err := k.load()
	if err != nil {
		return err
	}
	if _, ok := entries[provider]; !ok {
		return nil
	}
	delete(entries, provider)
	if err := k.save(entries); err != nil {
		return err
	}

	k.logger.Info("API key deleted", "provider", provider)
	return nil
}
