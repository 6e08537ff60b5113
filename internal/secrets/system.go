package secrets

import (
	stderrors "errors"

	"github.com/charmbracelet/log"
	keyring "github.com/zalando/go-keyring"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// SystemKeyring stores credentials in the operating system credential
// manager (Keychain on macOS, Secret Service on Linux, Credential Manager
// on Windows).
type SystemKeyring struct {
	service string
	logger  *log.Logger
}

var _ Keyring = (*SystemKeyring)(nil)

// NewSystemKeyring creates a keyring backed by the OS credential manager.
func NewSystemKeyring(logger *log.Logger) *SystemKeyring {
	if logger == nil {
		logger = log.Default()
	}
	return &SystemKeyring{service: Service, logger: logger}
}

// Save stores or replaces the credential for a provider.
func (k *SystemKeyring) Save(provider, apiKey string) error {
	const op = "secrets.SystemKeyring.Save"

	if provider == "" {
		return errors.Validation(op, "provider name is required")
	}
	if err := keyring.Set(k.service, provider, apiKey); err != nil {
		return errors.SecretWrap(err, op, "failed to store key")
	}

	// The key itself never reaches the log.
	k.logger.Info("API key saved", "provider", provider)
	return nil
}

// Get returns the credential for a provider.
func (k *SystemKeyring) Get(provider string) (string, bool, error) {
	const op = "secrets.SystemKeyring.Get"

	apiKey, err := keyring.Get(k.service, provider)
	if err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, errors.SecretWrap(err, op, "failed to read key")
	}
	return apiKey, true, nil
}

// Delete removes the credential for a provider.
func (k *SystemKeyring) Delete(provider string) error {
	const op = "secrets.SystemKeyring.Delete"

	if err := keyring.Delete(k.service, provider); err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return errors.SecretWrap(err, op, "failed to delete key")
	}

	k.logger.Info("API key deleted", "provider", provider)
	return nil
}

// Open returns the OS credential manager when one is reachable, falling
// back to the file-backed keyring on headless hosts.
func Open(fallbackPath string, logger *log.Logger) Keyring {
	if logger == nil {
		logger = log.Default()
	}
	if systemKeyringAvailable() {
		return NewSystemKeyring(logger)
	}
	logger.Warn("OS credential manager unavailable, using file-backed keyring", "path", fallbackPath)
	return NewFileKeyring(fallbackPath, logger)
}

// systemKeyringAvailable checks whether the credential manager answers a
// read. A missing entry means the backend responded; any other failure
// means it is unreachable (no D-Bus session, unsupported platform).
var systemKeyringAvailable = func() bool {
	_, err := keyring.Get(Service, "availability-check")
	return err == nil || stderrors.Is(err, keyring.ErrNotFound)
}
