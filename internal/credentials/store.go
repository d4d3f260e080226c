// Package credentials keeps connection passwords in the OS keyring so that
// config files can leave them out.
package credentials

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"

	"github.com/rebeliceyang/lazydb/internal/models"
)

const serviceName = "lazydb"

// ErrPasswordNotFound is returned when the keyring holds no password for a descriptor
var ErrPasswordNotFound = errors.New("password not found in keyring")

// ErrNoCredentials is returned for descriptors that never carry a password
var ErrNoCredentials = errors.New("connection does not use a password")

// PasswordStore reads and writes passwords in the platform keyring
type PasswordStore struct {
	service string
}

// NewPasswordStore creates a store under the lazydb service name
func NewPasswordStore() *PasswordStore {
	return &PasswordStore{service: serviceName}
}

// Save stores password for d. Empty passwords are not stored.
func (ps *PasswordStore) Save(d models.ConnectionDescriptor, password string) error {
	if !usesPassword(d) {
		return ErrNoCredentials
	}
	if password == "" {
		return nil
	}
	if err := keyring.Set(ps.service, Key(d), password); err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}

// Get returns the stored password for d
func (ps *PasswordStore) Get(d models.ConnectionDescriptor) (string, error) {
	if !usesPassword(d) {
		return "", ErrNoCredentials
	}
	password, err := keyring.Get(ps.service, Key(d))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return password, nil
}

// Delete removes the stored password for d. A missing entry is not an error.
func (ps *PasswordStore) Delete(d models.ConnectionDescriptor) error {
	if !usesPassword(d) {
		return ErrNoCredentials
	}
	err := keyring.Delete(ps.service, Key(d))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// Fill returns a copy of descriptors where network connections without a
// configured password take the one stored in the keyring. Lookup failures
// leave the descriptor unchanged.
func (ps *PasswordStore) Fill(descriptors []models.ConnectionDescriptor, logger *slog.Logger) []models.ConnectionDescriptor {
	if logger == nil {
		logger = slog.Default()
	}
	filled := make([]models.ConnectionDescriptor, len(descriptors))
	copy(filled, descriptors)

	for i, d := range filled {
		if d.Password != "" || !usesPassword(d) {
			continue
		}
		password, err := ps.Get(d)
		switch {
		case err == nil:
			filled[i].Password = password
			logger.Debug("password loaded from keyring", "connection", d.ID)
		case errors.Is(err, ErrPasswordNotFound):
		default:
			logger.Warn("keyring lookup failed", "connection", d.ID, "error", err)
		}
	}
	return filled
}

// Key identifies the keyring entry of a descriptor: engine, user, endpoint
// and database, so that two configs pointing at the same target share it.
func Key(d models.ConnectionDescriptor) string {
	endpoint := d.UnixSocket
	if endpoint == "" {
		port := d.Port
		if port == 0 {
			port = d.Engine.DefaultPort()
		}
		endpoint = fmt.Sprintf("%s:%d", d.Host, port)
	}
	return fmt.Sprintf("%s://%s@%s/%s", d.Engine, d.User, endpoint, d.Database)
}

func usesPassword(d models.ConnectionDescriptor) bool {
	return d.Engine != models.EngineSQLite && d.User != ""
}
