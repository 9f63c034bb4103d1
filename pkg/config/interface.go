package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel error for profile lookups by name.
var ErrProfileNotFound = errors.New("profile not found")

// Store is the backend interface for profile persistence.
type Store interface {
	// Get returns the profile with the given name, or ErrProfileNotFound.
	Get(name string) (Profile, error)
	// Save validates and inserts or replaces a profile.
	Save(p Profile) error
	// List returns all profiles sorted by name.
	List() ([]Profile, error)
	// Delete removes the named profile, or returns ErrProfileNotFound.
	Delete(name string) error
	Close() error
}

// Backend names accepted by NewStore.
const (
	BackendSQLite = "sqlite"
	BackendYAML   = "yaml"
)

// DefaultDir returns the config directory, ~/.livetunnel unless overridden.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".livetunnel"), nil
}

// NewStore opens the profile store for the given backend under dir.
func NewStore(backend, dir string) (Store, error) {
	switch backend {
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "livetunnel.db"))
	case BackendYAML:
		return NewYAMLStore(filepath.Join(dir, "profiles.yaml"))
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %q or %q)", backend, BackendSQLite, BackendYAML)
	}
}
