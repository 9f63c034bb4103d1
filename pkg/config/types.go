package config

import (
	"fmt"
	"os"
	"strings"
)

// AuthUser is a basic-auth user passed through to the file server.
// PasswordHash is the lowercase SHA-512 hex digest of the password;
// the plaintext is never stored.
type AuthUser struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// Profile is a named tunnel + serve configuration persisted in the store.
// Runtime state (child processes, session status) is never persisted.
type Profile struct {
	Name string `yaml:"name"`

	// SSH settings. SSHPort 0 means the client default.
	Host      string   `yaml:"host"`
	SSHPort   int      `yaml:"ssh_port,omitempty"`
	Username  string   `yaml:"username,omitempty"`
	KeyFile   string   `yaml:"key_file,omitempty"`
	JumpHosts []string `yaml:"jump_hosts,omitempty"`

	// Port forward: RemotePort listens on the server and is forwarded
	// down to LocalPort, where the file server binds.
	RemotePort int `yaml:"remote_port"`
	LocalPort  int `yaml:"local_port"`

	// Dir is the directory served by default; `up --dir` overrides it
	// for a single run. Existence is checked at launch, not at save.
	Dir string `yaml:"dir,omitempty"`

	// ConnectCommands run locally, in order, before the SSH attempt
	// (port-knocking sequences). A non-zero exit aborts the launch.
	ConnectCommands []string `yaml:"connect_commands,omitempty"`

	Users  []AuthUser `yaml:"users,omitempty"`
	Upload bool       `yaml:"upload,omitempty"`
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// Validate checks the invariants a profile must satisfy before it is
// saved. Launch-time checks (serve directory, port availability) live
// with the launchers.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if strings.TrimSpace(p.Name) != p.Name {
		return fmt.Errorf("profile name %q contains leading/trailing whitespace", p.Name)
	}
	if p.Host == "" {
		return fmt.Errorf("profile %q: SSH host must not be empty", p.Name)
	}
	if p.SSHPort != 0 && !validPort(p.SSHPort) {
		return fmt.Errorf("profile %q: invalid SSH port %d", p.Name, p.SSHPort)
	}
	if !validPort(p.RemotePort) {
		return fmt.Errorf("profile %q: invalid remote port %d", p.Name, p.RemotePort)
	}
	if !validPort(p.LocalPort) {
		return fmt.Errorf("profile %q: invalid local port %d", p.Name, p.LocalPort)
	}
	seen := make(map[string]bool)
	for _, u := range p.Users {
		if u.Name == "" {
			return fmt.Errorf("profile %q: auth user with empty name", p.Name)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("profile %q: auth user %q has no password hash", p.Name, u.Name)
		}
		if seen[u.Name] {
			return fmt.Errorf("profile %q: duplicate auth user %q", p.Name, u.Name)
		}
		seen[u.Name] = true
	}
	return nil
}

// CheckServeDir verifies the directory a run would serve. Used by `up`
// right before launching, so a stale profile fails before any child is
// spawned.
func CheckServeDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("serve directory %q does not exist", dir)
		}
		return fmt.Errorf("cannot access serve directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("serve path %q is not a directory", dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("serve directory %q is not readable: %w", dir, err)
	}
	f.Close()
	return nil
}
