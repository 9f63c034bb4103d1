package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validProfile() Profile {
	return Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  8080,
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"valid minimal", func(p *Profile) {}, false},
		{"valid full", func(p *Profile) {
			p.SSHPort = 2222
			p.Username = "deploy"
			p.KeyFile = "~/.ssh/id_ed25519"
			p.JumpHosts = []string{"bastion.example.com"}
			p.ConnectCommands = []string{"knock example.com 7000 8000 9000"}
			p.Users = []AuthUser{{Name: "alice", PasswordHash: "abc123"}}
			p.Upload = true
		}, false},
		{"empty name", func(p *Profile) { p.Name = "" }, true},
		{"whitespace name", func(p *Profile) { p.Name = " blog " }, true},
		{"empty host", func(p *Profile) { p.Host = "" }, true},
		{"ssh port zero is default", func(p *Profile) { p.SSHPort = 0 }, false},
		{"ssh port out of range", func(p *Profile) { p.SSHPort = 65536 }, true},
		{"remote port zero", func(p *Profile) { p.RemotePort = 0 }, true},
		{"remote port negative", func(p *Profile) { p.RemotePort = -1 }, true},
		{"local port too large", func(p *Profile) { p.LocalPort = 70000 }, true},
		{"equal ports are fine", func(p *Profile) { p.RemotePort = 8080 }, false},
		{"user without name", func(p *Profile) {
			p.Users = []AuthUser{{Name: "", PasswordHash: "abc"}}
		}, true},
		{"user without hash", func(p *Profile) {
			p.Users = []AuthUser{{Name: "alice", PasswordHash: ""}}
		}, true},
		{"duplicate users", func(p *Profile) {
			p.Users = []AuthUser{
				{Name: "alice", PasswordHash: "a"},
				{Name: "alice", PasswordHash: "b"},
			}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestCheckServeDir(t *testing.T) {
	dir := t.TempDir()

	if err := CheckServeDir(dir); err != nil {
		t.Errorf("CheckServeDir(%q) = %v, want nil", dir, err)
	}

	if err := CheckServeDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("CheckServeDir on missing path = nil, want error")
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := CheckServeDir(file); err == nil {
		t.Error("CheckServeDir on regular file = nil, want error")
	}
}
