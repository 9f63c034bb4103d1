package tunnel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"livetunnel/pkg/config"
)

func TestSSHArgs(t *testing.T) {
	base := config.Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  8080,
	}

	tests := []struct {
		name   string
		mutate func(*config.Profile)
		want   []string
	}{
		{
			"minimal",
			func(p *config.Profile) {},
			[]string{
				"-N",
				"-o", "ExitOnForwardFailure=yes",
				"-o", "ServerAliveInterval=15",
				"-o", "ServerAliveCountMax=3",
				"-R", "9000:127.0.0.1:8080",
				"example.com",
			},
		},
		{
			"all options",
			func(p *config.Profile) {
				p.SSHPort = 2222
				p.Username = "deploy"
				p.KeyFile = "/home/u/.ssh/id_ed25519"
				p.JumpHosts = []string{"jump1", "jump2"}
			},
			[]string{
				"-N",
				"-o", "ExitOnForwardFailure=yes",
				"-o", "ServerAliveInterval=15",
				"-o", "ServerAliveCountMax=3",
				"-R", "9000:127.0.0.1:8080",
				"-p", "2222",
				"-l", "deploy",
				"-i", "/home/u/.ssh/id_ed25519",
				"-J", "jump1,jump2",
				"example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			got := sshArgs(p)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sshArgs() =\n  %v\nwant\n  %v", got, tt.want)
			}
		})
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line    string
		program string
		args    []string
	}{
		{"knock example.com 7000 8000", "knock", []string{"example.com", "7000", "8000"}},
		{"true", "true", []string{}},
		{"  spaced   out  ", "spaced", []string{"out"}},
		{"", "", nil},
		{"   ", "", nil},
	}

	for _, tt := range tests {
		program, args := splitCommand(tt.line)
		if program != tt.program {
			t.Errorf("splitCommand(%q) program = %q, want %q", tt.line, program, tt.program)
		}
		if len(args) != len(tt.args) {
			t.Errorf("splitCommand(%q) args = %v, want %v", tt.line, args, tt.args)
			continue
		}
		for i := range args {
			if args[i] != tt.args[i] {
				t.Errorf("splitCommand(%q) args = %v, want %v", tt.line, args, tt.args)
				break
			}
		}
	}
}

func TestRunConnectCommandsSuccess(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "knocked")

	err := RunConnectCommands(context.Background(), []string{
		"true",
		"mkdir " + marker,
	})
	if err != nil {
		t.Fatalf("RunConnectCommands: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("second command did not run: %v", err)
	}
}

func TestRunConnectCommandsFailureAborts(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "should-not-exist")

	err := RunConnectCommands(context.Background(), []string{
		"false",
		"mkdir " + marker,
	})
	if err == nil {
		t.Fatal("RunConnectCommands = nil, want error")
	}

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Errorf("error type = %T, want *ConnectError", err)
	}

	// The failed knock must stop the sequence.
	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Error("command after the failing one was executed")
	}
}

func TestRunConnectCommandsEmptyLinesSkipped(t *testing.T) {
	if err := RunConnectCommands(context.Background(), []string{"", "   ", "true"}); err != nil {
		t.Errorf("RunConnectCommands with blank lines: %v", err)
	}
}

// Establish must never reach ssh when a connect-command fails.
func TestEstablishAbortsOnConnectCommandFailure(t *testing.T) {
	p := config.Profile{
		Name:            "blog",
		Host:            "example.invalid",
		RemotePort:      9000,
		LocalPort:       8080,
		ConnectCommands: []string{"false"},
	}

	_, err := Establish(context.Background(), p)
	if err == nil {
		t.Fatal("Establish = nil, want error")
	}
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("error type = %T, want *ConnectError", err)
	}
	if connErr.Stage == "ssh" {
		t.Error("failure attributed to ssh, want connect-command stage")
	}
}
