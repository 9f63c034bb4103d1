package serve

import (
	"errors"
	"net"
	"reflect"
	"testing"

	"livetunnel/pkg/config"
)

func TestHashPassword(t *testing.T) {
	// Known SHA-512 vector; miniserve expects the lowercase hex form.
	got := HashPassword("hunter2")
	want := "6b97ed68d14eb3f1aa959ce5d49c7dc612e1eb1dafd73b1e705847483fd6a6c809f2ceb4e8df6ff9984c6298ff0285cace6614bf8daa9f0070101b6c89899e22"
	if got != want {
		t.Errorf("HashPassword(hunter2) = %s, want %s", got, want)
	}

	if HashPassword("a") == HashPassword("b") {
		t.Error("different passwords produced the same hash")
	}
}

func TestServeArgs(t *testing.T) {
	p := config.Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  8080,
		Users: []config.AuthUser{
			{Name: "alice", PasswordHash: "aaaa"},
			{Name: "bob", PasswordHash: "bbbb"},
		},
	}

	tests := []struct {
		name   string
		upload bool
		secure bool
		want   []string
	}{
		{
			"plain",
			false, false,
			[]string{"-H", "-i", "127.0.0.1", "-p", "8080", "/srv/blog"},
		},
		{
			"secure",
			false, true,
			[]string{
				"-H", "-i", "127.0.0.1", "-p", "8080",
				"-a", "alice:sha512:aaaa",
				"-a", "bob:sha512:bbbb",
				"/srv/blog",
			},
		},
		{
			"upload",
			true, false,
			[]string{"-H", "-i", "127.0.0.1", "-p", "8080", "-u", "/srv/blog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prof := p
			prof.Upload = tt.upload
			got := serveArgs(prof, "/srv/blog", tt.secure)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("serveArgs() =\n  %v\nwant\n  %v", got, tt.want)
			}
		})
	}
}

// Auth credentials must never leak into the argv unless secure is set.
func TestServeArgsNoAuthWithoutSecure(t *testing.T) {
	p := config.Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  8080,
		Users:      []config.AuthUser{{Name: "alice", PasswordHash: "aaaa"}},
	}
	for _, arg := range serveArgs(p, "/srv/blog", false) {
		if arg == "-a" {
			t.Fatal("auth argument present without --secure")
		}
	}
}

func TestIsPortAvailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port

	if isPortAvailable(port) {
		t.Errorf("port %d reported available while held", port)
	}

	l.Close()
	if !isPortAvailable(port) {
		t.Errorf("port %d reported unavailable after release", port)
	}
}

// A taken port must fail before miniserve is ever spawned.
func TestStartRejectsTakenPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	p := config.Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  port,
	}
	_, err = Start(t.Context(), p, t.TempDir(), false)
	if err == nil {
		t.Fatal("Start on taken port = nil, want error")
	}
	var serveErr *ServeError
	if !errors.As(err, &serveErr) {
		t.Errorf("error type = %T, want *ServeError", err)
	}
	if !errors.Is(err, ErrPortInUse) {
		t.Errorf("error = %v, want ErrPortInUse in chain", err)
	}
}
