// Package serve starts the external static-file server (miniserve)
// bound to the forwarded local port.
package serve

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"livetunnel/pkg/config"
	"livetunnel/pkg/logging"
	"livetunnel/pkg/proc"
)

// serveBinary is resolved through PATH.
const serveBinary = "miniserve"

// Sentinel error for the pre-launch port check.
var ErrPortInUse = errors.New("local port already in use")

// startupGrace mirrors the tunnel's: a server that binds successfully
// survives it, one that finds the port taken or a bad directory exits.
const startupGrace = 1 * time.Second

// ServeError is a failure to get the file server running.
type ServeError struct {
	Err error
}

func (e *ServeError) Error() string {
	return fmt.Sprintf("file server failed: %v", e.Err)
}

func (e *ServeError) Unwrap() error {
	return e.Err
}

// HashPassword returns the lowercase SHA-512 hex digest of plain, the
// format miniserve expects in `user:sha512:<hex>` auth arguments.
func HashPassword(plain string) string {
	sum := sha512.Sum512([]byte(plain))
	return fmt.Sprintf("%x", sum)
}

// isPortAvailable checks whether we can listen on 127.0.0.1:port.
func isPortAvailable(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		logging.Debugf("port check: cannot listen on 127.0.0.1:%d: %v", port, err)
		return false
	}
	_ = l.Close()
	return true
}

// serveArgs builds the miniserve argv. Auth users are only passed when
// secure is set; dir is the resolved serve directory, which may differ
// from the profile's when overridden for a single run.
func serveArgs(p config.Profile, dir string, secure bool) []string {
	// -H shows hidden files, -i pins the interface: only the tunnel
	// should reach the server, never the LAN.
	args := []string{"-H", "-i", "127.0.0.1", "-p", strconv.Itoa(p.LocalPort)}
	if secure {
		for _, u := range p.Users {
			args = append(args, "-a", fmt.Sprintf("%s:sha512:%s", u.Name, u.PasswordHash))
		}
	}
	if p.Upload {
		args = append(args, "-u")
	}
	return append(args, dir)
}

// Start validates the directory and port, then spawns the file server.
func Start(ctx context.Context, p config.Profile, dir string, secure bool) (*proc.Handle, error) {
	if err := config.CheckServeDir(dir); err != nil {
		return nil, &ServeError{Err: err}
	}
	if !isPortAvailable(p.LocalPort) {
		return nil, &ServeError{Err: fmt.Errorf("%w: 127.0.0.1:%d", ErrPortInUse, p.LocalPort)}
	}

	args := serveArgs(p, dir, secure)
	logging.Debugf("starting file server: %s %s", serveBinary, strings.Join(args, " "))

	h, err := proc.Start(ctx, "miniserve", serveBinary, args...)
	if err != nil {
		return nil, &ServeError{Err: err}
	}
	if err := h.WaitStable(startupGrace); err != nil {
		return nil, &ServeError{Err: err}
	}

	logging.Infof("file server up: serving %s on 127.0.0.1:%d", dir, p.LocalPort)
	return h, nil
}
