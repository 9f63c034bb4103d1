// Package session links the two children of a run: the session is up
// while both the tunnel and the file server are up, and the first one
// to die takes the other down with it.
package session

import (
	"context"
	"fmt"

	"livetunnel/pkg/logging"
)

// Child is a supervised child process. Satisfied by *proc.Handle.
type Child interface {
	// Done is closed once the child has exited.
	Done() <-chan struct{}
	// Err is the exit error, meaningful after Done.
	Err() error
	// Stop terminates the child and reaps it.
	Stop() error
	String() string
}

// Run supervises an established tunnel and a running file server until
// either exits or ctx is cancelled. Both children are stopped and
// reaped before Run returns. A cancelled ctx (user interrupt) is a
// clean stop and returns nil; a child dying on its own returns an
// error naming it.
func Run(ctx context.Context, tunnel, server Child) error {
	defer func() {
		// Stop is idempotent; make sure nothing survives this call.
		_ = tunnel.Stop()
		_ = server.Stop()
	}()

	select {
	case <-ctx.Done():
		logging.Infof("session cancelled, stopping children")
		return nil

	case <-tunnel.Done():
		logging.Errorf("%s exited: %v", tunnel, tunnel.Err())
		return childError(tunnel)

	case <-server.Done():
		logging.Errorf("%s exited: %v", server, server.Err())
		return childError(server)
	}
}

func childError(c Child) error {
	if err := c.Err(); err != nil {
		return fmt.Errorf("%s exited: %w", c, err)
	}
	return fmt.Errorf("%s exited unexpectedly", c)
}
