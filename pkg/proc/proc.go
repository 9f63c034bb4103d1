// Package proc launches and supervises the long-lived child processes
// (the ssh client and the file server). Both launchers share the same
// skeleton: spawn with stderr captured, verify the process survives a
// short grace period, and stop with SIGTERM before falling back to kill.
package proc

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"livetunnel/pkg/logging"
)

// stopTimeout is how long Stop waits after SIGTERM before killing.
const stopTimeout = 3 * time.Second

// tailBuffer keeps the last max bytes written, so error messages carry
// the end of a child's stderr without unbounded growth.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Handle is a running child process.
type Handle struct {
	name    string
	cmd     *exec.Cmd
	stderr  *tailBuffer
	done    chan struct{}
	waitErr error

	stopMu  sync.Mutex
	stopped bool
}

// Start spawns program with args. name labels the child in logs and
// errors ("ssh tunnel", "miniserve"). Stdin and stdout are discarded;
// stderr is captured for diagnostics.
func Start(ctx context.Context, name, program string, args ...string) (*Handle, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	stderr := &tailBuffer{max: 4096}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = stderr
	// CommandContext kills on ctx cancel; Stop is the graceful path and
	// runs first in every teardown we control.
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s (%s): %w", name, program, err)
	}
	logging.Debugf("started %s: pid %d", name, cmd.Process.Pid)

	h := &Handle{
		name:   name,
		cmd:    cmd,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
		logging.Debugf("%s exited: %v", name, h.waitErr)
	}()
	return h, nil
}

// WaitStable returns an error if the child exits within the grace
// period, carrying the stderr tail. A child that survives the grace
// period is considered up.
func (h *Handle) WaitStable(grace time.Duration) error {
	select {
	case <-h.done:
		msg := h.stderr.String()
		if msg != "" {
			return fmt.Errorf("%s exited immediately: %s", h.name, msg)
		}
		return fmt.Errorf("%s exited immediately: %v", h.name, h.waitErr)
	case <-time.After(grace):
		return nil
	}
}

// Done is closed once the child has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the child's exit error. Only meaningful after Done.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.waitErr
	default:
		return nil
	}
}

// Stderr returns the captured stderr tail.
func (h *Handle) Stderr() string {
	return h.stderr.String()
}

// Stopped reports whether Stop has been called, so exits we requested
// are not reported as failures.
func (h *Handle) Stopped() bool {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	return h.stopped
}

// Stop terminates the child: SIGTERM, then SIGKILL after a timeout.
// Returns once the process has been reaped. Safe to call more than
// once and after the child has already exited.
func (h *Handle) Stop() error {
	h.stopMu.Lock()
	h.stopped = true
	h.stopMu.Unlock()

	select {
	case <-h.done:
		return nil
	default:
	}

	logging.Debugf("stopping %s (pid %d)", h.name, h.cmd.Process.Pid)
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone, or signalling unsupported: fall back to kill.
		_ = h.cmd.Process.Kill()
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(stopTimeout):
		logging.Errorf("%s did not exit after SIGTERM, killing", h.name)
		if err := h.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill %s: %w", h.name, err)
		}
		<-h.done
		return nil
	}
}

func (h *Handle) String() string {
	return h.name
}
