// Package tunnel establishes the SSH remote port-forward by spawning
// the system ssh client. Authentication, encryption and forwarding
// correctness are the client's problem; this package only builds the
// argv, runs any connect-commands first, and watches the process.
package tunnel

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"livetunnel/pkg/config"
	"livetunnel/pkg/logging"
	"livetunnel/pkg/proc"
)

// sshBinary is resolved through PATH.
const sshBinary = "ssh"

// startupGrace is how long the ssh process must survive before the
// forward is considered established. With ExitOnForwardFailure set, a
// refused connection, failed auth or taken remote port all exit within
// this window.
const startupGrace = 2 * time.Second

// ConnectError is any failure on the way to an established tunnel:
// a connect-command exiting non-zero, or the ssh client dying early.
type ConnectError struct {
	Stage string
	Err   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect failed (%s): %v", e.Stage, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// splitCommand splits a connect-command line into program and
// arguments on whitespace. No shell is involved.
func splitCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// RunConnectCommands runs the profile's connect-commands in order,
// synchronously. The first failure aborts: the tunnel must never be
// attempted after a failed knock.
func RunConnectCommands(ctx context.Context, commands []string) error {
	for i, line := range commands {
		program, args := splitCommand(line)
		if program == "" {
			continue
		}
		stage := fmt.Sprintf("connect-command %d/%d: %s", i+1, len(commands), line)
		logging.Debugf("running %s", stage)

		out, err := exec.CommandContext(ctx, program, args...).CombinedOutput()
		if err != nil {
			if len(out) > 0 {
				err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
			}
			return &ConnectError{Stage: stage, Err: err}
		}
	}
	return nil
}

// sshArgs builds the ssh argv for a profile's remote forward.
func sshArgs(p config.Profile) []string {
	args := []string{
		"-N",
		"-o", "ExitOnForwardFailure=yes",
		"-o", "ServerAliveInterval=15",
		"-o", "ServerAliveCountMax=3",
		"-R", fmt.Sprintf("%d:127.0.0.1:%d", p.RemotePort, p.LocalPort),
	}
	if p.SSHPort != 0 {
		args = append(args, "-p", strconv.Itoa(p.SSHPort))
	}
	if p.Username != "" {
		args = append(args, "-l", p.Username)
	}
	if p.KeyFile != "" {
		args = append(args, "-i", p.KeyFile)
	}
	if len(p.JumpHosts) > 0 {
		args = append(args, "-J", strings.Join(p.JumpHosts, ","))
	}
	return append(args, p.Host)
}

// Establish runs the profile's connect-commands and then spawns the
// ssh client with the remote forward. The returned handle outlives
// this call; the caller owns teardown via Stop.
func Establish(ctx context.Context, p config.Profile) (*proc.Handle, error) {
	if err := RunConnectCommands(ctx, p.ConnectCommands); err != nil {
		return nil, err
	}

	args := sshArgs(p)
	logging.Debugf("establishing tunnel: %s %s", sshBinary, strings.Join(args, " "))

	h, err := proc.Start(ctx, "ssh tunnel", sshBinary, args...)
	if err != nil {
		return nil, &ConnectError{Stage: "ssh", Err: err}
	}
	if err := h.WaitStable(startupGrace); err != nil {
		return nil, &ConnectError{Stage: "ssh", Err: err}
	}

	logging.Infof("tunnel up: remote %s:%d -> 127.0.0.1:%d", p.Host, p.RemotePort, p.LocalPort)
	return h, nil
}
