package ui

import (
	"context"
	"fmt"
	"strings"

	"livetunnel/pkg/config"
	"livetunnel/pkg/proc"
	"livetunnel/pkg/serve"
	"livetunnel/pkg/session"
	"livetunnel/pkg/tunnel"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run view lifecycle. Launch steps happen in order; the session step
// lasts until a child dies or the user quits.
type runState int

const (
	stateEstablishing runState = iota
	stateStartingServer
	stateRunning
	stateStopping
	stateDone
)

type tunnelUpMsg struct{ h *proc.Handle }
type serveUpMsg struct{ h *proc.Handle }
type launchFailedMsg struct{ err error }
type sessionDoneMsg struct{ err error }
type teardownDoneMsg struct{}

// RunModel drives one `up` invocation: connect-commands, tunnel, file
// server, then supervision, as a sequence of bubbletea commands.
type RunModel struct {
	ctx    context.Context
	cancel context.CancelFunc

	profile config.Profile
	dir     string
	secure  bool

	spin    spinner.Model
	state   runState
	tunnelH *proc.Handle
	serveH  *proc.Handle
	err     error
}

// NewRunModel prepares the run view. dir is the resolved serve
// directory; ctx cancellation (e.g. SIGINT) stops the session.
func NewRunModel(ctx context.Context, p config.Profile, dir string, secure bool) *RunModel {
	runCtx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusedStyle
	return &RunModel{
		ctx:     runCtx,
		cancel:  cancel,
		profile: p,
		dir:     dir,
		secure:  secure,
		spin:    sp,
	}
}

func (m *RunModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.establishCmd())
}

func (m *RunModel) establishCmd() tea.Cmd {
	return func() tea.Msg {
		h, err := tunnel.Establish(m.ctx, m.profile)
		if err != nil {
			return launchFailedMsg{err: err}
		}
		return tunnelUpMsg{h: h}
	}
}

func (m *RunModel) serveCmd() tea.Cmd {
	return func() tea.Msg {
		h, err := serve.Start(m.ctx, m.profile, m.dir, m.secure)
		if err != nil {
			return launchFailedMsg{err: err}
		}
		return serveUpMsg{h: h}
	}
}

func (m *RunModel) superviseCmd() tea.Cmd {
	t, s := m.tunnelH, m.serveH
	return func() tea.Msg {
		return sessionDoneMsg{err: session.Run(m.ctx, t, s)}
	}
}

// teardownCmd stops whatever children exist after a mid-launch
// failure; the supervised path tears down inside session.Run.
func (m *RunModel) teardownCmd() tea.Cmd {
	t, s := m.tunnelH, m.serveH
	return func() tea.Msg {
		if s != nil {
			_ = s.Stop()
		}
		if t != nil {
			_ = t.Stop()
		}
		return teardownDoneMsg{}
	}
}

func (m *RunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			if m.state == stateRunning {
				// session.Run notices the cancel and reports back.
				m.state = stateStopping
				return m, nil
			}
			if m.state < stateRunning {
				m.state = stateStopping
				return m, m.teardownCmd()
			}
		}
		return m, nil

	case tunnelUpMsg:
		m.tunnelH = msg.h
		m.state = stateStartingServer
		return m, m.serveCmd()

	case serveUpMsg:
		m.serveH = msg.h
		m.state = stateRunning
		return m, m.superviseCmd()

	case launchFailedMsg:
		if m.state != stateStopping {
			m.err = msg.err
		}
		m.state = stateStopping
		return m, m.teardownCmd()

	case sessionDoneMsg:
		m.err = msg.err
		m.state = stateDone
		m.cancel()
		return m, tea.Quit

	case teardownDoneMsg:
		m.state = stateDone
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// stepLine renders one launch step: spinner while pending, a mark once
// settled.
func (m *RunModel) stepLine(done bool, failed bool, text string) string {
	switch {
	case failed:
		return errorStyle.Render(MarkFail+" ") + text
	case done:
		return successStyle.Render(MarkOK+" ") + text
	default:
		return m.spin.View() + " " + text
	}
}

func (m *RunModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("livetunnel: profile %q", m.profile.Name)) + "\n\n")

	tunnelText := fmt.Sprintf("Tunnel: %s:%d → 127.0.0.1:%d", m.profile.Host, m.profile.RemotePort, m.profile.LocalPort)
	serveText := fmt.Sprintf("Serving %s on 127.0.0.1:%d", m.dir, m.profile.LocalPort)

	tunnelFailed := m.err != nil && m.tunnelH == nil
	b.WriteString(m.stepLine(m.tunnelH != nil, tunnelFailed, tunnelText) + "\n")

	switch {
	case m.state == stateEstablishing && m.err == nil:
		b.WriteString(helpStyle.Render("  waiting for tunnel…") + "\n")
	default:
		if m.tunnelH != nil {
			serveFailed := m.err != nil && m.serveH == nil
			b.WriteString(m.stepLine(m.serveH != nil, serveFailed, serveText) + "\n")
		}
	}

	b.WriteString("\n")
	switch m.state {
	case stateRunning:
		b.WriteString(helpStyle.Render("Press q or ctrl+c to stop") + "\n")
	case stateStopping:
		b.WriteString(m.spin.View() + " Stopping…\n")
	case stateDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render(MarkFail+" "+m.err.Error()) + "\n")
		} else {
			b.WriteString(successStyle.Render(MarkOK+" Session closed") + "\n")
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// Err returns the session outcome once the program has finished.
func (m *RunModel) Err() error {
	return m.err
}
