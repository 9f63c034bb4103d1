package ui

import (
	"fmt"
	"strconv"
	"strings"

	"livetunnel/pkg/config"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Form field indexes. The upload toggle and save button are focusable
// positions after the text inputs.
const (
	fieldName = iota
	fieldHost
	fieldSSHPort
	fieldUsername
	fieldKeyFile
	fieldJumpHosts
	fieldRemotePort
	fieldLocalPort
	fieldDir
	fieldCommands
	numInputs

	posUpload    = numInputs
	posSave      = numInputs + 1
	numFocusable = numInputs + 2
)

var fieldLabels = [numInputs]string{
	"Profile name",
	"SSH host",
	"SSH port (empty for default)",
	"SSH username (optional)",
	"SSH key file (optional)",
	"Jump hosts, comma-separated (optional)",
	"Remote port to forward",
	"Local port to serve on",
	"Directory to serve (optional, default: cwd)",
	"Connect-commands, ';'-separated (optional)",
}

var fieldPlaceholders = [numInputs]string{
	"blog",
	"example.com",
	"22",
	"root",
	"~/.ssh/id_ed25519",
	"bastion1.example.com,bastion2.example.com",
	"9000",
	"3000",
	"/srv/blog",
	"knock example.com 7000 8000 9000",
}

// ConfigureForm is the interactive setup assistant for one profile.
// Auth users are managed by `livetunnel user add`, not here; existing
// users survive a reconfigure untouched.
type ConfigureForm struct {
	inputs     []textinput.Model
	focusIndex int
	upload     bool
	initial    config.Profile
	editing    bool

	result    config.Profile
	submitted bool
	canceled  bool
	errMsg    string
}

// NewConfigureForm builds the form, pre-filled when editing an
// existing profile.
func NewConfigureForm(existing *config.Profile, name string) *ConfigureForm {
	f := &ConfigureForm{
		inputs:  make([]textinput.Model, numInputs),
		editing: existing != nil,
	}
	if existing != nil {
		f.initial = *existing
		f.upload = existing.Upload
	} else {
		f.initial = config.Profile{Name: name, LocalPort: 3000}
	}

	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = fieldPlaceholders[i]
		in.Prompt = "> "
		in.Width = 48
		in.PromptStyle = blurredStyle
		in.TextStyle = blurredStyle
		f.inputs[i] = in
	}

	f.inputs[fieldName].SetValue(f.initial.Name)
	f.inputs[fieldHost].SetValue(f.initial.Host)
	if f.initial.SSHPort != 0 {
		f.inputs[fieldSSHPort].SetValue(strconv.Itoa(f.initial.SSHPort))
	}
	f.inputs[fieldUsername].SetValue(f.initial.Username)
	f.inputs[fieldKeyFile].SetValue(f.initial.KeyFile)
	f.inputs[fieldJumpHosts].SetValue(strings.Join(f.initial.JumpHosts, ","))
	if f.initial.RemotePort != 0 {
		f.inputs[fieldRemotePort].SetValue(strconv.Itoa(f.initial.RemotePort))
	}
	if f.initial.LocalPort != 0 {
		f.inputs[fieldLocalPort].SetValue(strconv.Itoa(f.initial.LocalPort))
	}
	f.inputs[fieldDir].SetValue(f.initial.Dir)
	f.inputs[fieldCommands].SetValue(strings.Join(f.initial.ConnectCommands, "; "))

	f.setFocus(fieldName)
	return f
}

func (f *ConfigureForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f *ConfigureForm) setFocus(index int) {
	f.focusIndex = index
	for i := range f.inputs {
		if i == index {
			f.inputs[i].Focus()
			f.inputs[i].PromptStyle = focusedStyle
			f.inputs[i].TextStyle = focusedStyle
		} else {
			f.inputs[i].Blur()
			f.inputs[i].PromptStyle = blurredStyle
			f.inputs[i].TextStyle = blurredStyle
		}
	}
}

func (f *ConfigureForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			f.canceled = true
			return f, tea.Quit

		case "tab", "down", "enter":
			if msg.String() == "enter" {
				switch f.focusIndex {
				case posSave:
					if err := f.buildResult(); err != nil {
						f.errMsg = err.Error()
						return f, nil
					}
					f.submitted = true
					return f, tea.Quit
				case posUpload:
					f.upload = !f.upload
					return f, nil
				}
			}
			f.setFocus((f.focusIndex + 1) % numFocusable)
			return f, nil

		case "shift+tab", "up":
			f.setFocus((f.focusIndex + numFocusable - 1) % numFocusable)
			return f, nil

		case " ":
			if f.focusIndex == posUpload {
				f.upload = !f.upload
				return f, nil
			}
		}
	}

	// Route everything else to the focused text input.
	if f.focusIndex < numInputs {
		var cmd tea.Cmd
		f.inputs[f.focusIndex], cmd = f.inputs[f.focusIndex].Update(msg)
		return f, cmd
	}
	return f, nil
}

// buildResult parses the inputs into a profile and validates it.
func (f *ConfigureForm) buildResult() error {
	p := config.Profile{
		Name:     strings.TrimSpace(f.inputs[fieldName].Value()),
		Host:     strings.TrimSpace(f.inputs[fieldHost].Value()),
		Username: strings.TrimSpace(f.inputs[fieldUsername].Value()),
		KeyFile:  strings.TrimSpace(f.inputs[fieldKeyFile].Value()),
		Dir:      strings.TrimSpace(f.inputs[fieldDir].Value()),
		Upload:   f.upload,
		Users:    f.initial.Users,
	}

	var err error
	if p.SSHPort, err = parseOptionalPort(f.inputs[fieldSSHPort].Value(), "SSH port"); err != nil {
		return err
	}
	if p.RemotePort, err = parsePort(f.inputs[fieldRemotePort].Value(), "remote port"); err != nil {
		return err
	}
	if p.LocalPort, err = parsePort(f.inputs[fieldLocalPort].Value(), "local port"); err != nil {
		return err
	}
	p.JumpHosts = splitTrim(f.inputs[fieldJumpHosts].Value(), ",")
	p.ConnectCommands = splitTrim(f.inputs[fieldCommands].Value(), ";")

	if err := p.Validate(); err != nil {
		return err
	}
	f.result = p
	return nil
}

func parsePort(s, label string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s is required", label)
	}
	return parseOptionalPort(s, label)
}

func parseOptionalPort(s, label string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("%s: %q is not a valid port number", label, s)
	}
	return n, nil
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (f *ConfigureForm) View() string {
	var b strings.Builder

	title := "New profile"
	if f.editing {
		title = fmt.Sprintf("Edit profile %q", f.initial.Name)
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	for i := range f.inputs {
		b.WriteString(fieldLabels[i] + "\n")
		b.WriteString(f.inputs[i].View() + "\n")
	}

	check := "[ ]"
	if f.upload {
		check = "[x]"
	}
	uploadLine := fmt.Sprintf("%s Allow uploads", check)
	saveLine := "[ Save ]"
	switch f.focusIndex {
	case posUpload:
		uploadLine = focusedStyle.Render(uploadLine)
	case posSave:
		saveLine = focusedStyle.Render(saveLine)
	}
	b.WriteString("\n" + uploadLine + "\n\n" + saveLine + "\n")

	if f.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(f.errMsg) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("tab/↑/↓: navigate | enter: next/save | space: toggle | esc: cancel") + "\n")

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// Result returns the built profile after a successful submit.
func (f *ConfigureForm) Result() (config.Profile, bool) {
	return f.result, f.submitted
}

// Canceled reports whether the user backed out.
func (f *ConfigureForm) Canceled() bool {
	return f.canceled
}
