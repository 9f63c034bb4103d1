package ui

import (
	"reflect"
	"testing"

	"livetunnel/pkg/config"

	tea "github.com/charmbracelet/bubbletea"
)

func TestFormBuildResult(t *testing.T) {
	f := NewConfigureForm(nil, "blog")
	f.inputs[fieldName].SetValue("blog")
	f.inputs[fieldHost].SetValue("example.com")
	f.inputs[fieldSSHPort].SetValue("2222")
	f.inputs[fieldUsername].SetValue("deploy")
	f.inputs[fieldJumpHosts].SetValue("jump1, jump2")
	f.inputs[fieldRemotePort].SetValue("9000")
	f.inputs[fieldLocalPort].SetValue("8080")
	f.inputs[fieldDir].SetValue("/srv/blog")
	f.inputs[fieldCommands].SetValue("knock example.com 7000; sleep 1")
	f.upload = true

	if err := f.buildResult(); err != nil {
		t.Fatalf("buildResult: %v", err)
	}

	got := f.result
	want := config.Profile{
		Name:            "blog",
		Host:            "example.com",
		SSHPort:         2222,
		Username:        "deploy",
		JumpHosts:       []string{"jump1", "jump2"},
		RemotePort:      9000,
		LocalPort:       8080,
		Dir:             "/srv/blog",
		ConnectCommands: []string{"knock example.com 7000", "sleep 1"},
		Upload:          true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("built profile:\n got:  %+v\n want: %+v", got, want)
	}
}

func TestFormBuildResultErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigureForm)
	}{
		{"missing host", func(f *ConfigureForm) {
			f.inputs[fieldHost].SetValue("")
		}},
		{"bad remote port", func(f *ConfigureForm) {
			f.inputs[fieldRemotePort].SetValue("ninethousand")
		}},
		{"remote port out of range", func(f *ConfigureForm) {
			f.inputs[fieldRemotePort].SetValue("99999")
		}},
		{"missing local port", func(f *ConfigureForm) {
			f.inputs[fieldLocalPort].SetValue("")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewConfigureForm(nil, "blog")
			f.inputs[fieldName].SetValue("blog")
			f.inputs[fieldHost].SetValue("example.com")
			f.inputs[fieldRemotePort].SetValue("9000")
			f.inputs[fieldLocalPort].SetValue("8080")
			tt.mutate(f)
			if err := f.buildResult(); err == nil {
				t.Error("buildResult = nil, want error")
			}
		})
	}
}

func TestFormEscCancels(t *testing.T) {
	f := NewConfigureForm(nil, "blog")
	model, _ := f.Update(tea.KeyMsg{Type: tea.KeyEsc})

	final := model.(*ConfigureForm)
	if !final.Canceled() {
		t.Error("Canceled after esc = false, want true")
	}
	if _, ok := final.Result(); ok {
		t.Error("Result after esc reports a submit")
	}
}

// Reconfiguring must keep the users added via `user add`.
func TestFormPreservesUsersOnEdit(t *testing.T) {
	existing := config.Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  8080,
		Users:      []config.AuthUser{{Name: "alice", PasswordHash: "aaaa"}},
	}

	f := NewConfigureForm(&existing, "blog")
	f.inputs[fieldHost].SetValue("new.example.com")
	if err := f.buildResult(); err != nil {
		t.Fatalf("buildResult: %v", err)
	}
	if len(f.result.Users) != 1 || f.result.Users[0].Name != "alice" {
		t.Errorf("users lost on edit: %+v", f.result.Users)
	}
	if f.result.Host != "new.example.com" {
		t.Errorf("Host = %q, want edited value", f.result.Host)
	}
}

func TestSplitTrim(t *testing.T) {
	got := splitTrim(" a ; ;b; ", ";")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitTrim = %v, want %v", got, want)
	}
	if splitTrim("", ",") != nil {
		t.Error("splitTrim of empty input should be nil")
	}
}
