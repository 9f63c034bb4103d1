package ui

import (
	"context"
	"strings"
	"testing"

	"livetunnel/pkg/config"
)

func TestRunViewTitle(t *testing.T) {
	p := config.Profile{
		Name:       "blog",
		Host:       "example.com",
		RemotePort: 9000,
		LocalPort:  8080,
	}
	m := NewRunModel(context.Background(), p, "/srv/blog", false)

	view := m.View()
	if !strings.Contains(view, `livetunnel: profile "blog"`) {
		t.Errorf("view missing title line, got:\n%s", view)
	}
}
