package commands

import (
	"bytes"
	"strings"
	"testing"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color"))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "mockls" {
		t.Errorf("expected Use to be 'mockls', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	expectedCommands := []string{
		"version",
		"serve",
		"launch",
		"journal",
	}

	for _, expected := range expectedCommands {
		found := false
		for _, cmd := range cmd.Commands() {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	oldVersion, oldCommit, oldDate, oldGo := Version, GitCommit, BuildDate, GoVersion
	defer func() { Version, GitCommit, BuildDate, GoVersion = oldVersion, oldCommit, oldDate, oldGo }()

	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "unknown"

	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}

	for _, expected := range []string{"mockls version: 1.0.0-test", "abc123", "2025-01-01", "Go version:     go"} {
		if !strings.Contains(out, expected) {
			t.Errorf("version output missing %q:\n%s", expected, out)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, _, err := execute(t, "compile"); err == nil {
		t.Error("expected error for unknown command")
	}
}
