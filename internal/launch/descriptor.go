// Package launch describes how an editor starts mockls as an external
// language server process and which content types it serves.
package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

// Mode is the launch mode an association applies to.
type Mode string

const (
	ModeRun   Mode = "run"
	ModeDebug Mode = "debug"
)

// Descriptor is an external-process launch configuration.
type Descriptor struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Program       string            `yaml:"program"`
	Args          []string          `yaml:"args,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
	Background    bool              `yaml:"background"`
	CaptureOutput bool              `yaml:"captureOutput"`
}

// Command builds the process for d. Stdin and stdout are left for the caller
// since they carry the LSP stream. Without CaptureOutput, stderr is inherited.
func (d Descriptor) Command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, d.Program, d.Args...)

	if len(d.Env) > 0 {
		keys := make([]string, 0, len(d.Env))
		for k := range d.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Env = os.Environ()
		for _, k := range keys {
			cmd.Env = append(cmd.Env, k+"="+d.Env[k])
		}
	}

	if !d.CaptureOutput {
		cmd.Stderr = os.Stderr
	}
	return cmd
}

// Start starts the process. Unless the descriptor runs in the background, it
// also waits for the process to exit.
func (d Descriptor) Start(ctx context.Context) (*exec.Cmd, error) {
	cmd := d.Command(ctx)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", d.Name, err)
	}
	if d.Background {
		return cmd, nil
	}
	if err := cmd.Wait(); err != nil {
		return cmd, fmt.Errorf("%s exited: %w", d.Name, err)
	}
	return cmd, nil
}
