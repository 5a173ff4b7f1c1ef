// Package transcode invokes the external ffmpeg binary with an explicit
// argument list and a file-in/file-out contract. No stream access is assumed.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotInstalled is returned when ffmpeg is not on PATH
var ErrNotInstalled = errors.New("ffmpeg not found in system PATH")

// Command builds one ffmpeg invocation
type Command struct {
	binary string
	args   []string
}

// NewCommand starts an ffmpeg command line. binary defaults to "ffmpeg".
func NewCommand(binary string) *Command {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Command{binary: binary}
}

// Input appends an input file
func (c *Command) Input(path string) *Command {
	c.args = append(c.args, "-i", path)
	return c
}

// Args appends raw arguments
func (c *Command) Args(args ...string) *Command {
	c.args = append(c.args, args...)
	return c
}

// Output appends the output path (must come last)
func (c *Command) Output(path string) *Command {
	c.args = append(c.args, "-y", path)
	return c
}

// Run executes the command. A nonzero exit status surfaces ffmpeg's stderr
// diagnostic in the returned error.
func (c *Command) Run(ctx context.Context) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return ErrNotInstalled
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, c.args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := lastLine(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return fmt.Errorf("ffmpeg execution failed: %s", diag)
	}
	return nil
}

// lastLine returns the final nonempty stderr line, which is where ffmpeg
// puts the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
