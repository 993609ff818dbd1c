package world

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Runner invokes the external world generator. Implementations receive the
// argv vector verbatim; nothing is ever passed through a shell.
type Runner interface {
	Run(ctx context.Context, workdir string, argv []string) ([]byte, error)
}

// ExecRunner runs the generator as a subprocess.
type ExecRunner struct{}

// Run executes argv in workdir and returns the combined output. A non-zero
// exit status is returned as an error alongside the output.
func (ExecRunner) Run(ctx context.Context, workdir string, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("argv is required")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workdir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output.Bytes(), fmt.Errorf("generator exited with code %d", exitErr.ExitCode())
		}
		return output.Bytes(), fmt.Errorf("failed to execute generator: %w", err)
	}

	return output.Bytes(), nil
}
