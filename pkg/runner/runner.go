package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/chartsuite/chartsuite/pkg/logger"
)

// CommandError is returned when an external command exits with a non-zero status.
// It carries the captured stderr so that callers can log the full tool output.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command '%s' returned unexpected error: %v - %s", e.Command, e.Err, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes external commands synchronously, capturing their output.
type Runner struct{}

// New creates a new Runner
func New() *Runner {
	return &Runner{}
}

// Run executes the given command, blocking until it completes, and returns the captured stdout.
// A non-zero exit status results in a [CommandError]; no retrying happens at this level,
// callers wanting retries must wrap the call in a wait condition.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	command := strings.Join(append([]string{name}, args...), " ")

	logger.Divider()
	logger.Log("Command: %s", command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Log("Failed: %s", stderr.String())
		logger.Divider()
		return "", &CommandError{Command: command, Stderr: stderr.String(), Err: err}
	}

	logger.Log("Success: %s", stdout.String())
	logger.Divider()

	return stdout.String(), nil
}
