package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external tool invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // nil inherits the current environment
}

// String renders the command line for logs and errors
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Executor runs external commands. Run streams the child's output, Output
// captures stdout.
type Executor interface {
	Run(ctx context.Context, cmd Command) error
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecExecutor runs commands as real subprocesses
type ExecExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecExecutor returns an executor whose children write to this
// process's stdout and stderr
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *ExecExecutor) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	return cmd
}

// Run blocks until the command exits. A non-zero exit is returned as the
// *exec.ExitError from os/exec.
func (e *ExecExecutor) Run(ctx context.Context, c Command) error {
	cmd := e.command(ctx, c)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	return cmd.Run()
}

// Output runs the command and returns its stdout
func (e *ExecExecutor) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := e.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// CommandError reports a failed pipeline step. It unwraps to the
// executor's error, usually an *exec.ExitError.
type CommandError struct {
	Step string
	Cmd  Command
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Cmd, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
