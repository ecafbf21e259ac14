package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"syscall"
)

// Process is a started child process with its three standard streams.
type Process interface {
	// Pid returns the OS process id.
	Pid() int

	// Stdin is the write end of the child's standard input.
	Stdin() io.WriteCloser

	// Stdout is the read end of the child's standard output.
	Stdout() io.Reader

	// Stderr is the read end of the child's standard error.
	Stderr() io.Reader

	// Terminate requests a graceful exit.
	Terminate() error

	// Wait blocks until the process exits. It must be called only after
	// Stdout and Stderr have been read to EOF.
	Wait() error
}

// CommandRunner is the interface for starting commands.
type CommandRunner interface {
	Start(ctx context.Context, name string, args []string, env []string) (Process, error)
}

// ExecCommandRunner uses os/exec.
type ExecCommandRunner struct{}

// Start starts a command with pipes attached to all three standard streams.
// The child outlives ctx; it is stopped through Process.Terminate.
func (ExecCommandRunner) Start(ctx context.Context, name string, args []string, env []string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(name, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }
func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }
func (p *execProcess) Stderr() io.Reader     { return p.stderr }
func (p *execProcess) Wait() error           { return p.cmd.Wait() }

// Terminate sends SIGTERM. Windows has no equivalent signal, so the process
// is killed there.
func (p *execProcess) Terminate() error {
	if runtime.GOOS == "windows" {
		return p.cmd.Process.Kill()
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}
