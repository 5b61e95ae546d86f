// Package runner executes the external tools a release delegates to.
//
// The release flow only depends on the CommandRunner interface, so its
// sequencing can be tested without invoking git, the package manager or any
// upload tool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/zorak1103/releasectl/internal/console"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
	"github.com/zorak1103/releasectl/internal/runlog"
)

// ErrEmptyCommand is returned when a configured command line has no words.
var ErrEmptyCommand = errors.New("empty command")

// Command is a single external program invocation.
type Command struct {
	Name string
	Args []string
	Env  []string // extra KEY=VALUE pairs appended to the process environment
}

// New builds a Command from a program name and its arguments.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// String renders the command as a shell-like line for display and logs.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	words = append(words, quote(c.Name))
	for _, a := range c.Args {
		words = append(words, quote(a))
	}
	return strings.Join(words, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\"'$\\") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// Parse splits a configured command line into a Command.
// ${NAME} and $NAME references are expanded from vars first, then from the
// process environment.
func Parse(line string, vars map[string]string) (Command, error) {
	p := shellwords.NewParser()
	p.ParseEnv = true
	p.Getenv = func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	words, err := p.Parse(line)
	if err != nil {
		return Command{}, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("%w: %q", ErrEmptyCommand, line)
	}

	return Command{Name: words[0], Args: words[1:]}, nil
}

// CommandRunner runs a command to completion.
// A non-zero exit must be reported as *apperrors.CommandError.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes attached to the terminal.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Echo, when set, receives each command line before it runs.
	Echo io.Writer
	// Log records every command and its outcome.
	Log *runlog.Logger
}

// Compile-time verification that ExecRunner implements CommandRunner
var _ CommandRunner = (*ExecRunner)(nil)

// NewExecRunner creates a runner wired to the process's standard streams.
func NewExecRunner(echo io.Writer, log *runlog.Logger) *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Echo:   echo,
		Log:    log,
	}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	line := cmd.String()
	if r.Echo != nil {
		_, _ = fmt.Fprintln(r.Echo, console.FormatCommandMessage("$ "+line))
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) // #nosec G204 -- commands come from the release configuration
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	started := time.Now()
	err := c.Run()
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = &apperrors.CommandError{Command: line, ExitCode: exitCode, Err: err}
	}

	if logErr := r.Log.Log(runlog.Entry{
		Command:  line,
		Started:  started,
		Duration: time.Since(started),
		Err:      err,
	}); logErr != nil && r.Stderr != nil {
		_, _ = fmt.Fprintf(r.Stderr, "warning: %v\n", logErr)
	}

	return err
}

// DryRunRunner prints commands instead of executing them.
type DryRunRunner struct {
	Out io.Writer
}

// Compile-time verification that DryRunRunner implements CommandRunner
var _ CommandRunner = (*DryRunRunner)(nil)

// Run prints cmd and reports success.
func (r *DryRunRunner) Run(_ context.Context, cmd Command) error {
	_, err := fmt.Fprintf(r.Out, "[dry-run] %s\n", cmd.String())
	return err
}

// RecordingRunner records commands instead of executing them.
// OnRun, when set, is called for each command and decides its outcome.
type RecordingRunner struct {
	OnRun func(cmd Command) error

	mu       sync.Mutex
	commands []Command
}

// Compile-time verification that RecordingRunner implements CommandRunner
var _ CommandRunner = (*RecordingRunner)(nil)

// Run records cmd.
func (r *RecordingRunner) Run(_ context.Context, cmd Command) error {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if r.OnRun != nil {
		return r.OnRun(cmd)
	}
	return nil
}

// Commands returns the recorded commands in order.
func (r *RecordingRunner) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Lines returns the recorded commands rendered with Command.String.
func (r *RecordingRunner) Lines() []string {
	cmds := r.Commands()
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = c.String()
	}
	return lines
}
