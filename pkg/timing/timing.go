package timing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Result contains the results of a timed command execution
type Result struct {
	Command  string
	Args     []string
	Duration time.Duration
	Stdout   string // Empty when Options.Stream was set
	Stderr   string
	ExitCode int
	Error    error
}

// Options configures command execution
type Options struct {
	Dir    string    // Working directory
	Env    []string  // Extra environment, appended to the current one
	Stream io.Writer // When set, stdout is copied here as it is produced
	Stderr io.Writer // When set, stderr is copied here too
}

// Run executes a command and measures its execution time
func Run(ctx context.Context, command string, args []string, opts *Options) *Result {
	if opts == nil {
		opts = &Options{}
	}

	result := &Result{
		Command: command,
		Args:    args,
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}

	var stdout, stderr bytes.Buffer
	if opts.Stream != nil {
		cmd.Stdout = opts.Stream
	} else {
		cmd.Stdout = &stdout
	}
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, opts.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}

	return result
}

// Success returns true if the command executed successfully
func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Error == nil
}

// Started reports whether the process ran at all, even if it exited non-zero
func (r *Result) Started() bool {
	var exitErr *exec.ExitError
	return r.Error == nil || errors.As(r.Error, &exitErr)
}

// String returns a human-readable summary of the result
func (r *Result) String() string {
	status := "success"
	if !r.Success() {
		status = fmt.Sprintf("failed (exit code %d)", r.ExitCode)
	}

	return fmt.Sprintf("%s %v: %s (%.3fs)",
		r.Command,
		r.Args,
		status,
		r.Duration.Seconds(),
	)
}
