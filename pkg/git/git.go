package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mslinn/package-coverage/pkg/timing"
)

// Error is returned when git writes anything to stderr or cannot be started
type Error struct {
	Args   []string
	Stderr string
}

func (e *Error) Error() string {
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), e.Stderr)
}

// Commit describes the HEAD commit of a working tree
type Commit struct {
	Hash    string // Abbreviated hash
	Date    time.Time
	Summary string
}

// Client runs git in package directories
type Client struct {
	Binary string // Defaults to "git"
	Env    []string
}

// NewClient returns a client using the git found on PATH
func NewClient() *Client {
	return &Client{Binary: "git"}
}

func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = "git"
	}

	result := timing.Run(ctx, binary, args, &timing.Options{Dir: dir, Env: c.Env})
	if !result.Started() {
		return "", &Error{Args: args, Stderr: result.Error.Error()}
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		return "", &Error{Args: args, Stderr: stderr}
	}
	if result.ExitCode != 0 {
		return "", &Error{Args: args, Stderr: fmt.Sprintf("exit code %d", result.ExitCode)}
	}
	return result.Stdout, nil
}

// CommitInfo returns the short hash, UTC commit date and summary of HEAD
func (c *Client) CommitInfo(ctx context.Context, dir string) (*Commit, error) {
	out, err := c.run(ctx, dir, "log", "-n", "1", "--pretty=format:%h %at %s", "HEAD")
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(strings.TrimSpace(out), " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("unexpected git log output %q", out)
	}

	epoch, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid commit timestamp %q: %w", parts[1], err)
	}

	commit := &Commit{
		Hash: parts[0],
		Date: time.Unix(epoch, 0).UTC(),
	}
	if len(parts) == 3 {
		commit.Summary = parts[2]
	}
	return commit, nil
}

// IsClean reports whether the working tree has no uncommitted changes
func (c *Client) IsClean(ctx context.Context, dir string) (bool, error) {
	out, err := c.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}
