// Package archive stores coverage measurements of committed code.
package archive

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mslinn/package-coverage/pkg/database"
	"github.com/mslinn/package-coverage/pkg/git"
)

// Git is the version control information archival needs
type Git interface {
	IsClean(ctx context.Context, dir string) (bool, error)
	CommitInfo(ctx context.Context, dir string) (*git.Commit, error)
}

// Store receives archived results
type Store interface {
	InsertResult(r *database.CoverageResult) error
}

// Input is one finished coverage run
type Input struct {
	Project    string
	PackageDir string
	Data       []byte // Serialized coverage data
	PathPrefix string
	Output     string
}

// Archiver saves coverage results for clean working trees
type Archiver struct {
	Store          Store
	Git            Git
	Logger         zerolog.Logger
	Platform       string
	RuntimeVersion string
}

// New returns an archiver describing the current host
func New(store Store, g Git, logger zerolog.Logger) *Archiver {
	return &Archiver{
		Store:          store,
		Git:            g,
		Logger:         logger,
		Platform:       Platform(runtime.GOOS),
		RuntimeVersion: RuntimeVersion(runtime.Version()),
	}
}

// Archive inserts one row for in. It returns false without an error when the
// working tree state cannot be read or has uncommitted changes.
func (a *Archiver) Archive(ctx context.Context, in Input) (bool, error) {
	clean, err := a.Git.IsClean(ctx, in.PackageDir)
	if err != nil {
		a.Logger.Warn().Err(err).
			Msg("Package Coverage: not saving results to coverage database since an error occurred fetching the git status")
		return false, nil
	}
	if !clean {
		a.Logger.Warn().
			Msg("Package Coverage: not saving results to coverage database since git repository has modified files")
		return false, nil
	}

	commit, err := a.Git.CommitInfo(ctx, in.PackageDir)
	if err != nil {
		return false, err
	}

	err = a.Store.InsertResult(&database.CoverageResult{
		Project:        in.Project,
		CommitHash:     commit.Hash,
		CommitSummary:  commit.Summary,
		CommitDate:     commit.Date,
		Data:           in.Data,
		Platform:       a.Platform,
		RuntimeVersion: a.RuntimeVersion,
		PathPrefix:     in.PathPrefix,
		Output:         in.Output,
	})
	if err != nil {
		return false, err
	}

	a.Logger.Info().
		Str("project", in.Project).
		Str("commit", commit.Hash).
		Str("date", commit.Date.Format(time.RFC3339)).
		Msg("Package Coverage: saved results to coverage database")
	return true, nil
}

// Platform maps a GOOS value to the platform class stored with results
func Platform(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

// RuntimeVersion reduces a Go version string such as go1.24.2 to 1.24
func RuntimeVersion(version string) string {
	version = strings.TrimPrefix(version, "go")
	if i := strings.IndexAny(version, " -+"); i >= 0 {
		version = version[:i]
	}
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	minor := parts[1]
	// Pre-releases look like go1.25rc1
	if i := strings.IndexFunc(minor, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		minor = minor[:i]
	}
	return parts[0] + "." + minor
}
