// Package suite discovers testable packages and runs their tests.
package suite

import (
	"context"
	"io"
)

// RunOptions controls a test run
type RunOptions struct {
	Verbose       bool
	CoverProfile  string   // Write a cover profile here when set
	CoverPackages []string // Import paths to instrument
}

// Suite is the test capability of one package
type Suite interface {
	Name() string
	Dir() string
	// List enumerates the tests of the suite
	List(ctx context.Context) ([]string, error)
	// Packages maps the import paths of the package's module to directories
	Packages(ctx context.Context) (map[string]string, error)
	// Run streams the test report to w. Failing tests are part of the
	// report, not an error.
	Run(ctx context.Context, w io.Writer, opts RunOptions) error
}
