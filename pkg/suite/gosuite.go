package suite

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/mslinn/package-coverage/pkg/timing"
)

// GoSuite runs the tests found under a package's test entry with go test
type GoSuite struct {
	name     string
	dir      string
	entry    string
	GoBinary string
	Logger   zerolog.Logger
}

// NewGoSuite creates a suite for the package at dir. entry is the test entry
// file relative to dir; every package below its directory is tested.
func NewGoSuite(name, dir, entry string) *GoSuite {
	return &GoSuite{
		name:     name,
		dir:      dir,
		entry:    entry,
		GoBinary: "go",
		Logger:   zerolog.Nop(),
	}
}

func (s *GoSuite) Name() string { return s.name }
func (s *GoSuite) Dir() string  { return s.dir }

// Pattern is the go package pattern covering the test entry directory
func (s *GoSuite) Pattern() string {
	return "./" + filepath.ToSlash(filepath.Dir(s.entry)) + "/..."
}

// TestArgs builds the go test arguments for a run
func (s *GoSuite) TestArgs(opts RunOptions) []string {
	args := []string{"test"}
	if opts.Verbose {
		args = append(args, "-v")
	}
	if opts.CoverProfile != "" {
		args = append(args, "-coverprofile="+opts.CoverProfile)
		if len(opts.CoverPackages) > 0 {
			args = append(args, "-coverpkg="+strings.Join(opts.CoverPackages, ","))
		}
	}
	return append(args, s.Pattern())
}

func (s *GoSuite) command(args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, s.GoBinary)
	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Run executes go test in the package directory, copying stdout and stderr to w
func (s *GoSuite) Run(ctx context.Context, w io.Writer, opts RunOptions) error {
	args := s.TestArgs(opts)
	s.Logger.Debug().Str("dir", s.dir).Str("command", s.command(args)).Msg("Running tests")

	result := timing.Run(ctx, s.GoBinary, args, &timing.Options{Dir: s.dir, Stream: w, Stderr: w})
	if !result.Started() {
		return fmt.Errorf("failed to run %s: %w", s.GoBinary, result.Error)
	}

	s.Logger.Debug().
		Int("exitCode", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("Tests finished")
	return nil
}

// List returns the names of tests, benchmarks, examples and fuzz targets
func (s *GoSuite) List(ctx context.Context) ([]string, error) {
	args := []string{"test", "-list", ".", s.Pattern()}
	result := timing.Run(ctx, s.GoBinary, args, &timing.Options{Dir: s.dir})
	if !result.Success() {
		return nil, fmt.Errorf("%s failed: %s", s.command(args), strings.TrimSpace(result.Stderr+result.Stdout))
	}

	var names []string
	scanner := bufio.NewScanner(strings.NewReader(result.Stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		for _, prefix := range []string{"Test", "Benchmark", "Example", "Fuzz"} {
			if strings.HasPrefix(line, prefix) && !strings.ContainsAny(line, " \t") {
				names = append(names, line)
				break
			}
		}
	}
	return names, scanner.Err()
}

// Packages lists the packages of the module rooted at the suite directory
func (s *GoSuite) Packages(ctx context.Context) (map[string]string, error) {
	args := []string{"list", "-f", "{{.ImportPath}}\t{{.Dir}}", "./..."}
	result := timing.Run(ctx, s.GoBinary, args, &timing.Options{Dir: s.dir})
	if !result.Success() {
		return nil, fmt.Errorf("%s failed: %s", s.command(args), strings.TrimSpace(result.Stderr))
	}
	return ParsePackageList(result.Stdout), nil
}

// ParsePackageList parses "import-path<TAB>dir" lines
func ParsePackageList(out string) map[string]string {
	packages := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		importPath, dir, ok := strings.Cut(strings.TrimRight(line, "\r"), "\t")
		if !ok || importPath == "" || dir == "" {
			continue
		}
		packages[importPath] = dir
	}
	return packages
}
