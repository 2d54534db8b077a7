package coverage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mslinn/package-coverage/pkg/shortpath"
)

// DevDir holds a package's tests and reports and is never measured
const DevDir = "dev"

// Session measures the coverage of one package across a test run
type Session struct {
	PackageName string
	PackageDir  string
	ShortDir    string            // Windows 8.3 alias of PackageDir, if any
	Profile     string            // Cover profile written by the test run
	Packages    map[string]string // Import path to directory for the package's module
}

// Result is the outcome of a finished session
type Result struct {
	Data      *Data
	Summary   string // Report table with paths relative to the packages root
	UsedShort bool
}

// Start allocates the profile file for a run of packageDir, which is made
// absolute first
func Start(packageName, packageDir string, packages map[string]string) (*Session, error) {
	packageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve package directory: %w", err)
	}

	f, err := os.CreateTemp("", "pcov-*.out")
	if err != nil {
		return nil, fmt.Errorf("failed to create coverage profile: %w", err)
	}
	f.Close()

	return &Session{
		PackageName: packageName,
		PackageDir:  packageDir,
		ShortDir:    shortpath.Of(packageDir),
		Profile:     f.Name(),
		Packages:    packages,
	}, nil
}

// Include lists the directories whose files are measured
func (s *Session) Include() []string {
	dirs := []string{s.PackageDir}
	if s.ShortDir != "" {
		dirs = append(dirs, s.ShortDir)
	}
	return dirs
}

// Omit lists the directories excluded from measurement
func (s *Session) Omit() []string {
	var dirs []string
	for _, dir := range s.Include() {
		dirs = append(dirs, filepath.Join(dir, DevDir))
	}
	return dirs
}

// CoverPackages returns the sorted import paths to instrument
func (s *Session) CoverPackages() []string {
	var paths []string
	for importPath, dir := range s.Packages {
		if !within(dir, s.Include()) || within(dir, s.Omit()) {
			continue
		}
		paths = append(paths, importPath)
	}
	sort.Strings(paths)
	return paths
}

// PathPrefix is the package directory recorded alongside archived data
func (s *Session) PathPrefix(usedShort bool) string {
	dir := s.PackageDir
	if usedShort {
		dir = s.ShortDir
	}
	return dir + string(os.PathSeparator)
}

// Finish reads the profile written by the test run and produces the data set
// and summary table
func (s *Session) Finish() (*Result, error) {
	f, err := os.Open(s.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage profile: %w", err)
	}
	defer f.Close()

	data, err := Parse(f)
	if err != nil {
		return nil, err
	}
	data.ResolveFiles(s.Packages)
	data.Filter(s.Include(), s.Omit())

	var buf bytes.Buffer
	if err := Report(&buf, Summarize(data)); err != nil {
		return nil, err
	}

	summary, usedShort := RewriteSummary(buf.String(), s.PackageDir, s.ShortDir, s.PackageName)
	return &Result{Data: data, Summary: summary, UsedShort: usedShort}, nil
}

// Close removes the profile file
func (s *Session) Close() error {
	if err := os.Remove(s.Profile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func within(dir string, roots []string) bool {
	for _, root := range roots {
		if dir == root {
			return true
		}
	}
	return underAny(dir, roots)
}
