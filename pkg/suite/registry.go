package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// DevDir is the development subdirectory of a package
const DevDir = "dev"

// ReportsDir returns where HTML coverage reports of a package are written
func ReportsDir(packageDir string) string {
	return filepath.Join(packageDir, DevDir, "coverage_reports")
}

// Registry maps package names to their test suites
type Registry struct {
	packagesPath string
	entry        string

	GoBinary string
	Logger   zerolog.Logger

	mu     sync.Mutex
	suites map[string]Suite
}

// NewRegistry creates a registry for the packages below packagesPath. A
// package is testable when entry, relative to its directory, exists. A
// relative packagesPath is resolved against the working directory, since go
// list reports absolute package directories.
func NewRegistry(packagesPath, entry string) *Registry {
	if abs, err := filepath.Abs(packagesPath); err == nil {
		packagesPath = abs
	}
	return &Registry{
		packagesPath: packagesPath,
		entry:        entry,
		GoBinary:     "go",
		Logger:       zerolog.Nop(),
		suites:       make(map[string]Suite),
	}
}

// PackagesPath returns the root the registry scans
func (r *Registry) PackagesPath() string {
	return r.packagesPath
}

// PackageDir returns the directory of a named package
func (r *Registry) PackageDir(name string) string {
	return filepath.Join(r.packagesPath, name)
}

// Discover returns the sorted names of testable packages and registers a Go
// suite for each one that has none yet. A missing packages root has no
// testable packages.
func (r *Registry) Discover() ([]string, error) {
	entries, err := os.ReadDir(r.packagesPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read packages directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if name[0] == '.' {
			continue
		}

		dir := r.PackageDir(name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, r.entry)); err != nil {
			continue
		}

		names = append(names, name)

		r.mu.Lock()
		if _, ok := r.suites[name]; !ok {
			s := NewGoSuite(name, dir, r.entry)
			s.GoBinary = r.GoBinary
			s.Logger = r.Logger.With().Str("package", name).Logger()
			r.suites[name] = s
		}
		r.mu.Unlock()
	}

	r.Logger.Debug().Strs("packages", names).Msg("Discovered testable packages")
	return names, nil
}

// Register installs a suite under a package name, replacing any other
func (r *Registry) Register(name string, s Suite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suites[name] = s
}

// Lookup returns the suite registered for a package
func (r *Registry) Lookup(name string) (Suite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suites[name]
	return s, ok
}

// Cleanable returns testable packages whose reports directory holds at
// least one subdirectory
func (r *Registry) Cleanable() ([]string, error) {
	names, err := r.Discover()
	if err != nil {
		return nil, err
	}

	var cleanable []string
	for _, name := range names {
		entries, err := os.ReadDir(ReportsDir(r.PackageDir(name)))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				cleanable = append(cleanable, name)
				break
			}
		}
	}
	return cleanable, nil
}
