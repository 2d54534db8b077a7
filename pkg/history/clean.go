package history

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/sync/errgroup"
)

var reportDirPattern = regexp.MustCompile(`^[a-f0-9]{6,}$`)

// cleanConcurrency bounds parallel directory removals
const cleanConcurrency = 4

// ReportDirs lists report subdirectories of dir, recognized by their commit
// hash names
func ReportDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || !reportDirPattern.MatchString(entry.Name()) {
			continue
		}
		dirs = append(dirs, filepath.Join(dir, entry.Name()))
	}
	return dirs, nil
}

// Clean removes every report directory below dir and returns how many were
// removed. Other content is left alone.
func Clean(dir string) (int, error) {
	dirs, err := ReportDirs(dir)
	if err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.SetLimit(cleanConcurrency)
	for _, d := range dirs {
		g.Go(func() error {
			if err := os.RemoveAll(d); err != nil {
				return fmt.Errorf("failed to remove %s: %w", filepath.Base(d), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(dirs), nil
}

// CleanedMessage is the status shown after a package's reports are removed
func CleanedMessage(project string) string {
	return fmt.Sprintf("Package Coverage: coverage reports successfully cleaned for %s", project)
}
