// Package history regenerates coverage reports from archived results and
// cleans them up again.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mslinn/package-coverage/pkg/coverage"
	"github.com/mslinn/package-coverage/pkg/database"
	"github.com/mslinn/package-coverage/pkg/suite"
)

// ProfileName is the merged profile written next to each HTML report
const ProfileName = "coverage.out"

// ErrNoResults is returned when a package has no archived results
var ErrNoResults = errors.New("no coverage results")

// Store is the archived result history
type Store interface {
	ListCommits(project string) ([]*database.Commit, error)
	ResultsForCommit(project, commitHash string) ([]*database.CoverageResult, error)
}

// CommitTitle formats a commit for a picker: hash, summary and date without
// fractional seconds
func CommitTitle(c *database.Commit) string {
	return fmt.Sprintf("%s %s (%s)", c.Hash, c.Summary, trimFraction(c.Date))
}

func trimFraction(date string) string {
	date, _, _ = strings.Cut(date, ".")
	return date
}

// ReportTitle is the heading of a generated report
func ReportTitle(project, commitHash, summary string) string {
	return fmt.Sprintf("%s (%s %s) coverage report", project, commitHash, summary)
}

// Merge combines every archived result of a commit into one data set,
// remapping each result's recorded path prefix onto packageDir. It also
// returns the summary of the earliest result.
func Merge(results []*database.CoverageResult, packageDir string) (*coverage.Data, string, error) {
	data := coverage.NewData()
	summary := ""
	for i, r := range results {
		if i == 0 {
			summary = r.CommitSummary
		}

		d, err := coverage.Decode(r.Data)
		if err != nil {
			return nil, "", fmt.Errorf("result from %s: %w", r.CommitDate.Format(database.DateLayout), err)
		}

		var aliases coverage.PathAliases
		aliases.Add(r.PathPrefix, packageDir+string(os.PathSeparator))
		if err := data.Update(d, &aliases); err != nil {
			return nil, "", err
		}
	}
	return data, summary, nil
}

// GenerateReport writes the HTML report of a commit under the package's
// reports directory and returns the path of its entry page
func GenerateReport(store Store, project, packageDir, commitHash string) (string, error) {
	results, err := store.ResultsForCommit(project, commitHash)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w for %s at %s", ErrNoResults, project, commitHash)
	}

	data, summary, err := Merge(results, packageDir)
	if err != nil {
		return "", err
	}

	reportDir := filepath.Join(suite.ReportsDir(packageDir), commitHash)
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(reportDir, ProfileName), data.Encode(), 0644); err != nil {
		return "", fmt.Errorf("failed to write merged profile: %w", err)
	}

	if err := coverage.WriteHTML(reportDir, ReportTitle(project, commitHash, summary), data); err != nil {
		return "", err
	}
	return filepath.Join(reportDir, coverage.IndexPage), nil
}
