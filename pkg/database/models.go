package database

import "time"

// DateLayout is how commit dates are stored: UTC, second precision
const DateLayout = "2006-01-02 15:04:05"

// CoverageResult is one archived coverage measurement of a project at a commit
type CoverageResult struct {
	Project        string
	CommitHash     string
	CommitSummary  string
	CommitDate     time.Time
	Data           []byte // Serialized coverage profile
	Platform       string // 'windows', 'osx', 'linux'
	RuntimeVersion string // Stored in the python_version column
	PathPrefix     string // Package directory at measurement time, with trailing separator
	Output         string // Captured test and report output
}

// Commit is one distinct commit with archived results for a project
type Commit struct {
	Hash    string
	Summary string
	Date    string // As stored
}
