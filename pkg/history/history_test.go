package history

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mslinn/package-coverage/pkg/coverage"
	"github.com/mslinn/package-coverage/pkg/database"
	"github.com/mslinn/package-coverage/pkg/ui"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fooSource = "package foo\n\nfunc A() int {\n\treturn 1\n}\n\nfunc B() int {\n\treturn 2\n}\n"

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "coverage.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insert(t *testing.T, db *database.DB, prefix, profile string, date time.Time) {
	t.Helper()
	require.NoError(t, db.InsertResult(&database.CoverageResult{
		Project:        "Foo",
		CommitHash:     "abc123",
		CommitSummary:  "Fix bug",
		CommitDate:     date,
		Data:           []byte(profile),
		Platform:       "linux",
		RuntimeVersion: "1.24",
		PathPrefix:     prefix,
	}))
}

func packageDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Foo")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dev"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.go"), []byte(fooSource), 0644))
	return dir
}

func seed(t *testing.T, db *database.DB) {
	t.Helper()
	insert(t, db, "/build/linux/Foo/", "mode: set\n/build/linux/Foo/foo.go:3.14,5.2 1 1\n/build/linux/Foo/foo.go:7.14,9.2 1 0\n",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	insert(t, db, `C:\Users\dev\Foo\`, "mode: set\nC:\\Users\\dev\\Foo\\foo.go:7.14,9.2 1 1\n",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
}

func TestCommitTitle(t *testing.T) {
	c := &database.Commit{Hash: "abc123", Summary: "Fix bug", Date: "2024-01-01 10:11:12.345678"}
	assert.Equal(t, "abc123 Fix bug (2024-01-01 10:11:12)", CommitTitle(c))

	c.Date = "2024-01-01 10:11:12"
	assert.Equal(t, "abc123 Fix bug (2024-01-01 10:11:12)", CommitTitle(c))
}

func TestReportTitle(t *testing.T) {
	assert.Equal(t, "Foo (abc123 Fix bug) coverage report", ReportTitle("Foo", "abc123", "Fix bug"))
}

func TestMerge(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	results, err := db.ResultsForCommit("Foo", "abc123")
	require.NoError(t, err)

	dir := packageDir(t)
	data, summary, err := Merge(results, dir)
	require.NoError(t, err)

	assert.Equal(t, "Fix bug", summary)
	file := filepath.Join(dir, "foo.go")
	if runtime.GOOS == "windows" {
		t.Skip("merge target uses windows separators")
	}
	assert.Equal(t, []string{file}, data.Files())

	s := coverage.Summarize(data)
	require.Len(t, s, 1)
	assert.Equal(t, 2, s[0].Statements)
	assert.Equal(t, 0, s[0].Missed)
}

func TestGenerateReport(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	dir := packageDir(t)

	index, err := GenerateReport(db, "Foo", dir, "abc123")
	require.NoError(t, err)

	reportDir := filepath.Join(dir, "dev", "coverage_reports", "abc123")
	assert.Equal(t, filepath.Join(reportDir, "index.html"), index)

	html, err := os.ReadFile(index)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Foo (abc123 Fix bug) coverage report")

	profile, err := os.ReadFile(filepath.Join(reportDir, ProfileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(profile), "mode: set\n"))
	assert.Contains(t, string(profile), filepath.Join(dir, "foo.go"))

	// Regenerating into an existing directory is fine
	_, err = GenerateReport(db, "Foo", dir, "abc123")
	require.NoError(t, err)
}

func TestGenerateReport_NoResults(t *testing.T) {
	_, err := GenerateReport(openDB(t), "Foo", packageDir(t), "ffffff")
	assert.ErrorIs(t, err, ErrNoResults)
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	status []string
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) Status(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status = append(n.status, msg)
}

type cancelPicker struct{}

func (cancelPicker) Pick(string, []string) (int, error) { return ui.NoSelection, nil }

func browse(t *testing.T, b *Browser, packages []string) error {
	t.Helper()
	loop := ui.NewLoop()
	b.Loop = loop

	var result error
	b.Browse(packages, func(err error) {
		result = err
		loop.Stop()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
	return result
}

func TestBrowser_OpensReport(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	dir := packageDir(t)

	var opened []string
	notifier := &recordingNotifier{}
	b := &Browser{
		Store:         db,
		PackagePicker: ui.NamePicker{Name: "Foo"},
		CommitPicker:  ui.PrefixPicker{Prefix: "abc123 "},
		Notifier:      notifier,
		PackageDir:    func(string) string { return dir },
		Open: func(target string) error {
			opened = append(opened, target)
			return nil
		},
	}

	require.NoError(t, browse(t, b, []string{"Bar", "Foo"}))

	index := filepath.Join(dir, "dev", "coverage_reports", "abc123", "index.html")
	want := "file://" + index
	if runtime.GOOS == "windows" {
		want = index
	}
	assert.Equal(t, []string{want}, opened)
	assert.Empty(t, notifier.errors)
	assert.Len(t, notifier.status, 1)
}

func TestBrowser_NoResults(t *testing.T) {
	notifier := &recordingNotifier{}
	b := &Browser{
		Store:         openDB(t),
		PackagePicker: ui.NamePicker{Name: "Bar"},
		CommitPicker:  cancelPicker{},
		Notifier:      notifier,
		PackageDir:    func(string) string { return t.TempDir() },
		Open:          func(string) error { t.Fatal("nothing should open"); return nil },
	}

	err := browse(t, b, []string{"Bar"})
	assert.ErrorIs(t, err, ErrNoResults)
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Package Coverage\n\nNo coverage results exists for Bar", notifier.errors[0])
}

func TestBrowser_Cancel(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	for name, b := range map[string]*Browser{
		"package": {PackagePicker: cancelPicker{}, CommitPicker: cancelPicker{}},
		"commit":  {PackagePicker: ui.NamePicker{Name: "Foo"}, CommitPicker: cancelPicker{}},
	} {
		t.Run(name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			b.Store = db
			b.Notifier = notifier
			b.PackageDir = func(string) string { return t.TempDir() }
			b.Open = func(string) error { t.Fatal("nothing should open"); return nil }

			assert.NoError(t, browse(t, b, []string{"Foo"}))
			assert.Empty(t, notifier.errors)
			assert.Empty(t, notifier.status)
		})
	}
}

func TestBrowser_OpenError(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	dir := packageDir(t)

	b := &Browser{
		Store:         db,
		PackagePicker: ui.NamePicker{Name: "Foo"},
		CommitPicker:  ui.PrefixPicker{Prefix: "abc123"},
		Notifier:      &recordingNotifier{},
		PackageDir:    func(string) string { return dir },
		Open:          func(string) error { return errors.New("no browser") },
	}

	assert.EqualError(t, browse(t, b, []string{"Foo"}), "no browser")
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"abc123", "deadbeef01", "notes", "ABC123", "abc12"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc123", "index.html"), []byte("<html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abcdef1"), []byte("a file"), 0644))

	removed, err := Clean(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	sort.Strings(left)
	assert.Equal(t, []string{"ABC123", "abc12", "abcdef1", "notes"}, left)
}

func TestClean_MissingDir(t *testing.T) {
	_, err := Clean(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCleanedMessage(t *testing.T) {
	assert.Equal(t, "Package Coverage: coverage reports successfully cleaned for Foo", CleanedMessage("Foo"))
}

func TestWriteCommitTable(t *testing.T) {
	var buf bytes.Buffer
	WriteCommitTable(&buf, "Foo", []*database.Commit{
		{Hash: "bbb222", Summary: "Add feature", Date: "2024-01-02 00:00:00.5"},
		{Hash: "aaa111", Summary: "Fix bug", Date: "2024-01-01 00:00:00"},
	}, map[string]int{"bbb222": 2, "aaa111": 1})

	out := buf.String()
	assert.Contains(t, out, "Foo")
	assert.Contains(t, out, "bbb222")
	assert.Contains(t, out, "Add feature")
	assert.Contains(t, out, "2024-01-02 00:00:00")
	assert.NotContains(t, out, "00:00:00.5")
	assert.Less(t, strings.Index(out, "bbb222"), strings.Index(out, "aaa111"))
}
