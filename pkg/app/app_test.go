package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mslinn/package-coverage/pkg/config"
	"github.com/mslinn/package-coverage/pkg/database"
	"github.com/mslinn/package-coverage/pkg/git"
	"github.com/mslinn/package-coverage/pkg/suite"
	"github.com/mslinn/package-coverage/pkg/ui"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fooProfile = `mode: set
example.com/foo/foo.go:3.14,5.2 1 1
example.com/foo/foo.go:7.14,9.2 1 0
example.com/foo/dev/helper.go:1.1,2.2 1 1
`

type fakeSuite struct {
	name, dir string
	runs      int
}

func (f *fakeSuite) Name() string { return f.name }
func (f *fakeSuite) Dir() string  { return f.dir }

func (f *fakeSuite) List(context.Context) ([]string, error) {
	return []string{"TestAdd", "TestSub"}, nil
}

func (f *fakeSuite) Packages(context.Context) (map[string]string, error) {
	return map[string]string{
		"example.com/foo":     f.dir,
		"example.com/foo/dev": filepath.Join(f.dir, "dev"),
	}, nil
}

func (f *fakeSuite) Run(_ context.Context, w io.Writer, opts suite.RunOptions) error {
	f.runs++
	if opts.CoverProfile != "" {
		if err := os.WriteFile(opts.CoverProfile, []byte(fooProfile), 0644); err != nil {
			return err
		}
	}
	for _, chunk := range []string{"=== RUN   TestAdd\n", "--- \x1b[32mPASS\x1b[0m: TestAdd\n", "ok  \texample.com/foo/dev\t0.01s\n"} {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

type fakeGit struct {
	mu    sync.Mutex
	clean bool
}

func (g *fakeGit) setClean(clean bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clean = clean
}

func (g *fakeGit) IsClean(context.Context, string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clean, nil
}

func (g *fakeGit) CommitInfo(context.Context, string) (*git.Commit, error) {
	return &git.Commit{Hash: "abc123", Summary: "Fix bug", Date: time.Unix(1700000000, 0).UTC()}, nil
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

type fixture struct {
	app      *App
	root     string
	dbPath   string
	suite    *fakeSuite
	git      *fakeGit
	notifier *recordingNotifier
	out      *bytes.Buffer
	opened   []string
}

func newFixture(t *testing.T, withPackage bool) *fixture {
	t.Helper()
	t.Setenv("PCOV_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))

	root := t.TempDir()
	f := &fixture{
		root:     root,
		dbPath:   filepath.Join(t.TempDir(), "coverage.sqlite"),
		git:      &fakeGit{clean: true},
		notifier: &recordingNotifier{},
		out:      &bytes.Buffer{},
	}

	registry := suite.NewRegistry(root, config.DefaultTestEntry)
	if withPackage {
		dir := filepath.Join(root, "Foo")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "dev"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultTestEntry), []byte("package dev\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.go"), []byte("package foo\n"), 0644))
		f.suite = &fakeSuite{name: "Foo", dir: dir}
		registry.Register("Foo", f.suite)
	}

	user := config.DefaultConfig()
	user.DatabasePath = f.dbPath
	f.app = &App{
		Settings:      config.NewSettings(user, t.TempDir()),
		Registry:      registry,
		PackagePicker: ui.NamePicker{Name: "Foo"},
		CommitPicker:  ui.PrefixPicker{Prefix: "abc123"},
		Prompter:      &ui.ScriptedPrompter{},
		Notifier:      f.notifier,
		Out:           f.out,
		Git:           f.git,
		Open: func(target string) error {
			f.opened = append(f.opened, target)
			return nil
		},
		Logger: zerolog.Nop(),
	}
	return f
}

func (f *fixture) results(t *testing.T) []*database.CoverageResult {
	t.Helper()
	db, err := database.Open(f.dbPath)
	require.NoError(t, err)
	defer db.Close()
	results, err := db.ResultsForCommit("Foo", "abc123")
	require.NoError(t, err)
	return results
}

func TestRunTests_CoverageArchivesCleanTreeOnly(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.app.RunTests(ctx, Options{Coverage: true}))

	out := f.out.String()
	assert.Contains(t, out, "Measuring Foo Coverage")
	assert.Contains(t, out, "\n  === RUN   TestAdd\n  ")
	assert.Contains(t, out, "."+string(os.PathSeparator)+filepath.Join("Foo", "foo.go"))
	assert.Contains(t, out, "TOTAL")
	assert.NotContains(t, out, "helper.go")
	assert.NotContains(t, out, f.suite.dir)
	assert.NotContains(t, out, string(rune(0x04)))

	results := f.results(t)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "Fix bug", r.CommitSummary)
	assert.Equal(t, f.suite.dir+string(os.PathSeparator), r.PathPrefix)
	assert.Contains(t, r.Output, "--- PASS: TestAdd")
	assert.Contains(t, r.Output, "TOTAL")
	assert.NotContains(t, r.Output, "\x1b[")
	assert.True(t, strings.HasPrefix(string(r.Data), "mode: set\n"))

	f.git.setClean(false)
	require.NoError(t, f.app.RunTests(ctx, Options{Coverage: true}))
	assert.Len(t, f.results(t), 1)
	assert.Equal(t, 2, f.suite.runs)
}

func TestRunTests_WithoutCoverage(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.app.RunTests(context.Background(), Options{}))

	assert.Contains(t, f.out.String(), "Running Foo Tests")
	assert.NotContains(t, f.out.String(), "TOTAL")
	assert.Empty(t, f.results(t))
}

func TestRunTests_NoTestablePackages(t *testing.T) {
	f := newFixture(t, false)

	err := f.app.RunTests(context.Background(), Options{Coverage: true})
	assert.ErrorIs(t, err, ErrNoTestablePackages)
	assert.Equal(t, []string{"Package Coverage\n\nNo testable packages could be found"}, f.notifier.errors)
	assert.Empty(t, f.out.String())
	_, statErr := os.Stat(f.dbPath)
	assert.True(t, os.IsNotExist(statErr), "database should not be created")
}

func TestRunTests_Cancelled(t *testing.T) {
	f := newFixture(t, true)
	f.app.PackagePicker = cancelPicker{}

	require.NoError(t, f.app.RunTests(context.Background(), Options{Coverage: true}))
	assert.Zero(t, f.suite.runs)
	assert.Empty(t, f.out.String())
}

func TestListTests(t *testing.T) {
	f := newFixture(t, true)

	var buf bytes.Buffer
	require.NoError(t, f.app.ListTests(context.Background(), &buf))
	assert.Equal(t, "TestAdd\nTestSub\n", buf.String())
}

func TestSetDatabasePath_RepromptsUntilValid(t *testing.T) {
	f := newFixture(t, true)
	dir := t.TempDir()
	prompter := &ui.ScriptedPrompter{Answers: []string{
		dir + string(os.PathSeparator),
		filepath.Join(dir, "missing", "coverage.sqlite"),
		filepath.Join(dir, "coverage.sqlite"),
	}}
	f.app.Prompter = prompter

	require.NoError(t, f.app.SetDatabasePath(""))

	assert.Equal(t, 3, prompter.Asked())
	require.Len(t, f.notifier.errors, 2)
	assert.Equal(t, "Package Coverage\n\nNo filename provided for coverage database", f.notifier.errors[0])
	assert.Equal(t, "Package Coverage\n\nFolder provided for coverage database does not exist:\n\n"+filepath.Join(dir, "missing"), f.notifier.errors[1])
	assert.Equal(t, []string{"Package Coverage coverage database path saved"}, f.notifier.status)

	saved, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "coverage.sqlite"), saved.DatabasePath)
}

func TestSetDatabasePath_ProjectScope(t *testing.T) {
	f := newFixture(t, true)
	projectDir := t.TempDir()
	projectFile := filepath.Join(projectDir, config.ProjectFileName)
	require.NoError(t, os.WriteFile(projectFile, []byte("name: demo\n"), 0644))
	f.app.Settings = config.NewSettings(config.DefaultConfig(), projectDir)

	target := filepath.Join(t.TempDir(), "project.sqlite")
	require.NoError(t, f.app.SetDatabasePath(target))

	assert.Equal(t, target, f.app.Settings.Get(config.KeyDatabase, ""))
	raw, err := os.ReadFile(projectFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "project.sqlite")
}

func TestSetDatabasePath_Cancel(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.app.SetDatabasePath(""))
	assert.Empty(t, f.notifier.status)
	_, err := os.Stat(os.Getenv("PCOV_CONFIG"))
	assert.True(t, os.IsNotExist(err))
}

func TestDisplayReport(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.app.RunTests(ctx, Options{Coverage: true}))

	require.NoError(t, f.app.DisplayReport(ctx))

	require.Len(t, f.opened, 1)
	assert.True(t, strings.HasSuffix(f.opened[0], filepath.Join("Foo", "dev", "coverage_reports", "abc123", "index.html")))
	assert.FileExists(t, filepath.Join(f.suite.dir, "dev", "coverage_reports", "abc123", "index.html"))
}

func TestDisplayReport_NoDatabase(t *testing.T) {
	f := newFixture(t, true)
	f.app.Settings = config.NewSettings(config.DefaultConfig(), t.TempDir())

	assert.ErrorIs(t, f.app.DisplayReport(context.Background()), ErrNoDatabase)
	assert.Len(t, f.notifier.errors, 1)
}

func TestListReports(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.app.RunTests(context.Background(), Options{Coverage: true}))

	var buf bytes.Buffer
	require.NoError(t, f.app.ListReports(&buf, ""))
	assert.Contains(t, buf.String(), "abc123")
	assert.Contains(t, buf.String(), "Fix bug")
}

func TestCleanupReports(t *testing.T) {
	f := newFixture(t, true)
	reports := suite.ReportsDir(f.suite.dir)
	require.NoError(t, os.MkdirAll(filepath.Join(reports, "abc123"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(reports, "keep-me"), 0755))

	require.NoError(t, f.app.CleanupReports(context.Background()))

	assert.NoDirExists(t, filepath.Join(reports, "abc123"))
	assert.DirExists(t, filepath.Join(reports, "keep-me"))
	assert.Equal(t, []string{"Package Coverage: coverage reports successfully cleaned for Foo"}, f.notifier.status)
}

func TestCleanupReports_NothingToClean(t *testing.T) {
	f := newFixture(t, true)

	assert.ErrorIs(t, f.app.CleanupReports(context.Background()), ErrNoCleanablePackages)
	assert.Equal(t, []string{"Package Coverage\n\nNo cleanable packages could be found"}, f.notifier.errors)
}
