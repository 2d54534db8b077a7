package app

import (
	"context"
	"io"

	"github.com/mslinn/package-coverage/pkg/database"
	"github.com/mslinn/package-coverage/pkg/history"
	"github.com/mslinn/package-coverage/pkg/ui"
)

func (a *App) openDatabase() (*database.DB, error) {
	path := a.databasePath()
	if path == "" {
		return nil, a.fail("No coverage database has been configured, run pcov-config set-db first", ErrNoDatabase)
	}
	return database.Open(path)
}

// DisplayReport lets the user pick a package and an archived commit, then
// opens the merged HTML report of that commit
func (a *App) DisplayReport(ctx context.Context) error {
	names, err := a.Registry.Discover()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return a.fail("No testable packages could be found", ErrNoTestablePackages)
	}

	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	loop := ui.NewLoop()
	b := &history.Browser{
		Store:         db,
		Loop:          loop,
		PackagePicker: a.PackagePicker,
		CommitPicker:  a.CommitPicker,
		Notifier:      a.Notifier,
		PackageDir:    a.Registry.PackageDir,
		Open:          a.Open,
		Logger:        a.Logger,
	}

	var result error
	b.Browse(names, func(err error) {
		result = err
		loop.Stop()
	})
	if err := loop.Run(ctx); err != nil {
		return err
	}
	return result
}

// ListReports prints the archived commits of one project, or of every
// project when project is empty
func (a *App) ListReports(w io.Writer, project string) error {
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	projects := []string{project}
	if project == "" {
		if projects, err = db.ListProjects(); err != nil {
			return err
		}
	}

	for _, p := range projects {
		commits, err := db.ListCommits(p)
		if err != nil {
			return err
		}
		counts := make(map[string]int, len(commits))
		for _, c := range commits {
			if counts[c.Hash], err = db.CountResults(p, c.Hash); err != nil {
				return err
			}
		}
		history.WriteCommitTable(w, p, commits, counts)
	}
	return nil
}
