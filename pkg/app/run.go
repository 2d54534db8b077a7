package app

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/mslinn/package-coverage/pkg/archive"
	"github.com/mslinn/package-coverage/pkg/coverage"
	"github.com/mslinn/package-coverage/pkg/database"
	"github.com/mslinn/package-coverage/pkg/relay"
	"github.com/mslinn/package-coverage/pkg/suite"
	"github.com/mslinn/package-coverage/pkg/ui"
)

// Options selects what RunTests does
type Options struct {
	Coverage bool
	Verbose  bool
}

// pickPackage discovers testable packages and lets the user choose one.
// A nil suite means the user cancelled.
func (a *App) pickPackage() (suite.Suite, error) {
	names, err := a.Registry.Discover()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, a.fail("No testable packages could be found", ErrNoTestablePackages)
	}

	index, err := a.PackagePicker.Pick("Package", names)
	if err != nil || index == ui.NoSelection {
		return nil, err
	}

	s, ok := a.Registry.Lookup(names[index])
	if !ok {
		return nil, fmt.Errorf("no suite registered for %s", names[index])
	}
	return s, nil
}

// RunTests runs the tests of a chosen package, streaming output to the
// panel. With coverage enabled it appends the summary table and, when a
// database is configured and the tree is clean, archives the results.
func (a *App) RunTests(ctx context.Context, opts Options) error {
	s, err := a.pickPackage()
	if err != nil || s == nil {
		return err
	}
	name, dir := s.Name(), s.Dir()

	var db *database.DB
	if path := a.databasePath(); path != "" {
		if db, err = database.Open(path); err != nil {
			return err
		}
		defer db.Close()
	}

	runOpts := suite.RunOptions{Verbose: opts.Verbose}
	title := fmt.Sprintf("Running %s Tests", name)

	var session *coverage.Session
	var capture bytes.Buffer
	var captureTo io.Writer
	if opts.Coverage {
		packages, err := s.Packages(ctx)
		if err != nil {
			return err
		}
		if session, err = coverage.Start(name, dir, packages); err != nil {
			return err
		}
		defer session.Close()

		runOpts.CoverProfile = session.Profile
		runOpts.CoverPackages = session.CoverPackages()
		captureTo = &capture
		title = fmt.Sprintf("Measuring %s Coverage", name)
	}

	buffer := relay.NewBuffer()
	loop := ui.NewLoop()
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	displayDone := make(chan error, 1)
	go func() {
		displayDone <- relay.Display(ctx, relay.DisplayOptions{
			Headline:  ui.Headline(title),
			Panel:     ui.NewPanel(name+"_tests", a.Out),
			Scheduler: loop,
			Buffer:    buffer,
			Capture:   captureTo,
		})
	}()

	workerDone := make(chan error, 1)
	go func() { workerDone <- s.Run(ctx, buffer, runOpts) }()
	runErr := <-workerDone

	var result *coverage.Result
	if runErr == nil && session != nil {
		buffer.Append("\n")
		if result, runErr = session.Finish(); runErr == nil {
			buffer.Append(result.Summary)
		}
	}

	buffer.Finish()
	displayErr := <-displayDone
	loop.Stop()
	loopErr := <-loopDone

	for _, err := range []error{runErr, displayErr, loopErr} {
		if err != nil {
			return err
		}
	}

	if result == nil || db == nil {
		return nil
	}
	if len(result.Data.Files()) == 0 {
		a.Logger.Warn().Str("package", name).
			Msg("Package Coverage: not saving results to coverage database since no coverage data was recorded")
		return nil
	}

	_, err = archive.New(db, a.Git, a.Logger).Archive(ctx, archive.Input{
		Project:    name,
		PackageDir: dir,
		Data:       result.Data.Encode(),
		PathPrefix: session.PathPrefix(result.UsedShort),
		Output:     capture.String(),
	})
	return err
}

// ListTests prints the tests of a chosen package
func (a *App) ListTests(ctx context.Context, w io.Writer) error {
	s, err := a.pickPackage()
	if err != nil || s == nil {
		return err
	}

	names, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}
