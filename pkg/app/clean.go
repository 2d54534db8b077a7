package app

import (
	"context"
	"time"

	"github.com/mslinn/package-coverage/pkg/history"
	"github.com/mslinn/package-coverage/pkg/suite"
	"github.com/mslinn/package-coverage/pkg/ui"
)

// CleanupReports lets the user pick a package with generated reports and
// removes them. Archived results are never touched.
func (a *App) CleanupReports(ctx context.Context) error {
	names, err := a.Registry.Cleanable()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return a.fail("No cleanable packages could be found", ErrNoCleanablePackages)
	}

	loop := ui.NewLoop()
	var result error
	done := func(err error) {
		result = err
		loop.Stop()
	}

	loop.Schedule(func() {
		index, err := a.PackagePicker.Pick("Package", names)
		if err != nil || index == ui.NoSelection {
			done(err)
			return
		}

		name := names[index]
		go func() {
			removed, err := history.Clean(suite.ReportsDir(a.Registry.PackageDir(name)))
			a.Logger.Debug().Str("package", name).Int("removed", removed).Msg("Cleaned coverage reports")

			loop.ScheduleAfter(10*time.Millisecond, func() {
				if err == nil {
					a.Notifier.Status(history.CleanedMessage(name))
				}
				done(err)
			})
		}()
	})

	if err := loop.Run(ctx); err != nil {
		return err
	}
	return result
}
