package app

import (
	"errors"

	"github.com/mslinn/package-coverage/pkg/config"
)

// SetDatabasePath stores the coverage database location in the project
// scope when a project file exists, otherwise in the user config. An invalid
// path is reported and the user is prompted again; a cancelled prompt
// changes nothing.
func (a *App) SetDatabasePath(requested string) error {
	caption := "User-Specific Coverage Database Path"
	if a.Settings.HasProject() {
		caption = "Project-Specific Coverage Database Path"
	}

	initial := a.Settings.Get(config.KeyDatabase, config.ExampleDatabasePath())
	for {
		if requested == "" {
			answer, ok, err := a.Prompter.Prompt(caption, initial)
			if err != nil || !ok {
				return err
			}
			requested = answer
		}

		err := config.ValidateDatabasePath(requested)
		if err == nil {
			break
		}

		var missing *config.MissingFolderError
		switch {
		case errors.Is(err, config.ErrNoFilename):
			a.notifyError("No filename provided for coverage database")
		case errors.As(err, &missing):
			a.notifyError("Folder provided for coverage database does not exist:\n\n" + missing.Dir)
		default:
			return err
		}
		initial, requested = requested, ""
	}

	var err error
	if a.Settings.HasProject() {
		err = a.Settings.SetProject(config.KeyDatabase, requested)
	} else {
		err = a.Settings.SetUser(config.KeyDatabase, requested)
	}
	if err != nil {
		return err
	}

	a.Notifier.Status("Package Coverage coverage database path saved")
	return nil
}
