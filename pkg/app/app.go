// Package app implements the pcov commands on top of the terminal UI.
package app

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mslinn/package-coverage/pkg/archive"
	"github.com/mslinn/package-coverage/pkg/browser"
	"github.com/mslinn/package-coverage/pkg/config"
	"github.com/mslinn/package-coverage/pkg/git"
	"github.com/mslinn/package-coverage/pkg/history"
	"github.com/mslinn/package-coverage/pkg/suite"
	"github.com/mslinn/package-coverage/pkg/textfmt"
	"github.com/mslinn/package-coverage/pkg/ui"
)

var (
	ErrNoTestablePackages  = errors.New("no testable packages could be found")
	ErrNoCleanablePackages = errors.New("no cleanable packages could be found")
	ErrNoDatabase          = errors.New("no coverage database configured")
)

// App wires settings, package discovery and the UI together
type App struct {
	Settings      *config.Settings
	Registry      *suite.Registry
	PackagePicker ui.Picker
	CommitPicker  ui.Picker
	Prompter      ui.Prompter
	Notifier      history.Notifier
	Out           io.Writer // Output panel destination
	Git           archive.Git
	Open          func(target string) error
	Logger        zerolog.Logger
}

// New builds an app from loaded settings with interactive pickers
func New(settings *config.Settings, logger zerolog.Logger) *App {
	packagesPath := settings.Get(config.KeyPackages, config.DefaultConfig().PackagesPath)
	entry := settings.Get(config.KeyTestEntry, config.DefaultTestEntry)

	registry := suite.NewRegistry(packagesPath, entry)
	registry.GoBinary = settings.Get(config.KeyGoBinary, "go")
	registry.Logger = logger

	picker := ui.TeaPicker{Out: os.Stderr}
	return &App{
		Settings:      settings,
		Registry:      registry,
		PackagePicker: picker,
		CommitPicker:  picker,
		Prompter:      ui.TeaPrompter{Out: os.Stderr},
		Notifier:      ui.NewNotifier(os.Stdout, os.Stderr),
		Out:           os.Stdout,
		Git:           git.NewClient(),
		Open:          browser.Open,
		Logger:        logger,
	}
}

func (a *App) notifyError(message string) {
	a.Notifier.Error(textfmt.FormatMessage("Package Coverage\n\n" + message))
}

func (a *App) fail(message string, err error) error {
	a.notifyError(message)
	return err
}

func (a *App) databasePath() string {
	return a.Settings.Get(config.KeyDatabase, "")
}
