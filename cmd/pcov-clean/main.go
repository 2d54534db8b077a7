package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mslinn/package-coverage/pkg/app"
	"github.com/mslinn/package-coverage/pkg/config"
	"github.com/mslinn/package-coverage/pkg/logging"
	"github.com/mslinn/package-coverage/pkg/ui"
	"github.com/spf13/pflag"
)

var version = "dev" // Set by -ldflags during build

func main() {
	var (
		showVersion bool
		showHelp    bool
		debug       bool
		packageName string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	pflag.StringVarP(&packageName, "package", "p", "", "Package to clean (default: pick interactively)")

	pflag.Parse()

	if showVersion {
		fmt.Printf("pcov-clean version %s\n", version)
		os.Exit(0)
	}

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(debug)
	a := app.New(config.NewSettings(cfg, cwd), logger)
	a.PackagePicker = ui.NamePicker{Name: packageName, Fallback: a.PackagePicker}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.CleanupReports(ctx); err != nil {
		logger.Debug().Err(err).Msg("pcov-clean failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("pcov-clean - Remove generated coverage reports\n\n")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Deletes the HTML reports generated under dev/coverage_reports of a package.\n")
	fmt.Printf("  Results archived in the coverage database are kept.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  pcov-clean [OPTIONS]\n\n")

	fmt.Printf("OPTIONS:\n")
	pflag.PrintDefaults()
}
