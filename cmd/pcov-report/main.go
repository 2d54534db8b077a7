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
		commit      string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	pflag.StringVarP(&packageName, "package", "p", "", "Package whose reports to show (default: pick interactively)")
	pflag.StringVar(&commit, "commit", "", "Commit hash prefix to report on (default: pick interactively)")

	pflag.Parse()

	if showVersion {
		fmt.Printf("pcov-report version %s\n", version)
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

	args := pflag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "list":
			err = a.ListReports(os.Stdout, packageName)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown subcommand '%s'\n\n", args[0])
			printUsage()
			os.Exit(1)
		}
	} else {
		a.PackagePicker = ui.NamePicker{Name: packageName, Fallback: a.PackagePicker}
		a.CommitPicker = ui.PrefixPicker{Prefix: commit, Fallback: a.CommitPicker}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = a.DisplayReport(ctx)
	}
	if err != nil {
		logger.Debug().Err(err).Msg("pcov-report failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: pcov-report [OPTIONS] [list]\n\n")
	fmt.Fprintf(os.Stderr, "Display archived coverage reports\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  list          List archived commits instead of opening a report\n\n")
	pflag.PrintDefaults()
}

func printHelp() {
	fmt.Printf("pcov-report - Display archived coverage reports\n\n")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Merges every archived coverage result of one commit of a package into an\n")
	fmt.Printf("  HTML report under dev/coverage_reports/<hash> and opens it in the browser.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  pcov-report [OPTIONS]\n")
	fmt.Printf("  pcov-report [--package NAME] list\n\n")

	fmt.Printf("OPTIONS:\n")
	pflag.PrintDefaults()

	fmt.Printf("\nEXAMPLES:\n")
	fmt.Printf("  # Pick a package and commit interactively\n")
	fmt.Printf("  pcov-report\n\n")

	fmt.Printf("  # Open the report of commit 1a2b3c of Foo\n")
	fmt.Printf("  pcov-report -p Foo --commit 1a2b3c\n\n")

	fmt.Printf("  # Show what is archived for every package\n")
	fmt.Printf("  pcov-report list\n")
}
