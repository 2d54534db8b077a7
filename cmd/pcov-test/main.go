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
		withCover   bool
		listTests   bool
		verbose     bool
		debug       bool
		packageName string
		dbPath      string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.BoolVarP(&withCover, "coverage", "c", false, "Measure coverage and archive the results")
	pflag.BoolVar(&listTests, "list", false, "List the package's tests instead of running them")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Pass -v to go test")
	pflag.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	pflag.StringVarP(&packageName, "package", "p", "", "Package to test (default: pick interactively)")
	pflag.StringVar(&dbPath, "db", "", "Coverage database path (overrides configuration)")

	pflag.Parse()

	if showVersion {
		fmt.Printf("pcov-test version %s\n", version)
		os.Exit(0)
	}

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	if pflag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument '%s'\n\n", pflag.Arg(0))
		printUsage()
		os.Exit(1)
	}

	if dbPath != "" {
		os.Setenv("PCOV_DATABASE", dbPath)
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

	if listTests {
		err = a.ListTests(ctx, os.Stdout)
	} else {
		err = a.RunTests(ctx, app.Options{Coverage: withCover, Verbose: verbose})
	}
	if err != nil {
		logger.Debug().Err(err).Msg("pcov-test failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: pcov-test [OPTIONS]\n\n")
	fmt.Fprintf(os.Stderr, "Run the tests of a package\n\n")
	pflag.PrintDefaults()
}

func printHelp() {
	fmt.Printf("pcov-test - Run the tests of a package\n\n")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Runs the dev/ test suite of a package found under packages_path and streams\n")
	fmt.Printf("  its output. With --coverage the coverage summary is appended and, when a\n")
	fmt.Printf("  coverage database is configured and the package's git tree is clean, the\n")
	fmt.Printf("  results are archived against the HEAD commit.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  pcov-test [OPTIONS]\n\n")

	fmt.Printf("OPTIONS:\n")
	pflag.PrintDefaults()

	fmt.Printf("\nEXAMPLES:\n")
	fmt.Printf("  # Pick a package and run its tests\n")
	fmt.Printf("  pcov-test\n\n")

	fmt.Printf("  # Run the tests of Foo with coverage\n")
	fmt.Printf("  pcov-test -c -p Foo\n\n")

	fmt.Printf("  # List the tests of Foo\n")
	fmt.Printf("  pcov-test --list -p Foo\n")
}
