package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var version = "dev" // Set by -ldflags during build

// Available subcommands
var subcommands = []struct {
	name        string
	description string
}{
	{"test", "Run a package's tests, optionally with coverage"},
	{"report", "Display archived coverage reports"},
	{"clean", "Remove generated coverage reports"},
	{"config", "Manage configuration"},
}

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("pcov version %s\n", version)
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) == 1 || os.Args[1] == "--help" || os.Args[1] == "-h" {
		printHelp()
		os.Exit(0)
	}

	// Get subcommand
	subcommand := os.Args[1]

	// Check if it's a valid subcommand
	if !isSubcommand(subcommand) {
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand '%s'\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	// Build the command name
	cmdName := "pcov-" + subcommand

	// Find the full path to the command
	cmdPath, err := exec.LookPath(cmdName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: command '%s' not found in PATH\n", cmdName)
		fmt.Fprintf(os.Stderr, "Make sure it is installed (try: go install ./cmd/...)\n")
		os.Exit(1)
	}

	// Prepare arguments (skip 'pcov' and the subcommand name)
	args := []string{filepath.Base(cmdPath)}
	if len(os.Args) > 2 {
		args = append(args, os.Args[2:]...)
	}

	// Execute the subcommand in place of this process so it receives signals
	// directly. If that fails, fall back to running it as a subprocess and
	// pass its exit code on.
	if err := replaceProcess(cmdPath, args); err != nil {
		os.Exit(runSubprocess(cmdName, cmdPath, args[1:]))
	}
}

func isSubcommand(name string) bool {
	for _, sc := range subcommands {
		if sc.name == name {
			return true
		}
	}
	return false
}

// runSubprocess runs the command as a child and returns its exit code
func runSubprocess(cmdName, cmdPath string, args []string) int {
	cmd := exec.Command(cmdPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing %s: %v\n", cmdName, err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: pcov <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Available commands:\n")
	for _, sc := range subcommands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", sc.name, sc.description)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'pcov <command> --help' for more information on a command.\n")
}

func printHelp() {
	fmt.Printf("pcov - Package Coverage\n\n")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Runs the tests of Go packages kept under a common packages folder, measures\n")
	fmt.Printf("  their coverage and archives the results per git commit in a SQLite database.\n")
	fmt.Printf("  This is a unified command that dispatches to the individual pcov-* tools.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  pcov <command> [options]\n\n")

	fmt.Printf("AVAILABLE COMMANDS:\n")
	for _, sc := range subcommands {
		fmt.Printf("  %-12s %s\n", sc.name, sc.description)
	}

	fmt.Printf("\nGLOBAL OPTIONS:\n")
	fmt.Printf("  -h, --help       Show this help message\n")
	fmt.Printf("  -V, --version    Show version\n\n")

	fmt.Printf("EXAMPLES:\n")
	fmt.Printf("  # Run the tests of a package, picking it interactively\n")
	fmt.Printf("  pcov test\n\n")

	fmt.Printf("  # Run with coverage and archive the results\n")
	fmt.Printf("  pcov test --coverage --package Foo\n\n")

	fmt.Printf("  # Browse archived reports\n")
	fmt.Printf("  pcov report\n\n")

	fmt.Printf("GETTING STARTED:\n")
	fmt.Printf("  1. Set up configuration:\n")
	fmt.Printf("       pcov config init\n")
	fmt.Printf("       pcov config set packages_path ~/go/packages\n\n")

	fmt.Printf("  2. Choose where coverage results are archived:\n")
	fmt.Printf("       pcov config set-db ~/package_coverage.sqlite\n\n")

	fmt.Printf("  3. Run a package's tests with coverage:\n")
	fmt.Printf("       pcov test -c\n\n")

	fmt.Printf("For detailed help on any command:\n")
	fmt.Printf("  pcov <command> --help\n")
}
