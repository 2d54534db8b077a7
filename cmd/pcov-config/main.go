package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mslinn/package-coverage/pkg/app"
	"github.com/mslinn/package-coverage/pkg/config"
	"github.com/mslinn/package-coverage/pkg/logging"
	"github.com/spf13/pflag"
)

var version = "dev" // Set by -ldflags during build

func main() {
	var (
		showVersion bool
		showHelp    bool
		configPath  string
	)

	pflag.BoolVarP(&showVersion, "version", "V", false, "Show version and exit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show this help message")
	pflag.StringVar(&configPath, "config", "", "Path to config file (default: ~/.pcov-config)")

	// Subcommand flags such as --force belong to the subcommand's own flag set
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if showVersion {
		fmt.Printf("pcov-config version %s\n", version)
		os.Exit(0)
	}

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	args := pflag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: subcommand required\n\n")
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]

	if configPath != "" {
		os.Setenv("PCOV_CONFIG", configPath)
	}

	switch subcommand {
	case "init":
		handleInit(args[1:])
	case "set":
		handleSet(args[1:])
	case "get":
		handleGet(args[1:])
	case "set-db":
		handleSetDB(args[1:])
	case "show":
		handleShow()
	case "path":
		handlePath()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown subcommand '%s'\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func handleInit(args []string) {
	var force bool
	flags := pflag.NewFlagSet("init", pflag.ExitOnError)
	flags.BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	flags.Parse(args)

	configPath := config.GetConfigPath()

	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(os.Stderr, "Error: config file already exists at %s\n", configPath)
		fmt.Fprintf(os.Stderr, "Use --force to overwrite\n")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Created config file at %s\n", configPath)
	fmt.Println("\nDefault configuration:")
	fmt.Printf("  %s: %s\n", config.KeyPackages, cfg.PackagesPath)
	fmt.Printf("  %s: %s\n", config.KeyTestEntry, cfg.TestEntry)
	fmt.Printf("  %s: %s\n", config.KeyGoBinary, cfg.GoBinary)
	fmt.Println("\nEdit the file or use 'pcov-config set' to customize.")
}

func handleSet(args []string) {
	var project bool
	flags := pflag.NewFlagSet("set", pflag.ExitOnError)
	flags.BoolVar(&project, "project", false, "Write to "+config.ProjectFileName+" in the current directory")
	flags.Parse(args)
	args = flags.Args()

	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Error: 'set' requires KEY and VALUE arguments\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pcov-config set [--project] KEY VALUE\n")
		printKeys(os.Stderr)
		os.Exit(1)
	}

	key := args[0]
	value := args[1]

	if project {
		settings := loadSettings()
		if !settings.HasProject() {
			cwd, _ := os.Getwd()
			settings.ProjectFile = filepath.Join(cwd, config.ProjectFileName)
		}
		if err := settings.SetProject(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Set %s = %v in %s\n", key, value, config.ProjectFileName)
		return
	}

	cfg, err := config.LoadFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Try running 'pcov-config init' first\n")
		os.Exit(1)
	}

	if err := cfg.Set(key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Valid keys: %s\n", strings.Join(config.Keys(), ", "))
		os.Exit(1)
	}

	configPath := config.GetConfigPath()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Set %s = %v\n", key, value)
}

func handleGet(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: 'get' requires KEY argument\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pcov-config get KEY\n")
		fmt.Fprintf(os.Stderr, "\nValid keys: %s\n", strings.Join(config.Keys(), ", "))
		os.Exit(1)
	}

	key := args[0]
	if _, err := config.DefaultConfig().Get(key); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Valid keys: %s\n", strings.Join(config.Keys(), ", "))
		os.Exit(1)
	}

	// Project overrides win over the user config
	fmt.Println(loadSettings().Get(key, ""))
}

func handleSetDB(args []string) {
	requested := ""
	if len(args) > 0 {
		requested = args[0]
	}

	a := app.New(loadSettings(), logging.New(false))
	if err := a.SetDatabasePath(requested); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleShow() {
	cfg, err := config.LoadFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration from: %s\n\n", config.GetConfigPath())
	for _, key := range config.Keys() {
		value, _ := cfg.Get(key)
		fmt.Printf("%-18s %s\n", key+":", value)
	}

	settings := loadSettings()
	if settings.HasProject() {
		fmt.Printf("\nEffective values with %s:\n", config.ProjectFileName)
		for _, key := range config.Keys() {
			fmt.Printf("  %-18s %s\n", key+":", settings.Get(key, ""))
		}
	}

	fmt.Println("\nEnvironment variable overrides:")
	if dbPath := os.Getenv("PCOV_DATABASE"); dbPath != "" {
		fmt.Printf("  PCOV_DATABASE=%s (overrides %s)\n", dbPath, config.KeyDatabase)
	}
	if packages := os.Getenv("PCOV_PACKAGES"); packages != "" {
		fmt.Printf("  PCOV_PACKAGES=%s (overrides %s)\n", packages, config.KeyPackages)
	}
}

func handlePath() {
	fmt.Println(config.GetConfigPath())
}

func loadSettings() *config.Settings {
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
	return config.NewSettings(cfg, cwd)
}

func printKeys(w *os.File) {
	fmt.Fprintf(w, "\nValid keys:\n")
	fmt.Fprintf(w, "  %-18s Path to the SQLite coverage database\n", config.KeyDatabase)
	fmt.Fprintf(w, "  %-18s Folder holding one directory per package\n", config.KeyPackages)
	fmt.Fprintf(w, "  %-18s File that marks a package as testable\n", config.KeyTestEntry)
	fmt.Fprintf(w, "  %-18s Go toolchain used to run tests\n", config.KeyGoBinary)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: pcov-config [OPTIONS] SUBCOMMAND\n\n")
	fmt.Fprintf(os.Stderr, "Manage package coverage configuration\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  init          Create default config file\n")
	fmt.Fprintf(os.Stderr, "  set KEY VAL   Set configuration value\n")
	fmt.Fprintf(os.Stderr, "  get KEY       Get configuration value\n")
	fmt.Fprintf(os.Stderr, "  set-db [PATH] Set the coverage database path\n")
	fmt.Fprintf(os.Stderr, "  show          Show all configuration\n")
	fmt.Fprintf(os.Stderr, "  path          Show config file path\n\n")
	pflag.PrintDefaults()
}

func printHelp() {
	fmt.Printf("pcov-config - Manage package coverage configuration\n\n")
	fmt.Printf("Version: %s\n\n", version)

	fmt.Printf("DESCRIPTION:\n")
	fmt.Printf("  Manages configuration for the pcov commands. User configuration is stored in\n")
	fmt.Printf("  ~/.pcov-config by default. A %s file in the current directory\n", config.ProjectFileName)
	fmt.Printf("  overrides it for one project.\n\n")

	fmt.Printf("USAGE:\n")
	fmt.Printf("  pcov-config [OPTIONS] SUBCOMMAND\n\n")

	fmt.Printf("SUBCOMMANDS:\n")
	fmt.Printf("  init            Create default configuration file\n")
	fmt.Printf("  set KEY VAL     Set a configuration value (--project for the project file)\n")
	fmt.Printf("  get KEY         Get the effective value of a key\n")
	fmt.Printf("  set-db [PATH]   Set the coverage database path, prompting when PATH is omitted\n")
	fmt.Printf("  show            Display all configuration values\n")
	fmt.Printf("  path            Show the config file path\n")
	printKeys(os.Stdout)

	fmt.Printf("\nENVIRONMENT VARIABLES:\n")
	fmt.Printf("  PCOV_CONFIG      Path to config file\n")
	fmt.Printf("  PCOV_DATABASE    Override %s\n", config.KeyDatabase)
	fmt.Printf("  PCOV_PACKAGES    Override %s\n\n", config.KeyPackages)

	fmt.Printf("OPTIONS:\n")
	pflag.PrintDefaults()

	fmt.Printf("\nEXAMPLES:\n")
	fmt.Printf("  # Create default config\n")
	fmt.Printf("  pcov-config init\n\n")

	fmt.Printf("  # Archive results in a shared database\n")
	fmt.Printf("  pcov-config set-db ~/Dropbox/package_coverage.sqlite\n\n")

	fmt.Printf("  # Use a different toolchain for one project\n")
	fmt.Printf("  pcov-config set --project go_binary go1.23.4\n")
}
