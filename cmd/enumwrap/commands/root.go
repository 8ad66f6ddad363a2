// Package commands provides the CLI commands for the enumwrap tool.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"martianoff/enumwrap/internal/build"
	"martianoff/enumwrap/internal/logger"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	hintColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
)

var (
	configPath string
	verbose    bool
	jsonLog    bool
	jobs       int
)

var rootCmd = &cobra.Command{
	Use:   "enumwrap",
	Short: "Tagged unions that implement interfaces by dispatch",
	Long: `enumwrap expands union declarations into tagged unions.

An interface annotated with //enumwrap:impl can be implemented by any union
that names it in //enumwrap:auto_impl(...). Every method of the union switches
on the active variant and forwards the call to it.

Union declarations live in files guarded by //go:build enumwrap; the expansion
is written next to them as <name>_enumwrap.go.

Usage:
  enumwrap generate [dirs...]   Expand union declarations
  enumwrap scan [dirs...]       List registered interfaces and unions
  enumwrap version              Print version`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an enumwrap.toml (default: <first dir>/enumwrap.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log registrations and timings")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Log as JSON")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Files processed at once (default: GOMAXPROCS)")
}

// setup loads the configuration, lets explicitly set flags override it and
// starts the logger.
func setup(cmd *cobra.Command, dirs []string) (*build.Config, error) {
	var (
		cfg *build.Config
		err error
	)
	if configPath != "" {
		cfg, err = build.LoadConfigFile(configPath)
	} else {
		cfg, err = build.LoadConfig(dirs[0])
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("json-log") {
		cfg.LogJSON = jsonLog
	}
	if flags.Changed("jobs") {
		cfg.Jobs = jobs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Initialize(cfg.Verbose, cfg.LogJSON); err != nil {
		return nil, errors.Wrap(err, "initializing logger")
	}
	return cfg, nil
}

func dirsOrCurrent(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// printError reports err and any hints attached to it.
func printError(w io.Writer, err error) {
	errorColor.Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
	for _, hint := range errors.GetAllHints(err) {
		hintColor.Fprintf(w, "hint: %s\n", hint)
	}
}
