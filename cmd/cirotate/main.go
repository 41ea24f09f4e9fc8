package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/condaops/cirotate/cmd/cirotate/commands"
	"github.com/condaops/cirotate/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// wipe every protected token buffer on exit
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	var (
		noColor bool
		debug   bool
	)

	cfg := &commands.Config{}

	rootCmd := &cobra.Command{
		Use:   "cirotate",
		Short: "Rotate the anaconda token across a feedstock's CI providers",
		Long: `cirotate replaces the anaconda (binstar) upload token registered with a
feedstock's CI providers, so the token can be rotated without touching each
provider's console by hand.

Provider output is suppressed and provider errors are sanitized so the token
never leaks through logs. Define DEBUG_ANACONDA_TOKENS in the environment to
see raw provider output and errors while troubleshooting locally.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Logger = logging.New(os.Stderr, debug, noColor)
			cfg.Debug = debug
			cfg.NoColor = noColor
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewRotateCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewProvidersCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
