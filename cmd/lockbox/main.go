package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "lockbox",
	Short:         "Local secure key-value storage",
	Long:          "lockbox stores secrets behind a platform-agnostic storage façade,\nserved over a localhost API with per-key change notifications.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		startCmd, stopCmd, statusCmd,
		getCmd, setCmd, unsetCmd, listCmd, existsCmd, watchCmd,
		purgeCmd, exportCmd,
		configCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
