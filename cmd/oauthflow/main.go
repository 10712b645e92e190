package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel string

	version = "v0.1.0" // Injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "oauthflow",
		Short:   "OAuth 2.0 client flows for the API client: callback host and terminal sign in",
		Version: version,
		// Running without a subcommand hosts the callback
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAuthorizeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
