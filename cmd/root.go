// Package cmd holds the command line entry points
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "portalevents",
	Short:         "portalevents extracts upcoming events from a members portal.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the command selected on the command line
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
