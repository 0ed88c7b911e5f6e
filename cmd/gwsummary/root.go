// Package main provides the entry point for the gwsummary CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gwsummary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gwsummary",
		Short: "Generate detector summary report pages",
		Long: `gwsummary builds static HTML summary pages for a gravitational-wave
detector over a day, week, month, or arbitrary GPS span.

Tabs, channels, and states are described in INI configuration files.
Section names and values may reference %(ifo)s, interpolated from the
--ifo flag.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewDayCmd())
	cmd.AddCommand(NewWeekCmd())
	cmd.AddCommand(NewMonthCmd())
	cmd.AddCommand(NewGPSCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
