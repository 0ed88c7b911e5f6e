package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Stamped through ldflags on release builds; empty in a plain go build.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion falls back to the module build info when no release
// version was stamped in.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// buildDetails resolves the commit and build date, reading the VCS
// build settings for whichever ldflags left empty.
func buildDetails() (commitHash, buildDate string) {
	commitHash, buildDate = commit, date
	if commitHash != "" && buildDate != "" {
		return commitHash, buildDate
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commitHash == "" {
					commitHash = s.Value
					if len(commitHash) > 7 {
						commitHash = commitHash[:7]
					}
				}
			case "vcs.time":
				if buildDate == "" {
					buildDate = s.Value
				}
			}
		}
	}
	if commitHash == "" {
		commitHash = "unknown"
	}
	if buildDate == "" {
		buildDate = "unknown"
	}
	return commitHash, buildDate
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			commitHash, buildDate := buildDetails()
			fmt.Fprintf(cmd.OutOrStdout(), "gwsummary version %s (%s, built %s)\n",
				getVersion(), commitHash, buildDate)
		},
	}
}
