package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
)

// addSharedFlags installs the options every mode subcommand accepts.
func addSharedFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("ifo", "i", "",
		"Interferometer prefix (e.g. L1), available to configuration as %(ifo)s")
	cmd.Flags().StringSliceP("config-file", "f", nil,
		"INI configuration file (repeatable, later files override earlier ones)")
	cmd.Flags().StringSlice("process-tab", nil,
		"Process only the named tabs (repeatable)")
	cmd.Flags().String("nds", "",
		"Fetch time-series data from this NDS endpoint instead of cache files")
	cmd.Flags().IntP("multi-process", "j", config.DefaultProcesses,
		"Number of concurrent data fetches")
	cmd.Flags().BoolP("bulk-read", "b", false,
		"Prefetch all data referenced by any tab before processing")
	cmd.Flags().String("on-segdb-error", string(config.PolicyRaise),
		"Action on segment-database error: raise, warn, or ignore")
	cmd.Flags().String("on-datafind-error", string(config.PolicyRaise),
		"Action on data-discovery error: raise, warn, or ignore")
	cmd.Flags().String("segment-url", "",
		"Segment-database endpoint queried for flags not in the segment cache")
	cmd.Flags().String("data-cache", "", "Cache file naming time-series data files")
	cmd.Flags().String("trigger-cache", "", "Cache file naming event-trigger files")
	cmd.Flags().String("segment-cache", "", "Cache file naming segment files")
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Root directory for the HTML tree")
	cmd.Flags().Bool("html-only", false,
		"Rewrite HTML from existing figures without fetching or plotting")
	cmd.Flags().Bool("no-html", false,
		"Fetch and plot but write no HTML")
	cmd.Flags().StringSliceP("archive", "a", nil,
		"Write an archive with this tag for the full span (repeatable)")
	cmd.Flags().StringSlice("daily-archive", nil,
		"Write one archive per UTC day with this tag (repeatable)")
	cmd.Flags().String("archive-dir", "",
		"Directory for archives (default: the XDG data directory)")
	cmd.Flags().String("defaults", "",
		"Defaults file path (default: "+config.DefaultsFile+" in current or home directory)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig reads the shared flags into a run configuration and folds
// in the optional defaults file. Flags always win over defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()
	flags := cmd.Flags()

	cfg.IFO, _ = flags.GetString("ifo")
	cfg.ConfigFiles, _ = flags.GetStringSlice("config-file")
	cfg.Tabs, _ = flags.GetStringSlice("process-tab")
	cfg.NDS, _ = flags.GetString("nds")
	cfg.Processes, _ = flags.GetInt("multi-process")
	cfg.BulkRead, _ = flags.GetBool("bulk-read")
	segdb, _ := flags.GetString("on-segdb-error")
	cfg.OnSegDBError = config.ErrorPolicy(segdb)
	datafind, _ := flags.GetString("on-datafind-error")
	cfg.OnDataFindError = config.ErrorPolicy(datafind)
	cfg.SegmentURL, _ = flags.GetString("segment-url")
	cfg.DataCache, _ = flags.GetString("data-cache")
	cfg.TriggerCache, _ = flags.GetString("trigger-cache")
	cfg.SegmentCache, _ = flags.GetString("segment-cache")
	cfg.OutputDir, _ = flags.GetString("output-dir")
	cfg.HTMLOnly, _ = flags.GetBool("html-only")
	cfg.NoHTML, _ = flags.GetBool("no-html")
	cfg.ArchiveTags, _ = flags.GetStringSlice("archive")
	cfg.DailyArchiveTags, _ = flags.GetStringSlice("daily-archive")
	if v, _ := flags.GetString("archive-dir"); v != "" {
		cfg.ArchiveDir = v
	}
	cfg.Verbose = getVerboseFlag(cmd)

	defaultsPath, _ := flags.GetString("defaults")
	if path := config.FindDefaultsFile(defaultsPath); path != "" {
		d, err := config.LoadDefaults(path)
		if err != nil && !errors.Is(err, config.ErrDefaultsNotFound) {
			return nil, err
		}
		if d != nil {
			d.Apply(cfg)
		}
	}
	return cfg, nil
}

// NewDayCmd creates the day command.
func NewDayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day [YYYYMMDD]",
		Short: "Summarise one UTC day (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now().UTC()
			if len(args) == 1 {
				var err error
				if date, err = gpstime.ParseDate(args[0]); err != nil {
					return err
				}
			}
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeDay
			cfg.Span = gpstime.DaySpan(date)
			return run(cmd, cfg)
		},
	}
	addSharedFlags(cmd)
	return cmd
}

// NewWeekCmd creates the week command. The argument must be a Monday.
func NewWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week YYYYMMDD",
		Short: "Summarise one ISO week starting on the given Monday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			monday, err := gpstime.ParseDate(args[0])
			if err != nil {
				return err
			}
			span, err := gpstime.WeekSpan(monday)
			if err != nil {
				return err
			}
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeWeek
			cfg.Span = span
			return run(cmd, cfg)
		},
	}
	addSharedFlags(cmd)
	return cmd
}

// NewMonthCmd creates the month command.
func NewMonthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month [YYYYMM]",
		Short: "Summarise one calendar month (default: this month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			year, month := now.Year(), now.Month()
			if len(args) == 1 {
				var err error
				if year, month, err = parseMonth(args[0]); err != nil {
					return err
				}
			}
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeMonth
			cfg.Span = gpstime.MonthSpan(year, month)
			return run(cmd, cfg)
		},
	}
	addSharedFlags(cmd)
	return cmd
}

func parseMonth(s string) (int, time.Month, error) {
	if len(s) != 6 {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYYMM", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYYMM", s)
	}
	m, err := strconv.Atoi(s[4:])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYYMM", s)
	}
	return year, time.Month(m), nil
}

// NewGPSCmd creates the gps command.
func NewGPSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gps GPSSTART GPSEND",
		Short: "Summarise an arbitrary GPS span",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := gpstime.Parse(args[0])
			if err != nil {
				return err
			}
			end, err := gpstime.Parse(args[1])
			if err != nil {
				return err
			}
			span, err := gpstime.NewSpan(start, end)
			if err != nil {
				return err
			}
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeGPS
			cfg.Span = span
			return run(cmd, cfg)
		},
	}
	addSharedFlags(cmd)
	return cmd
}
