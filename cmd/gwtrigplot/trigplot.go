// Package main provides the entry point for the gwtrigplot CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/gpstime"
	gwlog "github.com/gwdetchar/gwsummary/internal/log"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/plot"
	"github.com/gwdetchar/gwsummary/internal/segments"
	"github.com/gwdetchar/gwsummary/internal/triggers"
)

// NewRootCmd creates the root command for gwtrigplot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gwtrigplot CHANNEL GPSSTART GPSEND [key=value ...]",
		Short: "Plot event triggers for one channel",
		Long: `gwtrigplot reads event triggers for one channel and event-trigger
generator over a GPS span and renders them as a time-frequency scatter
colored by SNR, or as a tile plot with --tiles.

When a minimum SNR or a state flag is given, the full trigger set is
drawn dimmed with the passing triggers highlighted on top.

Extra arguments of the form key=value are parsed as literals and passed
to the plot (title, ylim, logy, width, height, ...).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(3),
		RunE:          runTrigPlot,
	}

	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.Flags().StringP("etg", "e", config.DefaultETG, "Event-trigger generator name")
	cmd.Flags().Float64("epoch", 0, "GPS time plotted as t=0 (default: GPSSTART)")
	cmd.Flags().Float64("snr", 0, "Keep only triggers with SNR strictly above this")
	cmd.Flags().String("column", "frequency", "Column drawn on the Y axis")
	cmd.Flags().String("color", "snr", "Column mapped to color")
	cmd.Flags().StringSlice("columns", nil,
		"Read only these trigger-file columns (time, frequency, snr always kept)")
	cmd.Flags().StringP("output", "o", "triggers.png", "Output image path")
	cmd.Flags().String("state-flag", "",
		"Keep only triggers inside this flag's active segments")
	cmd.Flags().String("cache", "", "Cache file naming event-trigger files")
	cmd.Flags().String("segment-cache", "",
		"Cache file naming segment files for --state-flag")
	cmd.Flags().Bool("tiles", false,
		"Draw duration-by-bandwidth tiles instead of points")

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runTrigPlot executes the command.
func runTrigPlot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	logger, _ := gwlog.New(cmd.ErrOrStderr(), verbose)

	channel, err := model.ParseChannel(args[0], true)
	if err != nil {
		return err
	}
	start, err := gpstime.Parse(args[1])
	if err != nil {
		return err
	}
	end, err := gpstime.Parse(args[2])
	if err != nil {
		return err
	}
	span, err := gpstime.NewSpan(start, end)
	if err != nil {
		return err
	}
	params := plot.ParseParams(args[3:])

	etg, _ := flags.GetString("etg")
	cachePath, _ := flags.GetString("cache")
	var trigCache *cache.Cache
	if cachePath != "" {
		if trigCache, err = cache.Open(cachePath, cache.Trigger); err != nil {
			return err
		}
	}

	columns, _ := flags.GetStringSlice("columns")
	rows, err := triggers.GetTriggers(triggers.NewStore(), etg, channel, span, trigCache, columns...)
	if err != nil {
		return err
	}
	logger.Debug("triggers read", "channel", channel.String(), "etg", etg, "rows", len(rows))

	minSNR, _ := flags.GetFloat64("snr")
	stateFlag, _ := flags.GetString("state-flag")
	segPath, _ := flags.GetString("segment-cache")
	active, err := stateActive(cmd.Context(), stateFlag, segPath, span, logger)
	if err != nil {
		return err
	}

	// With a filter requested, the full set stays visible under the
	// highlighted passing triggers. The threshold is strict, so an
	// explicit --snr 0 still drops zero-SNR rows.
	var highlight []model.Trigger
	if flags.Changed("snr") || active != nil {
		highlight = triggers.Filter(rows, minSNR, active)
	}

	epoch, _ := flags.GetFloat64("epoch")
	column, _ := flags.GetString("column")
	colorCol, _ := flags.GetString("color")
	tiles, _ := flags.GetBool("tiles")
	output, _ := flags.GetString("output")

	err = plot.SaveTriggerPlot(output, rows, highlight, span, plot.TriggerOptions{
		Channel:     channel.String(),
		ETG:         etg,
		Epoch:       epoch,
		Column:      column,
		ColorColumn: colorCol,
		Tiles:       tiles,
		Params:      params,
	})
	if err != nil {
		return err
	}

	shown := len(rows)
	if highlight != nil {
		shown = len(highlight)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d triggers in %s, %d shown, written to %s\n",
		channel, etg, len(rows), span, shown, output)
	return nil
}

// stateActive resolves the active segments of the state flag, when one
// was requested. nil means no restriction.
func stateActive(ctx context.Context, name, segPath string, span gpstime.Span, logger *slog.Logger) (model.SegmentList, error) {
	if name == "" {
		return nil, nil
	}
	if segPath == "" {
		return nil, fmt.Errorf("--state-flag requires --segment-cache")
	}
	segCache, err := cache.Open(segPath, cache.Segment)
	if err != nil {
		return nil, err
	}
	store := segments.NewStore()
	err = segments.Fetch(ctx, store, []string{name}, span, segments.Options{
		Cache:  segCache,
		Policy: config.PolicyRaise,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	flag, ok := store.Get(name)
	if !ok {
		return model.SegmentList{}, nil
	}
	return flag.Active, nil
}
