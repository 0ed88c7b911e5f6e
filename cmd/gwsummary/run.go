package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gwdetchar/gwsummary/internal/archive"
	"github.com/gwdetchar/gwsummary/internal/cache"
	"github.com/gwdetchar/gwsummary/internal/config"
	"github.com/gwdetchar/gwsummary/internal/data"
	gwlog "github.com/gwdetchar/gwsummary/internal/log"
	"github.com/gwdetchar/gwsummary/internal/report"
	"github.com/gwdetchar/gwsummary/internal/segments"
	"github.com/gwdetchar/gwsummary/internal/tabs"
	"github.com/gwdetchar/gwsummary/internal/triggers"
)

// run executes one summary run for a validated span.
func run(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, collector := gwlog.New(cmd.ErrOrStderr(), cfg.Verbose,
		slog.String("ifo", cfg.IFO), slog.String("span", cfg.Span.String()))

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runSummary(ctx, cfg, logger, collector)
}

// runSummary is the orchestration: configuration in, HTML tree out.
func runSummary(ctx context.Context, cfg *config.Config, logger *slog.Logger, collector *gwlog.Collector) error {
	logger.Info("starting summary run", "mode", cfg.Mode.String())

	ini, err := config.LoadINI(cfg.IFO, cfg.ConfigFiles...)
	if err != nil {
		return err
	}

	caches, err := openCaches(cfg)
	if err != nil {
		return err
	}

	stores := archive.Stores{
		Data:     data.NewStore(),
		Segments: segments.NewStore(),
		Triggers: triggers.NewStore(),
	}
	if err := readArchives(ctx, cfg, stores, logger); err != nil {
		return err
	}

	tabList, err := tabs.FromINI(ini, cfg.Tabs)
	if err != nil {
		return err
	}
	if len(tabList) == 0 {
		return fmt.Errorf("configuration defines no tabs to process")
	}
	hierarchy := tabs.BuildHierarchy(tabList)

	deps := &tabs.Deps{
		Config:   cfg,
		Span:     cfg.Span,
		Segments: stores.Segments,
		Data:     stores.Data,
		Triggers: stores.Triggers,
		SegmentOpts: segments.Options{
			Cache:       caches.segment,
			DatabaseURL: cfg.SegmentURL,
			Policy:      cfg.OnSegDBError,
			Logger:      logger,
		},
		DataOpts: data.Options{
			Cache:     caches.data,
			NDSURL:    cfg.NDS,
			Processes: cfg.Processes,
			Policy:    cfg.OnDataFindError,
			Logger:    logger,
		},
		TriggerCache: caches.trigger,
		OutDir:       cfg.OutputDir,
		Logger:       logger,
	}

	// Figure paths depend only on the span, so the report can reference
	// figures from a prior run even when processing is skipped.
	for _, t := range tabList {
		t.AssignHrefs(deps)
	}

	if !cfg.HTMLOnly {
		if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if cfg.BulkRead {
			if err := prefetch(ctx, tabList, deps); err != nil {
				return err
			}
		}
		for _, t := range tabList {
			logger.Info("processing tab", "tab", t.Name())
			if err := t.Process(ctx, deps); err != nil {
				return err
			}
		}
	}

	if !cfg.NoHTML {
		writer := report.New(cfg.OutputDir, report.Info{
			IFO:         cfg.IFO,
			Span:        cfg.Span,
			Mode:        cfg.Mode.String(),
			GPSMode:     cfg.GPSMode(),
			ConfigFiles: cfg.ConfigFiles,
		}, hierarchy, logger)
		if err := writer.WriteAll(); err != nil {
			return err
		}
	}

	if !cfg.HTMLOnly {
		if err := writeArchives(ctx, cfg, stores, logger); err != nil {
			return err
		}
	}

	if warnings := collector.Warnings(); len(warnings) > 0 {
		logger.Info("summary run finished with warnings", "warnings", len(warnings))
	} else {
		logger.Info("summary run finished")
	}
	return nil
}

// runCaches holds the three optional file caches.
type runCaches struct {
	data    *cache.Cache
	trigger *cache.Cache
	segment *cache.Cache
}

func openCaches(cfg *config.Config) (runCaches, error) {
	var caches runCaches
	var err error
	if cfg.DataCache != "" {
		if caches.data, err = cache.Open(cfg.DataCache, cache.Data); err != nil {
			return caches, err
		}
	}
	if cfg.TriggerCache != "" {
		if caches.trigger, err = cache.Open(cfg.TriggerCache, cache.Trigger); err != nil {
			return caches, err
		}
	}
	if cfg.SegmentCache != "" {
		if caches.segment, err = cache.Open(cfg.SegmentCache, cache.Segment); err != nil {
			return caches, err
		}
	}
	return caches, nil
}

// prefetch gathers everything any tab needs in one pass, so per-tab
// processing runs against warm stores.
func prefetch(ctx context.Context, tabList []tabs.Tab, deps *tabs.Deps) error {
	req := tabs.Collect(tabList)
	deps.Logger.Info("bulk prefetch",
		"channels", len(req.Channels), "flags", len(req.Flags), "etgs", len(req.ETGs))

	if len(req.Flags) > 0 {
		if err := segments.Fetch(ctx, deps.Segments, req.Flags, deps.Span, deps.SegmentOpts); err != nil {
			return err
		}
	}
	if len(req.Channels) > 0 {
		channels, err := tabs.ParseChannels(req.Channels, deps.Config.GPSMode())
		if err != nil {
			return err
		}
		if err := data.GetTimeSeriesDict(ctx, deps.Data, channels, deps.Span, deps.DataOpts); err != nil {
			return err
		}
	}
	return nil
}

// readArchives loads prior archives for every configured tag.
func readArchives(ctx context.Context, cfg *config.Config, stores archive.Stores, logger *slog.Logger) error {
	for _, tag := range cfg.ArchiveTags {
		path := archive.Path(cfg.ArchiveDir, cfg.IFO, tag, cfg.Span)
		if err := archive.Read(ctx, path, stores, logger); err != nil {
			return err
		}
	}
	for _, tag := range cfg.DailyArchiveTags {
		for _, day := range cfg.Span.Days() {
			path := archive.Path(cfg.ArchiveDir, cfg.IFO, tag, day)
			if err := archive.Read(ctx, path, stores, logger); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeArchives persists the stores for every configured tag.
func writeArchives(ctx context.Context, cfg *config.Config, stores archive.Stores, logger *slog.Logger) error {
	for _, tag := range cfg.ArchiveTags {
		path := archive.Path(cfg.ArchiveDir, cfg.IFO, tag, cfg.Span)
		if err := archive.Write(ctx, path, stores, logger); err != nil {
			return err
		}
	}
	for _, tag := range cfg.DailyArchiveTags {
		for _, day := range cfg.Span.Days() {
			path := archive.Path(cfg.ArchiveDir, cfg.IFO, tag, day)
			if err := archive.Write(ctx, path, stores, logger); err != nil {
				return err
			}
		}
	}
	return nil
}
