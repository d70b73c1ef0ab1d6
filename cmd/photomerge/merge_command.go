package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"photomerge/internal/config"
	"photomerge/internal/dedup"
	"photomerge/internal/journal"
	"photomerge/internal/logging"
	"photomerge/internal/merge"
	"photomerge/internal/preflight"
	"photomerge/internal/tagcodec"
)

type mergeFlags struct {
	output         string
	dryRun         bool
	codec          string
	locationSource string
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:   "merge <archive.tgz>...",
		Short: "Merge Takeout archives into the output collection",
		Long: `Pairs every photo and video in the given Takeout archives with its JSON
sidecar, skips content already in the dedup store, and writes the rest to
the output directory with metadata from the sidecar applied.

Archives are read in the order given; a sidecar may live in any of them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runMerge(cmd.Context(), cmd.OutOrStdout(), cfg, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Pair and hash everything but write nothing")
	cmd.Flags().StringVar(&flags.codec, "codec", "", "Metadata codec: xmp or passthrough (overrides metadata.codec)")
	cmd.Flags().StringVar(&flags.locationSource, "location-source", "", "GPS source: gphotos or exif (overrides metadata.location_source)")
	return cmd
}

func runMerge(parent context.Context, out io.Writer, cfg *config.Config, args []string, flags mergeFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	archives := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := config.ExpandPath(arg)
		if err != nil {
			return fmt.Errorf("resolve archive %s: %w", arg, err)
		}
		archives = append(archives, abs)
	}

	outputDir := cfg.Paths.OutputDir
	if strings.TrimSpace(flags.output) != "" {
		expanded, err := config.ExpandPath(flags.output)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		outputDir = expanded
	}
	codecName := cfg.Metadata.Codec
	if flags.codec != "" {
		codecName = flags.codec
	}
	codec, err := tagcodec.New(codecName)
	if err != nil {
		return err
	}
	locationSource := cfg.Metadata.LocationSource
	if flags.locationSource != "" {
		locationSource = strings.ToLower(flags.locationSource)
		if locationSource != config.LocationGPhotos && locationSource != config.LocationExif {
			return fmt.Errorf("--location-source: unsupported value %q", flags.locationSource)
		}
	}

	runCfg := *cfg
	runCfg.Paths.OutputDir = outputDir
	cfg = &runCfg
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if err := preflight.Err(preflight.RunAll(cfg, outputDir, archives)); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	logging.PruneRunLogs(logger.Logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logging.RunLogName(runID))

	lock, err := dedup.Lock(cfg.Paths.DedupStore)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	store, err := dedup.Open(cfg.Paths.DedupStore, logger.Logger)
	if err != nil {
		return err
	}
	jr, err := journal.Open(ctx, cfg.Paths.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jr.Close()

	merger := merge.New(store, codec, jr, logger.Logger)
	report, runErr := merger.Run(ctx, merge.Options{
		Archives:          archives,
		OutputDir:         outputDir,
		RunID:             runID,
		DryRun:            flags.dryRun,
		SaveEvery:         cfg.Dedup.SaveEvery,
		FoldExtensionCase: cfg.Archive.FoldExtensionCase,
		MaxSidecarBytes:   cfg.Archive.MaxSidecarBytes,
		MaxIndexBytes:     cfg.Archive.MaxIndexBytes,
		LocationSource:    locationSource,
		KeepEmbeddedGPS:   cfg.Metadata.KeepEmbeddedGPS,
	})

	printMergeReport(out, report, runErr, filepath.Join(cfg.Paths.LogDir, logging.RunLogName(runID)))
	if runErr != nil {
		return runErr
	}
	if report.Interrupted {
		return context.Canceled
	}
	return nil
}

func printMergeReport(out io.Writer, report merge.Report, runErr error, logPath string) {
	rows := [][]string{
		{"Written", strconv.Itoa(report.Written)},
		{"Duplicates", strconv.Itoa(report.Duplicates)},
		{"Missing metadata", strconv.Itoa(report.Missing)},
		{"Failed", strconv.Itoa(report.Failed)},
		{"Entries scanned", strconv.Itoa(report.Archive.Entries)},
	}
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Items"}, rows, []columnAlignment{alignLeft, alignRight}))

	colorize := shouldColorize(out)
	suffix := ""
	if report.DryRun {
		suffix = " (dry run, nothing written)"
	}
	switch {
	case runErr != nil:
		var msg string
		if errors.Is(runErr, context.Canceled) {
			msg = "interrupted"
		} else {
			msg = runErr.Error()
		}
		fmt.Fprintln(out, renderStatusLine(statusError, fmt.Sprintf("run %s failed: %s", report.RunID, msg), colorize))
	case report.Interrupted:
		fmt.Fprintln(out, renderStatusLine(statusWarn, fmt.Sprintf("run %s interrupted after %d items%s", report.RunID, report.Processed(), suffix), colorize))
	case report.Failed > 0 || report.Missing > 0:
		fmt.Fprintln(out, renderStatusLine(statusWarn, fmt.Sprintf("run %s finished with skipped items in %s%s", report.RunID, report.Duration.Round(time.Millisecond), suffix), colorize))
	default:
		fmt.Fprintln(out, renderStatusLine(statusOK, fmt.Sprintf("run %s finished in %s%s", report.RunID, report.Duration.Round(time.Millisecond), suffix), colorize))
	}
	fmt.Fprintf(out, "Details: photomerge runs show %s (log: %s)\n", report.RunID, logPath)
}
