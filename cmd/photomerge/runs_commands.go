package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"photomerge/internal/journal"
	"photomerge/internal/logging"
	"photomerge/internal/logs"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect past merge runs",
	}
	cmd.AddCommand(newRunsListCommand(ctx))
	cmd.AddCommand(newRunsShowCommand(ctx))
	cmd.AddCommand(newRunsLogCommand(ctx))
	return cmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				out := cmd.OutOrStdout()
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					summary, err := store.Summarize(cmd.Context(), run.ID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						run.ID,
						formatRunTime(run.StartedAt),
						string(run.Status),
						yesNo(run.DryRun),
						strconv.Itoa(summary[journal.OutcomeWritten]),
						strconv.Itoa(summary[journal.OutcomeDuplicate]),
						strconv.Itoa(summary[journal.OutcomeMetadataMissing] + summary[journal.OutcomeFailed]),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Status", "Dry run", "Written", "Duplicates", "Skipped"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var outcome string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its items",
		Long:  "Show a run and its items. A unique prefix of the run id is enough.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := journal.Outcome(strings.TrimSpace(outcome))
			if filter != "" && !knownOutcome(filter) {
				return fmt.Errorf("--outcome: unsupported value %q", outcome)
			}
			return ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				run, err := resolveRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				finished := "-"
				if run.Finished() {
					finished = formatRunTime(run.FinishedAt)
				}
				details := [][]string{
					{"Run", run.ID},
					{"Status", string(run.Status)},
					{"Started", formatRunTime(run.StartedAt)},
					{"Finished", finished},
					{"Output", run.OutputDir},
					{"Dry run", yesNo(run.DryRun)},
					{"Archives", strings.Join(run.Archives, "\n")},
				}
				if run.Error != "" {
					details = append(details, []string{"Error", run.Error})
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, details, nil))

				items, err := store.Items(cmd.Context(), run.ID, filter)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No items recorded")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					target := item.Output
					if target == "" {
						target = item.Detail
					}
					rows = append(rows, []string{item.Entry, string(item.Outcome), target})
				}
				itemTable := tableSpec{
					title:   fmt.Sprintf("Items (%d)", len(rows)),
					headers: []string{"Entry", "Outcome", "Output / detail"},
				}
				fmt.Fprintln(out, itemTable.render(rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "Only show items with this outcome (written, duplicate, metadata_missing, failed)")
	return cmd
}

func newRunsLogCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	cmd := &cobra.Command{
		Use:   "log <run-id>",
		Short: "Print a run's log file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LogDir == "" {
				return errors.New("paths.log_dir is not set; runs are not logged to files")
			}
			var runID string
			err = ctx.withJournal(cmd.Context(), func(store *journal.Store) error {
				run, err := resolveRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				runID = run.ID
				return nil
			})
			if err != nil {
				return err
			}

			path := filepath.Join(cfg.Paths.LogDir, logging.RunLogName(runID))
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tail) == 0 && offset == 0 && !follow {
				fmt.Fprintf(out, "No log at %s\n", path)
				return nil
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			followCtx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, logs.DefaultPoll, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	return cmd
}

func resolveRun(cmd *cobra.Command, store *journal.Store, idOrPrefix string) (*journal.Run, error) {
	runs, err := store.FindRuns(cmd.Context(), idOrPrefix)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("run %s: %w", idOrPrefix, journal.ErrRunNotFound)
	case 1:
		return runs[0], nil
	default:
		for _, run := range runs {
			if run.ID == idOrPrefix {
				return run, nil
			}
		}
		return nil, fmt.Errorf("run prefix %q matches %d runs; use more characters", idOrPrefix, len(runs))
	}
}

func knownOutcome(o journal.Outcome) bool {
	for _, known := range journal.Outcomes {
		if o == known {
			return true
		}
	}
	return false
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
