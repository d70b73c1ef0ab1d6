package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photomerge/internal/dedup"
)

func newDedupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Inspect the dedup store",
	}
	cmd.AddCommand(newDedupStatsCommand(ctx))
	cmd.AddCommand(newDedupCheckCommand(ctx))
	cmd.AddCommand(newDedupListCommand(ctx))
	return cmd
}

func newDedupStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dedup store location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *dedup.Store) error {
				out := cmd.OutOrStdout()
				size := "missing"
				if info, err := os.Stat(store.Path()); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("stat dedup store: %w", err)
				}
				rows := [][]string{
					{"Path", store.Path()},
					{"File", size},
					{"Records", strconv.Itoa(store.Len())},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

func newDedupCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Report whether files are already in the collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *dedup.Store) error {
				rows := make([][]string, 0, len(args))
				for _, path := range args {
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					hash, err := dedup.HashReader(f)
					_ = f.Close()
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					location, seen := store.Location(hash)
					rows = append(rows, []string{path, yesNo(seen), location, hash})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"File", "Seen", "Location", "Hash"}, rows, nil))
				return nil
			})
		},
	}
}

func newDedupListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded hashes and their locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *dedup.Store) error {
				out := cmd.OutOrStdout()
				hashes := store.Hashes()
				if len(hashes) == 0 {
					fmt.Fprintln(out, "Dedup store is empty")
					return nil
				}
				if limit > 0 && len(hashes) > limit {
					hashes = hashes[:limit]
				}
				rows := make([][]string, 0, len(hashes))
				for _, h := range hashes {
					loc, _ := store.Location(h)
					rows = append(rows, []string{h, loc})
				}
				fmt.Fprintln(out, renderTable([]string{"Hash", "Location"}, rows, nil))
				if len(hashes) < store.Len() {
					fmt.Fprintf(out, "Showing %d of %d records\n", len(hashes), store.Len())
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum records to show (0 for all)")
	return cmd
}
