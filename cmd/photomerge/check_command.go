package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photomerge/internal/config"
	"photomerge/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [archive.tgz]...",
		Short: "Run merge preflight checks without merging",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			archives := make([]string, 0, len(args))
			for _, arg := range args {
				abs, err := config.ExpandPath(arg)
				if err != nil {
					return fmt.Errorf("resolve archive %s: %w", arg, err)
				}
				archives = append(archives, abs)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			results := preflight.RunAll(cfg, cfg.Paths.OutputDir, archives)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(kind, fmt.Sprintf("%s: %s", r.Name, strings.TrimSpace(r.Detail)), colorize))
			}
			return preflight.Err(results)
		},
	}
}
