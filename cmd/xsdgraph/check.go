package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/xsdgraph"
	"github.com/c360studio/xsdgraph/export"
)

func checkCmd(flags *rootFlags) *cobra.Command {
	var (
		strict       bool
		imports      bool
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "check <schema>",
		Short: "Verify that every reference of a schema resolves",
		Long: `Check resolves the reference structure reachable from the given
schema document and exits non-zero if any reference fails. By default
it runs leniently so every problem is reported in one pass; --strict
stops at the first failure instead.

The schema argument is a file path, an http(s) URL, or "-" for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Resolution.Strict = strict
			if imports {
				cfg.Resolution.ResolveImports = true
			}

			opts, err := buildOptions(cfg, logger)
			if err != nil {
				return err
			}
			opts.IncludeMode = xsdgraph.PreserveStructure
			if showProgress {
				opts.Progress = progressPrinter()
			}
			opts.WarningHandler = warnPrinter()

			src, err := sourceFor(args[0], cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			res, err := xsdgraph.Parse(ctx, src, opts)
			if err != nil {
				return err
			}

			stats := export.BuildReport(res.Graph()).Stats
			fmt.Printf("source: %s\n", res.Source)
			fmt.Printf("documents: %d\n", stats.Documents)
			fmt.Printf("edges: %d resolved, %d duplicates, %d unresolved, %d not followed\n",
				stats.Resolved, stats.Duplicates, stats.Unresolved, stats.NotFollowed)

			if stats.Unresolved > 0 {
				return fmt.Errorf("%d unresolved reference(s)", stats.Unresolved)
			}
			fmt.Println("ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first failed reference")
	cmd.Flags().BoolVar(&imports, "imports", false, "Resolve import directives too")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Report resolution progress on stderr")

	return cmd
}
