package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/xsdgraph"
	"github.com/c360studio/xsdgraph/config"
	"github.com/c360studio/xsdgraph/export"
)

func flattenCmd(flags *rootFlags) *cobra.Command {
	var (
		output       string
		provenance   bool
		strict       bool
		imports      bool
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "flatten <schema>",
		Short: "Merge a schema and its includes into one document",
		Long: `Flatten resolves every include, redefine, and override reachable
from the given schema document and merges them into a single document
with no such directives left. Imports are kept and hoisted to the top
of the merged document, since they cross namespace boundaries.

The schema argument is a file path, an http(s) URL, or "-" for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Resolution.Mode = config.ModeFlatten
			if strict {
				cfg.Resolution.Strict = true
			}
			if provenance {
				cfg.Resolution.AddProvenance = true
			}
			if imports {
				cfg.Resolution.ResolveImports = true
			}

			opts, err := buildOptions(cfg, logger)
			if err != nil {
				return err
			}
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

			return writeOutput(output, func(w io.Writer) error {
				return export.WriteXML(w, res.Tree)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&provenance, "provenance", false, "Stamp merged declarations with their source document")
	cmd.Flags().BoolVar(&strict, "strict", false, "Abort on the first failed reference")
	cmd.Flags().BoolVar(&imports, "imports", false, "Resolve import directives too")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Report resolution progress on stderr")

	return cmd
}
