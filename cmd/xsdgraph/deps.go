package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/xsdgraph"
	"github.com/c360studio/xsdgraph/export"
)

func depsCmd(flags *rootFlags) *cobra.Command {
	var (
		output       string
		format       string
		imports      bool
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "deps <schema>",
		Short: "Report the dependency graph of a schema",
		Long: `Deps resolves the reference structure reachable from the given
schema document and reports every document, reference edge, and
outcome. Unresolvable references are reported, not fatal.

The schema argument is a file path, an http(s) URL, or "-" for stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == export.FormatXSD {
				return fmt.Errorf("deps writes reports, not schema documents (valid: json, dot)")
			}

			logger := newLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// The report covers failures; never abort on them.
			cfg.Resolution.Strict = false
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

			report := export.BuildReport(res.Graph())
			return writeOutput(output, func(w io.Writer) error {
				if f == export.FormatDOT {
					return report.WriteDOT(w)
				}
				return report.WriteJSON(w)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Report format (json, dot)")
	cmd.Flags().BoolVar(&imports, "imports", false, "Resolve import directives too")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Report resolution progress on stderr")

	return cmd
}
