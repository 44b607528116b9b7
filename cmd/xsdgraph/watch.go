package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/xsdgraph"
	"github.com/c360studio/xsdgraph/cache"
	"github.com/c360studio/xsdgraph/config"
	"github.com/c360studio/xsdgraph/export"
	"github.com/c360studio/xsdgraph/schema"
)

func watchCmd(flags *rootFlags) *cobra.Command {
	var (
		output      string
		provenance  bool
		imports     bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch <schema>",
		Short: "Re-flatten a schema whenever its documents change",
		Long: `Watch resolves and flattens the given schema document, then watches
every directory the resolution touched and rebuilds the merged output
whenever a schema file changes. Changed documents are re-parsed;
unchanged ones are served from the shared cache.

The schema argument must be a file path. Use --output to keep a merged
file up to date; without it each rebuild writes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Resolution.Mode = config.ModeFlatten
			if provenance {
				cfg.Resolution.AddProvenance = true
			}
			if imports {
				cfg.Resolution.ResolveImports = true
			}
			if metricsAddr != "" {
				cfg.Watch.MetricsAddr = metricsAddr
			}

			entry, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve schema path: %w", err)
			}
			if _, err := os.Stat(entry); err != nil {
				return fmt.Errorf("stat schema path: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runWatch(ctx, cfg, logger, entry, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file rewritten on each change (default: stdout)")
	cmd.Flags().BoolVar(&provenance, "provenance", false, "Stamp merged declarations with their source document")
	cmd.Flags().BoolVar(&imports, "imports", false, "Resolve import directives too")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", `Serve Prometheus metrics on this address (e.g. ":9090")`)

	return cmd
}

func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, entry, output string) error {
	reg := prometheus.NewRegistry()
	metrics, err := cache.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	shared := cache.New(cache.Config{TTL: cfg.Cache.Expiry, Metrics: metrics, Logger: logger})

	opts, err := buildOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts.Cache = shared
	opts.WarningHandler = warnPrinter()

	watcher, err := cache.NewWatcher(shared, cache.WatchConfig{
		DebounceDelay: cfg.Watch.Debounce,
		Extensions:    cfg.Watch.Extensions,
		Exclude:       cfg.Watch.Exclude,
	}, logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Stop()

	if cfg.Watch.MetricsAddr != "" {
		serveMetrics(ctx, cfg.Watch.MetricsAddr, reg, logger)
	}

	src, err := xsdgraph.FromFile(entry)
	if err != nil {
		return err
	}

	watched := map[string]bool{}
	watchDir := func(dir string) {
		if watched[dir] {
			return
		}
		if err := watcher.Watch(dir); err != nil {
			logger.Warn("cannot watch directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			return
		}
		watched[dir] = true
	}
	watchDir(filepath.Dir(entry))

	rebuild := func() {
		start := time.Now()
		res, err := xsdgraph.Parse(ctx, src, opts)
		if err != nil {
			logger.Error("resolution failed", slog.String("error", err.Error()))
			return
		}

		// Documents may live in directories discovered only now.
		for _, n := range res.Graph().Order() {
			if n.ID().Kind == schema.SourceFile {
				watchDir(filepath.Dir(n.ID().Value))
			}
		}

		if err := writeOutput(output, func(w io.Writer) error {
			return export.WriteXML(w, res.Tree)
		}); err != nil {
			logger.Error("write output failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("schema rebuilt",
			slog.Int("documents", res.Graph().Len()),
			slog.Int("warnings", len(res.Warnings)),
			slog.Duration("took", time.Since(start)))
	}

	watcher.Start(ctx)
	rebuild()

	for {
		select {
		case <-ctx.Done():
			return nil
		case inv, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			logger.Info("schema changed",
				slog.String("path", inv.Path),
				slog.String("op", inv.Op.String()))
			drainEvents(watcher)
			rebuild()
		}
	}
}

// drainEvents absorbs the remaining invalidations of one debounce
// flush so a multi-file save costs one rebuild.
func drainEvents(w *cache.Watcher) {
	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// serveMetrics exposes the registry over HTTP until ctx ends.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics endpoint started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
