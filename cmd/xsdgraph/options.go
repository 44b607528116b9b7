package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/c360studio/xsdgraph"
	"github.com/c360studio/xsdgraph/config"
	"github.com/c360studio/xsdgraph/schema"
	"github.com/c360studio/xsdgraph/urlsafe"
)

// buildOptions maps file configuration onto parse options.
func buildOptions(cfg *config.Config, logger *slog.Logger) (xsdgraph.Options, error) {
	opts := xsdgraph.Options{
		ResolveImports:  cfg.Resolution.ResolveImports,
		Strict:          cfg.Resolution.Strict,
		MaxIncludeDepth: cfg.Resolution.MaxIncludeDepth,
		AddProvenance:   cfg.Resolution.AddProvenance,
		CacheEnabled:    cfg.Cache.Enabled,
		CacheExpiry:     cfg.Cache.Expiry,
		NetworkTimeout:  cfg.Network.Timeout,
		Logger:          logger,
	}
	if cfg.Resolution.Mode == config.ModeFlatten {
		opts.IncludeMode = xsdgraph.Flatten
	}

	gate, err := urlsafe.New(urlsafe.Policy{
		AllowInsecure: cfg.Network.AllowInsecure,
		AllowPrivate:  cfg.Network.AllowPrivate,
		AllowHosts:    cfg.Network.AllowHosts,
		DenyHosts:     cfg.Network.DenyHosts,
	})
	if err != nil {
		return xsdgraph.Options{}, fmt.Errorf("network policy: %w", err)
	}
	opts.Gate = gate

	return opts, nil
}

// sourceFor turns a CLI schema argument into a parse source: an http(s)
// URL, "-" for stdin, or a file path.
func sourceFor(arg string, cfg *config.Config) (xsdgraph.Source, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return xsdgraph.Source{}, fmt.Errorf("read stdin: %w", err)
		}
		return xsdgraph.FromString(string(data), stdinBaseDir(cfg)), nil
	}
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return xsdgraph.FromURL(arg)
	}
	return xsdgraph.FromFile(arg)
}

// stdinBaseDir anchors relative references of documents read from
// stdin: the configured base directory, else the working directory.
func stdinBaseDir(cfg *config.Config) string {
	if cfg.Resolution.BaseDir != "" {
		return cfg.Resolution.BaseDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

// progressPrinter reports resolution progress on stderr.
func progressPrinter() func(string, int, int) {
	return func(message string, current, total int) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, message)
	}
}

// warnPrinter surfaces lenient-resolution warnings on stderr.
func warnPrinter() func(schema.Warning) {
	return func(w schema.Warning) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

// writeOutput runs write against the named file, or stdout when path
// is empty.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
