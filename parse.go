package xsdgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/c360studio/xsdgraph/cache"
	"github.com/c360studio/xsdgraph/flatten"
	"github.com/c360studio/xsdgraph/graph"
	"github.com/c360studio/xsdgraph/resolver"
	"github.com/c360studio/xsdgraph/schema"
	"github.com/c360studio/xsdgraph/urlsafe"
)

// Parse resolves the reference structure reachable from src and
// materializes it according to the options. It returns either a fully
// usable result, possibly carrying warnings from lenient resolution,
// or exactly one located error; never a partial tree presented as
// success.
func Parse(ctx context.Context, src Source, opts Options) (*Result, error) {
	if src.id.IsZero() {
		return nil, &schema.Error{
			Kind:    schema.ErrUnresolvedReference,
			Message: "parse called with an empty source",
		}
	}
	o := opts.normalized()

	gate := o.Gate
	if gate == nil {
		g, err := urlsafe.New(urlsafe.Policy{})
		if err != nil {
			return nil, err
		}
		gate = g
	}

	c := o.Cache
	if c == nil && o.CacheEnabled {
		c = cache.New(cache.Config{TTL: o.CacheExpiry, Logger: o.Logger})
	}

	network := o.NetworkFetcher
	if network == nil {
		network = resolver.NewHTTPFetcher(resolver.HTTPConfig{
			Timeout: o.NetworkTimeout,
			Gate:    gate,
		})
	}

	requestID := uuid.NewString()
	logger := o.Logger.With(slog.String("request", requestID))

	r := resolver.New(resolver.Config{
		Cache:   c,
		Gate:    gate,
		Parser:  o.Parser,
		Files:   o.FileFetcher,
		Network: network,
		BaseDir: src.baseDir,
		Logger:  logger,
	})

	var entry *schema.Document
	var err error
	if src.content != nil {
		entry, err = r.ResolveInline(src.content)
	} else {
		entry, err = r.ResolveID(ctx, src.id)
	}
	if err != nil {
		return nil, err
	}

	builder := graph.NewBuilder(graph.Config{
		Resolver:       r,
		Strict:         o.Strict,
		ResolveImports: o.ResolveImports,
		Progress:       o.Progress,
		Logger:         logger,
	})
	g, err := builder.Build(ctx, entry, graph.NewContext(o.MaxIncludeDepth))
	if err != nil {
		return nil, err
	}

	fopts := flatten.Options{
		AddProvenance: o.AddProvenance,
		Strict:        o.Strict,
		Logger:        logger,
	}
	var fres *flatten.Result
	if o.IncludeMode == Flatten {
		fres, err = flatten.Flatten(g, fopts)
	} else {
		fres, err = flatten.Preserve(g, fopts)
	}
	if err != nil {
		return nil, err
	}

	if o.WarningHandler != nil {
		for _, w := range fres.Warnings {
			o.WarningHandler(w)
		}
	}

	logger.Debug("parse complete",
		slog.String("source", fres.Source.String()),
		slog.String("mode", o.IncludeMode.String()),
		slog.Int("documents", g.Len()),
		slog.Int("warnings", len(fres.Warnings)))

	return &Result{
		RequestID:       requestID,
		Source:          fres.Source,
		TargetNamespace: fres.TargetNamespace,
		Namespaces:      fres.Namespaces,
		Tree:            fres.Tree,
		Includes:        fres.Includes,
		Warnings:        fres.Warnings,
		mode:            o.IncludeMode,
		graph:           g,
	}, nil
}
