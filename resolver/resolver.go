// Package resolver turns schema reference directives into parsed
// documents. It canonicalizes reference locations against the referring
// document, consults the injected safety gate and parse cache, and on a
// miss fetches and parses the target through injectable collaborators.
//
// The resolver itself is stateless apart from the cache it shares, so
// one instance may serve any number of concurrent resolutions.
package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/c360studio/xsdgraph/cache"
	"github.com/c360studio/xsdgraph/schema"
)

// Gate decides whether a resolved source identity may be fetched.
// urlsafe.Gate is the standard implementation; a nil gate in Config
// permits everything, which is only appropriate for trusted input.
type Gate interface {
	Check(id schema.SourceID) error
}

// Config assembles a Resolver. Zero-value fields fall back to the
// default parser and fetchers; Cache nil disables caching entirely.
type Config struct {
	// Cache stores successful parses. Nil means every resolution
	// fetches and parses again.
	Cache *cache.Cache

	// Gate is consulted before any fetch. Nil permits everything.
	Gate Gate

	// Parser turns raw bytes into an XML tree.
	Parser schema.TreeParser

	// Files fetches file identities; Network fetches url identities.
	Files   Fetcher
	Network Fetcher

	// BaseDir anchors relative references found in inline documents,
	// which have no location of their own.
	BaseDir string

	// Logger records cache and fetch activity at debug level.
	Logger *slog.Logger
}

// Resolver resolves reference directives to parsed schema documents.
type Resolver struct {
	cache   *cache.Cache
	gate    Gate
	parser  schema.TreeParser
	files   Fetcher
	network Fetcher
	baseDir string
	logger  *slog.Logger
}

// New builds a Resolver, filling in default collaborators where the
// config leaves them nil.
func New(cfg Config) *Resolver {
	r := &Resolver{
		cache:   cfg.Cache,
		gate:    cfg.Gate,
		parser:  cfg.Parser,
		files:   cfg.Files,
		network: cfg.Network,
		baseDir: cfg.BaseDir,
		logger:  cfg.Logger,
	}
	if r.parser == nil {
		r.parser = schema.DefaultParser()
	}
	if r.files == nil {
		r.files = NewFileFetcher()
	}
	if r.network == nil {
		r.network = NewHTTPFetcher(HTTPConfig{Gate: cfg.Gate})
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Locate canonicalizes a raw schemaLocation against the referring
// document's identity. Absolute http/https locations stand alone;
// relative ones are joined to the base document's directory or URL, or
// to the configured base directory when the base is inline.
func (r *Resolver) Locate(base schema.SourceID, location string) (schema.SourceID, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return schema.SourceID{}, &schema.Error{
			Kind:    schema.ErrUnresolvedReference,
			Source:  base,
			Message: "empty schemaLocation",
		}
	}

	if u, err := url.Parse(loc); err == nil && u.IsAbs() {
		switch u.Scheme {
		case "http", "https":
			return schema.URLID(loc)
		case "file":
			return schema.FileID(u.Path)
		default:
			// Single-letter schemes are Windows drive letters, not
			// URL schemes; fall through to path handling.
			if len(u.Scheme) > 1 {
				return schema.SourceID{}, &schema.Error{
					Kind:    schema.ErrUnresolvedReference,
					Source:  base,
					Ref:     loc,
					Message: "unsupported reference scheme " + u.Scheme,
				}
			}
		}
	}

	switch base.Kind {
	case schema.SourceURL:
		bu, err := url.Parse(base.Value)
		if err != nil {
			return schema.SourceID{}, &schema.Error{
				Kind:    schema.ErrUnresolvedReference,
				Source:  base,
				Ref:     loc,
				Message: "base URL is invalid",
				Err:     err,
			}
		}
		ref, err := url.Parse(loc)
		if err != nil {
			return schema.SourceID{}, &schema.Error{
				Kind:    schema.ErrUnresolvedReference,
				Source:  base,
				Ref:     loc,
				Message: "reference is not a valid URL",
				Err:     err,
			}
		}
		return schema.URLID(bu.ResolveReference(ref).String())

	case schema.SourceFile:
		path := filepath.FromSlash(loc)
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(base.Value), path)
		}
		return schema.FileID(path)

	case schema.SourceInline:
		path := filepath.FromSlash(loc)
		if filepath.IsAbs(path) {
			return schema.FileID(path)
		}
		if r.baseDir == "" {
			return schema.SourceID{}, &schema.Error{
				Kind:    schema.ErrUnresolvedReference,
				Source:  base,
				Ref:     loc,
				Message: "relative reference from inline document needs a base directory",
			}
		}
		return schema.FileID(filepath.Join(r.baseDir, path))

	default:
		return schema.SourceID{}, &schema.Error{
			Kind:    schema.ErrUnresolvedReference,
			Source:  base,
			Ref:     loc,
			Message: "unknown base source kind " + string(base.Kind),
		}
	}
}

// Resolve loads the document a directive points at, relative to the
// referring document. Failures keep their taxonomy kind but are
// re-anchored at the referring document and raw location, which is
// where a human goes to fix them.
func (r *Resolver) Resolve(ctx context.Context, base schema.SourceID, directive schema.Directive) (*schema.Document, error) {
	id, err := r.Locate(base, directive.Location)
	if err != nil {
		return nil, err
	}

	doc, err := r.ResolveID(ctx, id)
	if err != nil {
		kind := schema.KindOf(err)
		if kind == "" {
			kind = schema.ErrUnresolvedReference
		}
		return nil, &schema.Error{
			Kind:    kind,
			Source:  base,
			Ref:     directive.Location,
			Message: "cannot resolve " + string(directive.Kind) + " reference",
			Err:     err,
		}
	}
	return doc, nil
}

// ResolveID loads a document by its canonical identity: gate first,
// then cache, then fetch and parse. Only successful parses reach the
// cache, so a transient failure is retried on the next call.
func (r *Resolver) ResolveID(ctx context.Context, id schema.SourceID) (*schema.Document, error) {
	if r.gate != nil {
		if err := r.gate.Check(id); err != nil {
			return nil, &schema.Error{
				Kind:    schema.ErrUnresolvedReference,
				Source:  id,
				Message: "reference blocked by safety gate",
				Err:     err,
			}
		}
	}

	fetcher, err := r.fetcherFor(id)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		fp, probeErr := fetcher.Probe(ctx, id)
		if probeErr != nil {
			// The source is gone or unreadable; never serve its old
			// content. The fetch below reports the real failure.
			r.cache.Invalidate(id)
		} else if doc, ok := r.cache.Get(id, fp); ok {
			r.logger.Debug("cache hit", slog.String("source", id.String()))
			return doc, nil
		}
	}

	fetched, err := fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := r.parse(fetched.Data, id)
	if err != nil {
		return nil, err
	}
	doc.Fingerprint = fetched.Fingerprint

	if r.cache != nil {
		doc, _ = r.cache.PutIfAbsent(doc)
	}
	r.logger.Debug("resolved schema document",
		slog.String("source", id.String()),
		slog.Int("directives", len(doc.Directives)),
		slog.String("target_namespace", doc.TargetNamespace))
	return doc, nil
}

// ResolveInline parses an in-memory document under a content-addressed
// identity, so repeated parses of identical text share a cache entry.
func (r *Resolver) ResolveInline(content []byte) (*schema.Document, error) {
	id := schema.InlineID(content)

	if r.cache != nil {
		if doc, ok := r.cache.Get(id, id.Value); ok {
			return doc, nil
		}
	}

	doc, err := r.parse(content, id)
	if err != nil {
		return nil, err
	}
	doc.Fingerprint = id.Value

	if r.cache != nil {
		doc, _ = r.cache.PutIfAbsent(doc)
	}
	return doc, nil
}

// parse runs the injected parser and extraction, pinning errors that
// carry no location to the document being parsed.
func (r *Resolver) parse(data []byte, id schema.SourceID) (*schema.Document, error) {
	tree, err := r.parser.ParseTree(data)
	if err != nil {
		var serr *schema.Error
		if errors.As(err, &serr) && serr.Source.IsZero() {
			serr.Source = id
		}
		return nil, err
	}
	return schema.Extract(tree, id)
}

func (r *Resolver) fetcherFor(id schema.SourceID) (Fetcher, error) {
	switch id.Kind {
	case schema.SourceFile:
		return r.files, nil
	case schema.SourceURL:
		return r.network, nil
	default:
		return nil, &schema.Error{
			Kind:    schema.ErrUnresolvedReference,
			Source:  id,
			Message: "identity kind " + string(id.Kind) + " cannot be fetched",
		}
	}
}
