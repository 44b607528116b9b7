package xsdgraph

import (
	"io"
	"log/slog"
	"time"

	"github.com/c360studio/xsdgraph/cache"
	"github.com/c360studio/xsdgraph/graph"
	"github.com/c360studio/xsdgraph/resolver"
	"github.com/c360studio/xsdgraph/schema"
)

// IncludeMode selects how resolved references are materialized.
type IncludeMode int

const (
	// PreserveStructure keeps every document separate. Directive
	// elements stay in the trees and each resolved directive's record
	// links to the nested result.
	PreserveStructure IncludeMode = iota

	// Flatten merges every included document into one tree with no
	// include, redefine, or override directives left. Imports remain,
	// since they cross namespace boundaries.
	Flatten
)

func (m IncludeMode) String() string {
	if m == Flatten {
		return "flatten"
	}
	return "preserve_structure"
}

// Options configure one parse request. The zero value preserves
// structure, leaves imports unfollowed, resolves leniently, and caches
// nothing.
type Options struct {
	// IncludeMode selects merged or reference-preserving output.
	IncludeMode IncludeMode

	// ResolveImports follows import directives into their target
	// documents. Off by default: imported documents belong to other
	// namespaces and are often resolved separately.
	ResolveImports bool

	// Strict aborts the parse on the first failed reference instead of
	// accumulating warnings.
	Strict bool

	// CacheEnabled turns on parse caching. When Cache is nil a private
	// cache is created for the request; sharing one across requests is
	// what makes caching pay off.
	CacheEnabled bool

	// Cache is the shared parse cache to use. Supplying one implies
	// CacheEnabled.
	Cache *cache.Cache

	// CacheExpiry bounds the age of served cache entries. Zero means
	// entries never expire by age.
	CacheExpiry time.Duration

	// MaxIncludeDepth bounds how many reference edges may be followed
	// along one path. Values below 1 fall back to the default.
	MaxIncludeDepth int

	// NetworkTimeout bounds each remote fetch. Zero applies the
	// default.
	NetworkTimeout time.Duration

	// AddProvenance stamps flattened declarations with the identity of
	// the document that contributed them.
	AddProvenance bool

	// Gate authorizes resolved identities before they are fetched. Nil
	// installs the default policy gate: HTTPS only, no private or
	// internal hosts, files anywhere.
	Gate resolver.Gate

	// Parser turns fetched bytes into XML trees. Nil uses the default
	// parser.
	Parser schema.TreeParser

	// FileFetcher and NetworkFetcher override how file and url
	// identities are fetched. Nil uses the defaults.
	FileFetcher    resolver.Fetcher
	NetworkFetcher resolver.Fetcher

	// Progress, when non-nil, receives a message after each document
	// resolves, with counts of finished and discovered documents.
	Progress func(message string, current, total int)

	// WarningHandler, when non-nil, receives each accumulated warning
	// once the parse completes. Warnings are also available on the
	// result.
	WarningHandler func(schema.Warning)

	// Logger records resolution activity. Nil discards.
	Logger *slog.Logger
}

// normalized fills defaults that need no error handling.
func (o Options) normalized() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.MaxIncludeDepth < 1 {
		o.MaxIncludeDepth = graph.DefaultMaxDepth
	}
	if o.Cache != nil {
		o.CacheEnabled = true
	}
	return o
}
