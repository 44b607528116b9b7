package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/c360studio/xsdgraph/schema"
)

// Resolver loads the documents the walk discovers. resolver.Resolver is
// the standard implementation; tests substitute in-memory ones.
type Resolver interface {
	Locate(base schema.SourceID, location string) (schema.SourceID, error)
	ResolveID(ctx context.Context, id schema.SourceID) (*schema.Document, error)
	Resolve(ctx context.Context, base schema.SourceID, directive schema.Directive) (*schema.Document, error)
}

// Config configures a Builder.
type Config struct {
	// Resolver loads referenced documents. Required.
	Resolver Resolver

	// Strict aborts the whole walk on the first unresolved or circular
	// reference. When false such findings become warnings and the walk
	// continues with sibling directives.
	Strict bool

	// ResolveImports follows import directives into their target
	// documents. When false import edges are recorded as NotFollowed.
	ResolveImports bool

	// Progress, when non-nil, receives a message after each document
	// resolves, with the count of finished documents and the count of
	// discovered documents.
	Progress func(message string, current, total int)

	// Logger records walk activity. Nil discards.
	Logger *slog.Logger
}

// Builder performs the depth-first dependency walk.
type Builder struct {
	resolver       Resolver
	strict         bool
	resolveImports bool
	progress       func(string, int, int)
	logger         *slog.Logger
}

// NewBuilder builds a Builder from its configuration.
func NewBuilder(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{
		resolver:       cfg.Resolver,
		strict:         cfg.Strict,
		resolveImports: cfg.ResolveImports,
		progress:       cfg.Progress,
		logger:         logger,
	}
}

// Build walks the reference directives of entry depth-first, in
// document order, and returns the resolved graph. rctx carries the
// visited and processed sets; pass a fresh one per request. In strict
// mode the first failure aborts with a located error; in lenient mode
// failures become warnings on the graph and the corresponding edges
// stay unresolved.
func (b *Builder) Build(ctx context.Context, entry *schema.Document, rctx *Context) (*Graph, error) {
	if b.resolver == nil {
		return nil, errors.New("graph: builder has no resolver")
	}
	if rctx == nil {
		rctx = NewContext(0)
	}

	g := newGraph()
	node := g.add(entry)
	g.Entry = node

	b.report(rctx, g, "resolving "+entry.ID.String())

	rctx.push(entry.ID)
	err := b.walk(ctx, node, rctx, g)
	rctx.pop(node)
	if err != nil {
		return nil, err
	}

	b.report(rctx, g, "resolved "+entry.ID.String())
	g.Warnings = rctx.Warnings()
	return g, nil
}

func (b *Builder) walk(ctx context.Context, node *Node, rctx *Context, g *Graph) error {
	for _, d := range node.Doc.Directives {
		if err := ctx.Err(); err != nil {
			return err
		}

		edge := Edge{Directive: d}

		if d.Kind == schema.DirectiveImport && (!b.resolveImports || !d.Followable()) {
			edge.Outcome = OutcomeNotFollowed
			node.Edges = append(node.Edges, edge)
			continue
		}

		id, err := b.resolver.Locate(node.ID(), d.Location)
		if err != nil {
			if err = b.leaveUnresolved(rctx, node, &edge, err); err != nil {
				return err
			}
			node.Edges = append(node.Edges, edge)
			continue
		}

		if rctx.OnStack(id) {
			err := &schema.Error{
				Kind:    schema.ErrCircularReference,
				Source:  node.ID(),
				Ref:     d.Location,
				Message: fmt.Sprintf("circular reference between %s and %s", node.ID(), id),
			}
			if err := b.leaveUnresolved(rctx, node, &edge, err); err != nil {
				return err
			}
			node.Edges = append(node.Edges, edge)
			continue
		}

		if prev, ok := rctx.Processed(id); ok {
			if err := conformanceError(node.Doc, d, prev.Doc); err != nil {
				if err = b.leaveUnresolved(rctx, node, &edge, err); err != nil {
					return err
				}
			} else {
				edge.Outcome = OutcomeSkippedDuplicate
				edge.Target = prev
				b.logger.Debug("duplicate reference skipped",
					slog.String("source", node.ID().String()),
					slog.String("target", id.String()))
			}
			node.Edges = append(node.Edges, edge)
			continue
		}

		// The depth limit counts reference edges followed along one
		// path. Exceeding it aborts in every mode: it indicates
		// runaway structure, not a single bad reference.
		if rctx.Depth()+1 > rctx.maxDepth {
			return &schema.Error{
				Kind:    schema.ErrMaxDepthExceeded,
				Source:  node.ID(),
				Ref:     d.Location,
				Message: fmt.Sprintf("reference chain exceeds maximum depth %d", rctx.maxDepth),
			}
		}

		doc, err := b.resolver.Resolve(ctx, node.ID(), d)
		if err != nil {
			if err = b.leaveUnresolved(rctx, node, &edge, err); err != nil {
				return err
			}
			node.Edges = append(node.Edges, edge)
			continue
		}

		if err := conformanceError(node.Doc, d, doc); err != nil {
			if err = b.leaveUnresolved(rctx, node, &edge, err); err != nil {
				return err
			}
			node.Edges = append(node.Edges, edge)
			continue
		}

		child := g.add(doc)
		edge.Outcome = OutcomeResolved
		edge.Target = child
		node.Edges = append(node.Edges, edge)

		rctx.push(id)
		err = b.walk(ctx, child, rctx, g)
		rctx.pop(child)
		if err != nil {
			return err
		}
		b.report(rctx, g, "resolved "+id.String())
	}
	return nil
}

// leaveUnresolved applies the failure policy to one edge: strict mode
// passes the error through to abort the walk, lenient mode records a
// warning and marks the edge so sibling directives still resolve.
func (b *Builder) leaveUnresolved(rctx *Context, node *Node, edge *Edge, cause error) error {
	if b.strict {
		return cause
	}
	edge.Outcome = OutcomeUnresolved
	edge.Err = cause
	rctx.warn(node.ID(), edge.Directive.Location, warningMessage(cause))
	b.logger.Warn("reference left unresolved",
		slog.String("source", node.ID().String()),
		slog.String("ref", edge.Directive.Location),
		slog.String("error", cause.Error()))
	return nil
}

func (b *Builder) report(rctx *Context, g *Graph, message string) {
	if b.progress == nil {
		return
	}
	b.progress(message, len(rctx.processed), g.Len())
}

// warningMessage keeps lenient warnings one line: the taxonomy kind and
// the failure summary, without the location suffixes Warning already
// carries in its own fields.
func warningMessage(err error) string {
	var serr *schema.Error
	if errors.As(err, &serr) {
		return string(serr.Kind) + ": " + serr.Message
	}
	return err.Error()
}

// conformanceError checks the namespace rules a directive imposes on
// its target: include (and redefine/override) targets must declare the
// including document's namespace or none at all, while import targets
// must declare exactly the namespace the directive names.
func conformanceError(base *schema.Document, d schema.Directive, target *schema.Document) error {
	if d.Kind == schema.DirectiveImport {
		if target.TargetNamespace != d.Namespace {
			return &schema.Error{
				Kind:   schema.ErrInvalidSchema,
				Source: base.ID,
				Ref:    d.Location,
				Message: fmt.Sprintf("import declares namespace %q but document declares %q",
					d.Namespace, target.TargetNamespace),
			}
		}
		return nil
	}
	if target.TargetNamespace != "" && target.TargetNamespace != base.TargetNamespace {
		return &schema.Error{
			Kind:   schema.ErrInvalidSchema,
			Source: base.ID,
			Ref:    d.Location,
			Message: fmt.Sprintf("%s target declares namespace %q, want %q or none",
				d.Kind, target.TargetNamespace, base.TargetNamespace),
		}
	}
	return nil
}
