package flatten

import (
	"errors"
	"io"
	"log/slog"

	"github.com/c360studio/xsdgraph/graph"
	"github.com/c360studio/xsdgraph/schema"
)

// Preserve materializes a resolved graph without merging: every
// document keeps its directive elements, and each resolved directive's
// record points at the nested result for on-demand traversal. A
// document reachable over several paths yields one shared nested
// result.
func Preserve(g *graph.Graph, opts Options) (*Result, error) {
	if g == nil || g.Entry == nil {
		return nil, errors.New("flatten: graph has no entry document")
	}
	p := newPreserver(opts)
	res, err := p.build(g.Entry)
	if err != nil {
		return nil, err
	}
	res.Warnings = g.Warnings
	return res, nil
}

// preserver builds preserved results, memoized by canonical identity
// so diamond dependencies share one nested result.
type preserver struct {
	strict bool
	logger *slog.Logger
	memo   map[schema.SourceID]*Result
}

func newPreserver(opts Options) *preserver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &preserver{
		strict: opts.Strict,
		logger: logger,
		memo:   make(map[schema.SourceID]*Result),
	}
}

func (p *preserver) build(node *graph.Node) (*Result, error) {
	if res, ok := p.memo[node.ID()]; ok {
		return res, nil
	}

	doc := node.Doc.Clone()
	res := &Result{
		Tree:            doc.Tree,
		Source:          doc.ID,
		TargetNamespace: doc.TargetNamespace,
		Namespaces:      doc.Namespaces,
	}
	p.memo[node.ID()] = res

	for _, e := range node.Edges {
		rec := IncludeRecord{
			Kind:     e.Directive.Kind,
			Location: e.Directive.Location,
		}
		switch e.Outcome {
		case graph.OutcomeResolved, graph.OutcomeSkippedDuplicate:
			nested, err := p.build(e.Target)
			if err != nil {
				return nil, err
			}
			rec.Resolved = true
			rec.Nested = nested
		case graph.OutcomeUnresolved:
			if p.strict {
				return nil, e.Err
			}
			rec.Err = e.Err
		case graph.OutcomeNotFollowed:
			// Imports left unfollowed stay separate documents.
		}
		res.Includes = append(res.Includes, rec)
	}
	return res, nil
}
