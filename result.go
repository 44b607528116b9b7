package xsdgraph

import (
	"sync"

	"github.com/beevik/etree"

	"github.com/c360studio/xsdgraph/flatten"
	"github.com/c360studio/xsdgraph/graph"
	"github.com/c360studio/xsdgraph/model"
	"github.com/c360studio/xsdgraph/schema"
)

// IncludeRecord describes what became of one reference directive of
// the entry document.
type IncludeRecord = flatten.IncludeRecord

// Result is a completed parse. The tree is owned by the caller;
// resolved documents held by the cache are never exposed mutably.
type Result struct {
	// RequestID tags the parse for correlation with logs.
	RequestID string

	// Source is the canonical identity of the entry document.
	Source schema.SourceID

	// TargetNamespace is the entry document's target namespace.
	TargetNamespace string

	// Namespaces maps the result root's prefixes to namespace URIs.
	Namespaces map[string]string

	// Tree is the materialized document: merged in Flatten mode, the
	// entry document with directives intact in PreserveStructure mode.
	Tree *etree.Document

	// Includes records the entry document's directives in document
	// order.
	Includes []IncludeRecord

	// Warnings lists the non-fatal findings of lenient resolution.
	Warnings []schema.Warning

	mode  IncludeMode
	graph *graph.Graph

	modelOnce sync.Once
	model     *model.Schema
	modelErr  error
}

// Root returns the result tree's root element.
func (r *Result) Root() *etree.Element {
	return r.Tree.Root()
}

// Graph exposes the resolved dependency graph behind the result.
func (r *Result) Graph() *graph.Graph {
	return r.graph
}

// Model builds the typed construct model of the result on first use
// and returns the same model afterwards. In PreserveStructure mode the
// model's directive nodes carry the models of their resolved targets.
func (r *Result) Model() (*model.Schema, error) {
	r.modelOnce.Do(func() {
		if r.mode == Flatten {
			r.model, r.modelErr = model.Build(r.Tree.Root())
			if r.modelErr == nil {
				r.model.Source = r.Source
			}
			return
		}
		r.model, r.modelErr = model.BuildGraph(r.graph.Entry)
	})
	return r.model, r.modelErr
}
