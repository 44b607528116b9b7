// Package graph builds the dependency graph of a schema document set.
// Starting from an entry document it walks reference directives
// depth-first, resolving each target through an injected resolver,
// detecting cycles, and collapsing diamond dependencies so every
// distinct document is resolved exactly once.
package graph

import (
	"github.com/c360studio/xsdgraph/schema"
)

// Outcome classifies how one reference edge resolved.
type Outcome string

const (
	// OutcomeResolved means the target was fetched, parsed, and walked.
	OutcomeResolved Outcome = "resolved"

	// OutcomeUnresolved means the target could not be used: missing,
	// malformed, blocked, or a cycle in lenient mode. Err holds why.
	OutcomeUnresolved Outcome = "unresolved"

	// OutcomeSkippedDuplicate means the target had already been fully
	// resolved through another path; the edge reuses that node.
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"

	// OutcomeNotFollowed means the directive was deliberately not
	// followed: an import with resolution disabled, or an import with
	// no schemaLocation. It is neither an error nor a duplicate.
	OutcomeNotFollowed Outcome = "not_followed"
)

// Edge is one reference directive of a document and what became of it.
type Edge struct {
	// Directive is the reference as written, in document order.
	Directive schema.Directive

	// Outcome classifies the resolution.
	Outcome Outcome

	// Target is the resolved node for Resolved and SkippedDuplicate
	// edges, nil otherwise.
	Target *Node

	// Err records why an Unresolved edge failed.
	Err error
}

// Node is one distinct document in the resolved graph. A document
// reachable over several paths appears as a single node referenced by
// several edges.
type Node struct {
	// Doc is the parsed document. It may be shared with the cache and
	// must be treated as immutable.
	Doc *schema.Document

	// Edges mirrors Doc.Directives one to one, in document order.
	Edges []Edge
}

// ID returns the node's canonical source identity.
func (n *Node) ID() schema.SourceID {
	return n.Doc.ID
}

// Graph is the result of one dependency walk.
type Graph struct {
	// Entry is the node the walk started from.
	Entry *Node

	// Warnings lists the non-fatal findings of a lenient walk, in
	// discovery order.
	Warnings []schema.Warning

	nodes map[schema.SourceID]*Node
	order []*Node
}

// Node looks a document up by canonical identity.
func (g *Graph) Node(id schema.SourceID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Order returns every distinct document in deterministic first-
// encounter depth-first order, the entry document first. The slice is
// shared; callers must not modify it.
func (g *Graph) Order() []*Node {
	return g.order
}

// Len returns the number of distinct documents in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

func newGraph() *Graph {
	return &Graph{nodes: make(map[schema.SourceID]*Node)}
}

// add registers a newly resolved document and returns its node.
func (g *Graph) add(doc *schema.Document) *Node {
	n := &Node{Doc: doc}
	g.nodes[doc.ID] = n
	g.order = append(g.order, n)
	return n
}
