package graph

import (
	"github.com/c360studio/xsdgraph/schema"
)

// DefaultMaxDepth is the include-chain limit applied when a context is
// created with a non-positive one.
const DefaultMaxDepth = 32

// Context carries the mutable state of one dependency walk: the
// identities currently on the recursion stack, the identities already
// fully resolved, the current chain depth, and accumulated warnings.
//
// A document found on the stack is a cycle; a document found in the
// processed set is a benign duplicate. Keeping the two apart is what
// lets a diamond dependency resolve cleanly while a genuine loop is
// reported as one.
//
// A Context belongs to exactly one top-level resolution and is never
// shared across concurrent requests.
type Context struct {
	stack     []schema.SourceID
	onStack   map[schema.SourceID]bool
	processed map[schema.SourceID]*Node
	maxDepth  int
	warnings  []schema.Warning
}

// NewContext builds the state for one walk. maxDepth bounds how many
// reference edges may be followed along a single path; values below 1
// fall back to DefaultMaxDepth.
func NewContext(maxDepth int) *Context {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Context{
		onStack:   make(map[schema.SourceID]bool),
		processed: make(map[schema.SourceID]*Node),
		maxDepth:  maxDepth,
	}
}

// Depth returns how many reference edges separate the current document
// from the entry document.
func (c *Context) Depth() int {
	if len(c.stack) == 0 {
		return 0
	}
	return len(c.stack) - 1
}

// OnStack reports whether id is currently being resolved, which from a
// descendant's point of view means a circular reference.
func (c *Context) OnStack(id schema.SourceID) bool {
	return c.onStack[id]
}

// Processed returns the finished node for id, if the walk has fully
// resolved it through some other path already.
func (c *Context) Processed(id schema.SourceID) (*Node, bool) {
	n, ok := c.processed[id]
	return n, ok
}

// Warnings returns the findings accumulated so far, in order.
func (c *Context) Warnings() []schema.Warning {
	return c.warnings
}

func (c *Context) push(id schema.SourceID) {
	c.stack = append(c.stack, id)
	c.onStack[id] = true
}

// pop moves the top of the stack into the processed set.
func (c *Context) pop(n *Node) {
	id := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	delete(c.onStack, id)
	c.processed[id] = n
}

func (c *Context) warn(source schema.SourceID, ref, message string) {
	c.warnings = append(c.warnings, schema.Warning{
		Source:  source,
		Ref:     ref,
		Message: message,
	})
}
