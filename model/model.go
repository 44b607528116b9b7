// Package model turns schema document trees into a typed construct
// model. Every XML Schema construct maps to one variant type, and all
// variants share a single capability surface for traversal and
// copying, so consumers walk one closed set instead of switching on
// raw XML elements.
package model

// Kind identifies a schema construct variant.
type Kind string

const (
	KindSchema         Kind = "schema"
	KindElement        Kind = "element"
	KindAttribute      Kind = "attribute"
	KindComplexType    Kind = "complexType"
	KindSimpleType     Kind = "simpleType"
	KindSequence       Kind = "sequence"
	KindChoice         Kind = "choice"
	KindAll            Kind = "all"
	KindRestriction    Kind = "restriction"
	KindExtension      Kind = "extension"
	KindSimpleContent  Kind = "simpleContent"
	KindComplexContent Kind = "complexContent"
	KindFacet          Kind = "facet"
	KindGroup          Kind = "group"
	KindAttributeGroup Kind = "attributeGroup"
	KindUnion          Kind = "union"
	KindList           Kind = "list"
	KindAny            Kind = "any"
	KindAnyAttribute   Kind = "anyAttribute"
	KindNotation       Kind = "notation"
	KindInclude        Kind = "include"
	KindImport         Kind = "import"
	KindRedefine       Kind = "redefine"
	KindOverride       Kind = "override"
	KindAnnotation     Kind = "annotation"
	KindDocumentation  Kind = "documentation"
	KindAppInfo        Kind = "appinfo"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Component is the capability surface shared by every construct
// variant. The set of implementations is closed: only types in this
// package satisfy it.
type Component interface {
	// Kind identifies the construct variant.
	Kind() Kind

	// Parent returns the enclosing construct, nil for a detached root.
	Parent() Component

	// Children returns the nested constructs in physical document
	// order. The slice is shared; callers must not modify it.
	Children() []Component

	// DeepCopy copies the construct and its whole subtree. The copy is
	// detached: its parent is nil.
	DeepCopy() Component

	base() *node
}

// node carries the linkage every variant shares. Variants embed it and
// the builder maintains it, keeping parent pointers and child order
// consistent.
type node struct {
	kind     Kind
	parent   Component
	children []Component
}

func (n *node) Kind() Kind            { return n.kind }
func (n *node) Parent() Component     { return n.parent }
func (n *node) Children() []Component { return n.children }
func (n *node) base() *node           { return n }

// attach links child under parent, preserving insertion order.
func attach(parent, child Component) {
	child.base().parent = parent
	pb := parent.base()
	pb.children = append(pb.children, child)
}

// finishCopy completes a variant's DeepCopy: dup is a shallow copy of
// src whose linkage is reset here, then src's children are deep-copied
// underneath it.
func finishCopy(dup, src Component) Component {
	b := dup.base()
	b.parent = nil
	b.children = nil
	for _, ch := range src.Children() {
		attach(dup, ch.DeepCopy())
	}
	return dup
}

// Docs collects the documentation entries attached to a construct
// through its annotation children, in document order.
func Docs(c Component) []*Documentation {
	var docs []*Documentation
	for _, ch := range c.Children() {
		ann, ok := ch.(*Annotation)
		if !ok {
			continue
		}
		for _, ach := range ann.Children() {
			if d, ok := ach.(*Documentation); ok {
				docs = append(docs, d)
			}
		}
	}
	return docs
}
