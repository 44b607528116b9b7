package model

import (
	"github.com/c360studio/xsdgraph/schema"
)

// Schema is the document root construct.
type Schema struct {
	node

	// Source is the canonical identity of the document the model was
	// built from, when known.
	Source schema.SourceID

	// TargetNamespace is the schema's target namespace, empty for
	// chameleon documents.
	TargetNamespace string

	// Namespaces maps root prefixes to namespace URIs; the empty key
	// holds the default namespace.
	Namespaces map[string]string

	ElementFormDefault   string
	AttributeFormDefault string
	Version              string
}

func (s *Schema) DeepCopy() Component {
	dup := *s
	dup.Namespaces = make(map[string]string, len(s.Namespaces))
	for k, v := range s.Namespaces {
		dup.Namespaces[k] = v
	}
	return finishCopy(&dup, s)
}

// Element is a global or local element declaration. Name is empty for
// reference particles; an inline anonymous type appears as a child
// with an empty name, never as a synthesized one.
type Element struct {
	node

	Name      string
	Type      string
	Ref       string
	MinOccurs string
	MaxOccurs string
	Nillable  bool
	Abstract  bool
	Default   string
	Fixed     string
}

func (e *Element) DeepCopy() Component { dup := *e; return finishCopy(&dup, e) }

// Attribute is an attribute declaration or reference.
type Attribute struct {
	node

	Name    string
	Type    string
	Ref     string
	Use     string
	Default string
	Fixed   string
}

func (a *Attribute) DeepCopy() Component { dup := *a; return finishCopy(&dup, a) }

// ComplexType is a complex type definition. Name is empty for
// anonymous inline definitions.
type ComplexType struct {
	node

	Name     string
	Abstract bool
	Mixed    bool
}

func (t *ComplexType) DeepCopy() Component { dup := *t; return finishCopy(&dup, t) }

// SimpleType is a simple type definition. Name is empty for anonymous
// inline definitions.
type SimpleType struct {
	node

	Name string
}

func (t *SimpleType) DeepCopy() Component { dup := *t; return finishCopy(&dup, t) }

// Sequence is an ordered particle group.
type Sequence struct {
	node

	MinOccurs string
	MaxOccurs string
}

func (s *Sequence) DeepCopy() Component { dup := *s; return finishCopy(&dup, s) }

// Choice is an exclusive particle group.
type Choice struct {
	node

	MinOccurs string
	MaxOccurs string
}

func (c *Choice) DeepCopy() Component { dup := *c; return finishCopy(&dup, c) }

// All is an unordered particle group.
type All struct {
	node

	MinOccurs string
	MaxOccurs string
}

func (a *All) DeepCopy() Component { dup := *a; return finishCopy(&dup, a) }

// Restriction derives a type by constraining a base type.
type Restriction struct {
	node

	Base string
}

func (r *Restriction) DeepCopy() Component { dup := *r; return finishCopy(&dup, r) }

// Extension derives a type by extending a base type.
type Extension struct {
	node

	Base string
}

func (e *Extension) DeepCopy() Component { dup := *e; return finishCopy(&dup, e) }

// SimpleContent wraps character-data content of a complex type.
type SimpleContent struct {
	node
}

func (s *SimpleContent) DeepCopy() Component { dup := *s; return finishCopy(&dup, s) }

// ComplexContent wraps element content of a complex type.
type ComplexContent struct {
	node

	Mixed bool
}

func (c *ComplexContent) DeepCopy() Component { dup := *c; return finishCopy(&dup, c) }

// Facet is one constraining facet of a restriction. Name holds the
// facet's element name (enumeration, pattern, minLength, ...).
type Facet struct {
	node

	Name  string
	Value string
	Fixed bool
}

func (f *Facet) DeepCopy() Component { dup := *f; return finishCopy(&dup, f) }

// Group is a named model group definition or reference.
type Group struct {
	node

	Name      string
	Ref       string
	MinOccurs string
	MaxOccurs string
}

func (g *Group) DeepCopy() Component { dup := *g; return finishCopy(&dup, g) }

// AttributeGroup is a named attribute group definition or reference.
type AttributeGroup struct {
	node

	Name string
	Ref  string
}

func (g *AttributeGroup) DeepCopy() Component { dup := *g; return finishCopy(&dup, g) }

// Union is a simple type union; MemberTypes holds the QName list as
// written.
type Union struct {
	node

	MemberTypes string
}

func (u *Union) DeepCopy() Component { dup := *u; return finishCopy(&dup, u) }

// List is a simple type list; ItemType holds the QName as written.
type List struct {
	node

	ItemType string
}

func (l *List) DeepCopy() Component { dup := *l; return finishCopy(&dup, l) }

// Any is a wildcard element particle.
type Any struct {
	node

	Namespace       string
	ProcessContents string
	MinOccurs       string
	MaxOccurs       string
}

func (a *Any) DeepCopy() Component { dup := *a; return finishCopy(&dup, a) }

// AnyAttribute is a wildcard attribute.
type AnyAttribute struct {
	node

	Namespace       string
	ProcessContents string
}

func (a *AnyAttribute) DeepCopy() Component { dup := *a; return finishCopy(&dup, a) }

// Notation is a notation declaration.
type Notation struct {
	node

	Name   string
	Public string
	System string
}

func (n *Notation) DeepCopy() Component { dup := *n; return finishCopy(&dup, n) }

// Include is an include directive node, present when a preserved tree
// is modeled. Nested is the resolved target's model when graph
// resolution supplied one; deep copies share it, since it models a
// different document.
type Include struct {
	node

	Location string
	Nested   *Schema
}

func (i *Include) DeepCopy() Component { dup := *i; return finishCopy(&dup, i) }

// Import is an import directive node.
type Import struct {
	node

	Namespace string
	Location  string
	Nested    *Schema
}

func (i *Import) DeepCopy() Component { dup := *i; return finishCopy(&dup, i) }

// Redefine is a redefine directive node; its replacement declarations
// appear as children.
type Redefine struct {
	node

	Location string
	Nested   *Schema
}

func (r *Redefine) DeepCopy() Component { dup := *r; return finishCopy(&dup, r) }

// Override is an override directive node; its replacement declarations
// appear as children.
type Override struct {
	node

	Location string
	Nested   *Schema
}

func (o *Override) DeepCopy() Component { dup := *o; return finishCopy(&dup, o) }

// Annotation groups documentation and appinfo entries.
type Annotation struct {
	node
}

func (a *Annotation) DeepCopy() Component { dup := *a; return finishCopy(&dup, a) }

// Documentation is one human-readable documentation entry. Lang holds
// the xml:lang tag, resolved by qualified attribute lookup.
type Documentation struct {
	node

	Source string
	Lang   string
	Text   string
}

func (d *Documentation) DeepCopy() Component { dup := *d; return finishCopy(&dup, d) }

// AppInfo is one machine-readable annotation entry.
type AppInfo struct {
	node

	Source string
	Text   string
}

func (a *AppInfo) DeepCopy() Component { dup := *a; return finishCopy(&dup, a) }
