package flatten

import (
	"github.com/beevik/etree"

	"github.com/c360studio/xsdgraph/schema"
)

// Result is a materialized schema document: its tree, its namespace
// context, and a record per reference directive describing how the
// directive was handled. The tree is a private copy; callers may
// mutate it freely without affecting cached documents.
type Result struct {
	// Tree is the document tree. Flattened results carry the merged
	// tree; preserved results carry one document with its directives
	// intact.
	Tree *etree.Document

	// Source is the canonical identity the document was loaded under.
	Source schema.SourceID

	// TargetNamespace is the document's target namespace, empty for
	// chameleon documents.
	TargetNamespace string

	// Namespaces maps root-element prefixes to namespace URIs. The
	// empty key holds the default namespace.
	Namespaces map[string]string

	// Includes records the document's own reference directives in
	// document order, one record per directive.
	Includes []IncludeRecord

	// Warnings lists the non-fatal findings of lenient resolution.
	// Only the top-level result carries them.
	Warnings []schema.Warning
}

// Root returns the result tree's root element.
func (r *Result) Root() *etree.Element {
	return r.Tree.Root()
}

// IncludeRecord describes what became of one reference directive.
type IncludeRecord struct {
	// Kind is the directive kind as written.
	Kind schema.DirectiveKind

	// Location is the raw schemaLocation attribute.
	Location string

	// Resolved reports whether the target document was resolved. It is
	// false for unresolved references and for imports that were not
	// followed.
	Resolved bool

	// Nested is the resolved target as its own result. Preserved
	// results carry one for every resolved directive; flattened
	// results carry one for resolved imports, whose documents stay
	// separate.
	Nested *Result

	// Err records why an unresolved reference failed.
	Err error
}

// xmlnsBindings collects the xmlns declarations of an element the same
// way document extraction does, so results built from mutated trees
// report their actual bindings.
func xmlnsBindings(el *etree.Element) map[string]string {
	bindings := make(map[string]string)
	for _, a := range el.Attr {
		switch {
		case a.Space == "xmlns":
			bindings[a.Key] = a.Value
		case a.Space == "" && a.Key == "xmlns":
			bindings[""] = a.Value
		}
	}
	return bindings
}
