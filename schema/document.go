package schema

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Document is a parsed schema document together with the structural
// metadata reference resolution needs. Documents handed out by the
// cache are shared between callers and must be treated as immutable;
// use Clone before mutating the tree.
type Document struct {
	// ID is the canonical identity the document was loaded under.
	ID SourceID

	// TargetNamespace is the root element's targetNamespace attribute.
	// Empty for chameleon documents, which adopt the namespace of
	// whatever document includes them.
	TargetNamespace string

	// Namespaces maps the prefixes declared on the root element to
	// their URIs. The empty key holds the default namespace.
	Namespaces map[string]string

	// Tree is the full XML tree.
	Tree *etree.Document

	// Directives lists the document's include, import, redefine, and
	// override elements in document order.
	Directives []Directive

	// Fingerprint captures the state of the underlying source at load
	// time, used by the cache to detect staleness.
	Fingerprint string
}

// Root returns the xs:schema root element.
func (d *Document) Root() *etree.Element {
	return d.Tree.Root()
}

// IsChameleon reports whether the document declares no target
// namespace and therefore adopts the including document's namespace.
func (d *Document) IsChameleon() bool {
	return d.TargetNamespace == ""
}

// Clone deep-copies the document, giving the caller a tree it may
// freely mutate. The identity and fingerprint carry over.
func (d *Document) Clone() *Document {
	clone := *d
	clone.Tree = d.Tree.Copy()
	clone.Namespaces = make(map[string]string, len(d.Namespaces))
	for k, v := range d.Namespaces {
		clone.Namespaces[k] = v
	}
	clone.Directives = append([]Directive(nil), d.Directives...)
	return &clone
}

// Extract builds a Document from a parsed tree, verifying that the
// root is xs:schema and collecting target namespace, root namespace
// bindings, and directives in document order.
func Extract(tree *etree.Document, id SourceID) (*Document, error) {
	root := tree.Root()
	if root == nil {
		return nil, &Error{
			Kind:    ErrInvalidSchema,
			Source:  id,
			Message: "document has no root element",
		}
	}
	if !IsXSD(root, SchemaTag) {
		return nil, &Error{
			Kind:    ErrInvalidSchema,
			Source:  id,
			Message: fmt.Sprintf("root element is %s, want %s in namespace %s", root.FullTag(), SchemaTag, XSDNamespace),
		}
	}

	doc := &Document{
		ID:              id,
		TargetNamespace: collapse(root.SelectAttrValue("targetNamespace", "")),
		Namespaces:      make(map[string]string),
		Tree:            tree,
	}

	for _, a := range root.Attr {
		switch {
		case a.Space == "xmlns":
			doc.Namespaces[a.Key] = a.Value
		case a.Space == "" && a.Key == "xmlns":
			doc.Namespaces[""] = a.Value
		}
	}

	for _, child := range root.ChildElements() {
		if ElementNamespace(child) != XSDNamespace {
			continue
		}
		var kind DirectiveKind
		switch child.Tag {
		case IncludeTag:
			kind = DirectiveInclude
		case ImportTag:
			kind = DirectiveImport
		case RedefineTag:
			kind = DirectiveRedefine
		case OverrideTag:
			kind = DirectiveOverride
		default:
			continue
		}

		directive := Directive{
			Kind:     kind,
			Location: collapse(child.SelectAttrValue("schemaLocation", "")),
		}
		if kind == DirectiveImport {
			directive.Namespace = collapse(child.SelectAttrValue("namespace", ""))
		} else if directive.Location == "" {
			return nil, &Error{
				Kind:    ErrInvalidSchema,
				Source:  id,
				Message: fmt.Sprintf("%s directive is missing schemaLocation", kind),
			}
		}
		doc.Directives = append(doc.Directives, directive)
	}

	return doc, nil
}

// collapse applies XSD whitespace collapsing to an attribute value:
// leading and trailing whitespace is dropped and internal runs shrink
// to a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
