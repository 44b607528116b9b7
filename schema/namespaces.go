package schema

// Namespace URIs used when inspecting schema documents. Lookups are
// always performed against the resolved namespace of an element or
// attribute, never against raw prefixes, so documents are free to bind
// any prefix (xs, xsd, or a default binding) to the schema namespace.
const (
	// XSDNamespace is the W3C XML Schema namespace. The root element of
	// every schema document and all of its directives live here.
	XSDNamespace = "http://www.w3.org/2001/XMLSchema"

	// XMLNamespace is the namespace implicitly bound to the xml prefix,
	// used for attributes such as xml:lang on documentation elements.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"

	// ProvenanceNamespace marks attributes added by the flattener to
	// record which source document a spliced declaration came from.
	ProvenanceNamespace = "https://c360studio.github.io/xsdgraph/provenance"
)

// Local names of the root element and the four reference directives.
const (
	SchemaTag   = "schema"
	IncludeTag  = "include"
	ImportTag   = "import"
	RedefineTag = "redefine"
	OverrideTag = "override"
)
