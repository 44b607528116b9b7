package schema

// DirectiveKind names one of the four schema reference directives.
type DirectiveKind string

const (
	DirectiveInclude  DirectiveKind = "include"
	DirectiveImport   DirectiveKind = "import"
	DirectiveRedefine DirectiveKind = "redefine"
	DirectiveOverride DirectiveKind = "override"
)

// Directive is one include, import, redefine, or override element
// extracted from a schema document, in document order. It records what
// the directive asks for, not whether the request succeeded; resolution
// outcomes live on graph edges.
type Directive struct {
	// Kind is the directive element's local name.
	Kind DirectiveKind

	// Location is the schemaLocation attribute, whitespace-collapsed.
	// Imports may legally omit it, in which case it is empty and the
	// directive cannot be followed.
	Location string

	// Namespace is the namespace attribute of an import directive.
	// Empty for the other kinds, and for no-namespace imports.
	Namespace string
}

// Followable reports whether the directive carries a location that can
// be resolved and fetched.
func (d Directive) Followable() bool {
	return d.Location != ""
}
