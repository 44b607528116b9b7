package schema

import "github.com/beevik/etree"

// ElementNamespace resolves the namespace URI of an element by walking
// its ancestor chain for the matching xmlns declaration. An unprefixed
// element picks up the innermost default namespace; an unbound prefix
// resolves to the empty string.
func ElementNamespace(el *etree.Element) string {
	if el.Space == "" {
		return lookupDefaultNamespace(el)
	}
	return lookupPrefix(el, el.Space)
}

// IsXSD reports whether el is an XML Schema element with the given
// local name.
func IsXSD(el *etree.Element, local string) bool {
	return el.Tag == local && ElementNamespace(el) == XSDNamespace
}

// AttrValue returns the value of the attribute with the given
// namespace URI and local name, resolving attribute prefixes against
// the element's ancestor chain. Pass an empty namespace for attributes
// with no prefix; per XML rules unprefixed attributes never inherit a
// default namespace.
func AttrValue(el *etree.Element, namespace, local string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key != local {
			continue
		}
		switch {
		case a.Space == "":
			if namespace == "" {
				return a.Value, true
			}
		case a.Space == "xmlns":
			// Namespace declaration, not a regular attribute.
		default:
			if lookupPrefix(el, a.Space) == namespace {
				return a.Value, true
			}
		}
	}
	return "", false
}

// lookupPrefix resolves a namespace prefix by walking el and its
// ancestors for an xmlns:prefix declaration. The xml prefix is bound
// implicitly and needs no declaration.
func lookupPrefix(el *etree.Element, prefix string) string {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	if prefix == "xml" {
		return XMLNamespace
	}
	return ""
}

// lookupDefaultNamespace resolves the innermost default namespace in
// scope at el, or the empty string when none is declared.
func lookupDefaultNamespace(el *etree.Element) string {
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == "" && a.Key == "xmlns" {
				return a.Value
			}
		}
	}
	return ""
}
