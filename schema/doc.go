// Package schema defines the core vocabulary shared by every other
// package in the module: source identities, parsed schema documents,
// reference directives, and the error taxonomy used to classify
// resolution failures.
//
// A schema document is an XML tree whose root is xs:schema. The package
// does not interpret declarations beyond the structural metadata needed
// for reference resolution (target namespace, namespace bindings, and
// the include/import/redefine/override directives in document order).
// Validation of schema semantics is out of scope.
package schema
