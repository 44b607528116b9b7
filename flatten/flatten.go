// Package flatten materializes a resolved schema graph. Flatten merges
// every included document into one tree with no include, redefine, or
// override directives left; Preserve keeps documents separate and
// links them through resolved-include records. Both operate on private
// copies, so cached documents are never mutated.
package flatten

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/xsdgraph/graph"
	"github.com/c360studio/xsdgraph/schema"
)

// Options control how a resolved graph is materialized.
type Options struct {
	// AddProvenance stamps every spliced top-level declaration with an
	// attribute naming its originating document, under the provenance
	// namespace declared once on the merged root.
	AddProvenance bool

	// Strict aborts on the first unresolved edge. When false an
	// unresolved include stays in the tree as an unexpanded marker
	// directive and the warning recorded during resolution stands.
	Strict bool

	// Logger records merge activity. Nil discards.
	Logger *slog.Logger
}

// Flatten merges a resolved graph into a single document. Includes,
// redefines, and overrides are expanded bottom-up in document order,
// splicing each target's top-level declarations at the directive's
// position. A document reachable over several paths is spliced exactly
// once; redefine and override declarations replace the same-name
// declarations of their targets, with override taking precedence over
// redefine for the same name. Import directives remain in place, and
// imports carried in from included documents are hoisted to the top of
// the merged root.
func Flatten(g *graph.Graph, opts Options) (*Result, error) {
	if g == nil || g.Entry == nil {
		return nil, errors.New("flatten: graph has no entry document")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f := &flattener{
		opts:     opts,
		logger:   logger,
		merged:   make(map[schema.SourceID]bool),
		replaced: make(map[declKey]schema.DirectiveKind),
		imports:  newPreserver(opts),
	}

	entry := g.Entry
	doc := entry.Doc.Clone()
	f.merged[entry.ID()] = true
	if err := f.expand(doc.Tree.Root(), entry); err != nil {
		return nil, err
	}

	root := doc.Tree.Root()
	if f.stamped {
		root.CreateAttr("xmlns:prov", schema.ProvenanceNamespace)
	}

	includes, err := f.records(entry)
	if err != nil {
		return nil, err
	}
	return &Result{
		Tree:            doc.Tree,
		Source:          doc.ID,
		TargetNamespace: doc.TargetNamespace,
		Namespaces:      xmlnsBindings(root),
		Includes:        includes,
		Warnings:        g.Warnings,
	}, nil
}

// declKey identifies a top-level declaration by element tag and name
// attribute, the granularity at which redefine and override replace.
type declKey struct {
	tag  string
	name string
}

// spliceItem is one detached element waiting to be spliced, with its
// declaration key captured while the element was still attached and
// prefix lookups could see its ancestor chain.
type spliceItem struct {
	el    *etree.Element
	key   declKey
	keyed bool
}

type flattener struct {
	opts   Options
	logger *slog.Logger

	// merged holds the identities spliced in this pass, so a diamond
	// target contributes its declarations exactly once.
	merged map[schema.SourceID]bool

	// replaced records which directive kind last claimed a declaration
	// name, so an override replacement is not undone by a later
	// redefine of the same name.
	replaced map[declKey]schema.DirectiveKind

	// imports builds nested results for resolved import records.
	imports *preserver

	// stamped is set once any provenance attribute was written, which
	// is what makes the root-level namespace declaration necessary.
	stamped bool
}

// expand merges every include, redefine, and override of node into
// root. root is the cloned tree of node's document, so its directive
// elements correspond to node's edges one to one in document order.
func (f *flattener) expand(root *etree.Element, node *graph.Node) error {
	els := directiveElements(root)
	if len(els) != len(node.Edges) {
		return fmt.Errorf("flatten: %s carries %d directive elements but %d resolved edges",
			node.ID(), len(els), len(node.Edges))
	}

	for i, e := range node.Edges {
		el := els[i]

		if e.Directive.Kind == schema.DirectiveImport {
			// Imports cross namespace boundaries and always remain.
			continue
		}
		if e.Outcome == graph.OutcomeUnresolved {
			if f.opts.Strict {
				return e.Err
			}
			f.logger.Debug("leaving unresolved directive as marker",
				slog.String("source", node.ID().String()),
				slog.String("ref", e.Directive.Location))
			continue
		}

		target := e.Target
		var items []spliceItem
		if !f.merged[target.ID()] {
			f.merged[target.ID()] = true
			child := target.Doc.Clone()
			if err := f.expand(child.Tree.Root(), target); err != nil {
				return err
			}
			items = f.harvest(root, child)
			f.logger.Debug("merged document",
				slog.String("into", node.ID().String()),
				slog.String("from", target.ID().String()))
		}

		if e.Directive.Kind == schema.DirectiveRedefine || e.Directive.Kind == schema.DirectiveOverride {
			items = f.applyOwn(root, el, node.Doc, e.Directive.Kind, items)
		}

		idx := el.Index()
		root.RemoveChild(el)
		for j, item := range items {
			root.InsertChildAt(idx+j, item.el)
		}
	}
	return nil
}

// harvest detaches the top-level children of a fully expanded child
// document, carrying the namespace bindings and provenance they need
// to keep their meaning inside destRoot. Import elements are hoisted
// to the top of destRoot instead of riding along, since they must
// precede declarations.
func (f *flattener) harvest(destRoot *etree.Element, child *schema.Document) []spliceItem {
	childRoot := child.Tree.Root()
	carry := carryBindings(child, destRoot)

	var items []spliceItem
	for _, ce := range childRoot.ChildElements() {
		if schema.IsXSD(ce, schema.ImportTag) {
			childRoot.RemoveChild(ce)
			f.hoistImport(destRoot, ce)
			continue
		}
		key, keyed := keyOf(ce)
		childRoot.RemoveChild(ce)
		applyBindings(ce, carry)
		if f.opts.AddProvenance {
			f.stamp(ce, child.ID)
		}
		items = append(items, spliceItem{el: ce, key: key, keyed: keyed})
	}
	return items
}

// applyOwn moves the declarations written inside a redefine or
// override element into the splice list, replacing the target's
// same-name declarations. Names already claimed by an override are not
// reclaimed by a redefine.
func (f *flattener) applyOwn(destRoot, el *etree.Element, doc *schema.Document, kind schema.DirectiveKind, items []spliceItem) []spliceItem {
	ownCarry := bindingAttrs(xmlnsBindings(el))
	for _, ce := range el.ChildElements() {
		key, keyed := keyOf(ce)
		el.RemoveChild(ce)
		applyBindings(ce, ownCarry)
		if f.opts.AddProvenance {
			f.stamp(ce, doc.ID)
		}
		item := spliceItem{el: ce, key: key, keyed: keyed}

		if !keyed {
			// Annotations and other unnamed children ride along.
			items = append(items, item)
			continue
		}
		if prev, ok := f.replaced[key]; ok && prev == schema.DirectiveOverride && kind == schema.DirectiveRedefine {
			// An override already claimed this name; drop both the
			// redefinition and the target's declaration.
			items = removeKey(items, key)
			continue
		}
		f.replaced[key] = kind
		removeExisting(destRoot, key)
		if i := indexOfKey(items, key); i >= 0 {
			items[i] = item
		} else {
			items = append(items, item)
		}
	}
	return items
}

// records reports the entry document's directives the way preserve
// mode does. Resolved imports expose their target as a nested result,
// since flattening leaves imported documents separate.
func (f *flattener) records(entry *graph.Node) ([]IncludeRecord, error) {
	var recs []IncludeRecord
	for _, e := range entry.Edges {
		rec := IncludeRecord{
			Kind:     e.Directive.Kind,
			Location: e.Directive.Location,
		}
		switch e.Outcome {
		case graph.OutcomeResolved, graph.OutcomeSkippedDuplicate:
			rec.Resolved = true
			if e.Directive.Kind == schema.DirectiveImport {
				nested, err := f.imports.build(e.Target)
				if err != nil {
					return nil, err
				}
				rec.Nested = nested
			}
		case graph.OutcomeUnresolved:
			rec.Err = e.Err
		case graph.OutcomeNotFollowed:
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// hoistImport moves an import carried in from an included document to
// the top of destRoot, before its first declaration. Imports that
// duplicate an existing (namespace, schemaLocation) pair are dropped.
func (f *flattener) hoistImport(destRoot *etree.Element, imp *etree.Element) {
	ns := collapse(imp.SelectAttrValue("namespace", ""))
	loc := collapse(imp.SelectAttrValue("schemaLocation", ""))
	for _, ce := range destRoot.ChildElements() {
		if schema.IsXSD(ce, schema.ImportTag) &&
			collapse(ce.SelectAttrValue("namespace", "")) == ns &&
			collapse(ce.SelectAttrValue("schemaLocation", "")) == loc {
			return
		}
	}
	if idx := hoistIndex(destRoot); idx >= 0 {
		destRoot.InsertChildAt(idx, imp)
	} else {
		destRoot.AddChild(imp)
	}
}

// stamp records a declaration's originating document, leaving existing
// stamps intact so provenance always names the physical source.
func (f *flattener) stamp(el *etree.Element, id schema.SourceID) {
	if el.SelectAttr("prov:source") != nil {
		return
	}
	el.CreateAttr("prov:source", id.String())
	f.stamped = true
}

// directiveElements lists the include, import, redefine, and override
// children of a schema root in document order, mirroring how directive
// extraction walks the tree.
func directiveElements(root *etree.Element) []*etree.Element {
	var els []*etree.Element
	for _, ce := range root.ChildElements() {
		if schema.ElementNamespace(ce) != schema.XSDNamespace {
			continue
		}
		switch ce.Tag {
		case schema.IncludeTag, schema.ImportTag, schema.RedefineTag, schema.OverrideTag:
			els = append(els, ce)
		}
	}
	return els
}

// keyOf returns the declaration key of a named top-level schema
// element. Unnamed children such as annotations have no key.
func keyOf(el *etree.Element) (declKey, bool) {
	if schema.ElementNamespace(el) != schema.XSDNamespace {
		return declKey{}, false
	}
	name := collapse(el.SelectAttrValue("name", ""))
	if name == "" {
		return declKey{}, false
	}
	return declKey{tag: el.Tag, name: name}, true
}

// carryBindings selects the child document's root bindings a spliced
// declaration must carry along: every binding the destination root
// does not already declare identically. A chameleon document adopts
// the including document's default namespace, so its own default is
// carried only when it is the schema namespace itself, which the
// meaning of unprefixed markup depends on.
func carryBindings(child *schema.Document, destRoot *etree.Element) []etree.Attr {
	dest := xmlnsBindings(destRoot)
	carry := make(map[string]string)
	for prefix, uri := range child.Namespaces {
		if dest[prefix] == uri {
			continue
		}
		if prefix == "" && child.IsChameleon() && uri != schema.XSDNamespace {
			continue
		}
		carry[prefix] = uri
	}
	return bindingAttrs(carry)
}

// bindingAttrs renders prefix bindings as xmlns attributes in sorted
// order, keeping merged output deterministic.
func bindingAttrs(bindings map[string]string) []etree.Attr {
	prefixes := make([]string, 0, len(bindings))
	for p := range bindings {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	attrs := make([]etree.Attr, 0, len(prefixes))
	for _, p := range prefixes {
		if p == "" {
			attrs = append(attrs, etree.Attr{Key: "xmlns", Value: bindings[p]})
			continue
		}
		attrs = append(attrs, etree.Attr{Space: "xmlns", Key: p, Value: bindings[p]})
	}
	return attrs
}

// applyBindings declares the carried bindings on a detached element,
// skipping prefixes the element already declares itself.
func applyBindings(el *etree.Element, carry []etree.Attr) {
	for _, a := range carry {
		full := "xmlns"
		if a.Space != "" {
			full = "xmlns:" + a.Key
		}
		if el.SelectAttr(full) != nil {
			continue
		}
		el.CreateAttr(full, a.Value)
	}
}

// hoistIndex returns the token index just after the root's leading
// import block. Splicing keeps inserting declarations at directive
// positions, so only the very top of the root is guaranteed to stay
// ahead of every declaration.
func hoistIndex(root *etree.Element) int {
	for _, ce := range root.ChildElements() {
		if schema.IsXSD(ce, schema.ImportTag) {
			continue
		}
		return ce.Index()
	}
	return -1
}

// removeExisting deletes a same-key declaration merged into destRoot
// by an earlier directive, so a replacement never duplicates it.
func removeExisting(destRoot *etree.Element, key declKey) {
	for _, ce := range destRoot.ChildElements() {
		if k, ok := keyOf(ce); ok && k == key {
			destRoot.RemoveChild(ce)
			return
		}
	}
}

func indexOfKey(items []spliceItem, key declKey) int {
	for i, item := range items {
		if item.keyed && item.key == key {
			return i
		}
	}
	return -1
}

func removeKey(items []spliceItem, key declKey) []spliceItem {
	if i := indexOfKey(items, key); i >= 0 {
		return append(items[:i], items[i+1:]...)
	}
	return items
}

// collapse applies XSD whitespace collapsing to an attribute value.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
