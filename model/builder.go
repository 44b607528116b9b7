package model

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/c360studio/xsdgraph/graph"
	"github.com/c360studio/xsdgraph/schema"
)

// facetTags lists the constraining facet element names modeled as
// Facet variants.
var facetTags = map[string]bool{
	"enumeration":    true,
	"pattern":        true,
	"whiteSpace":     true,
	"length":         true,
	"minLength":      true,
	"maxLength":      true,
	"minInclusive":   true,
	"maxInclusive":   true,
	"minExclusive":   true,
	"maxExclusive":   true,
	"totalDigits":    true,
	"fractionDigits": true,
}

// Build models a schema tree rooted at an xs:schema element. Child
// constructs keep their physical document order; constructs outside
// the modeled set, and elements of foreign vocabularies, are skipped.
func Build(root *etree.Element) (*Schema, error) {
	if root == nil || !schema.IsXSD(root, schema.SchemaTag) {
		return nil, &schema.Error{
			Kind:    schema.ErrInvalidSchema,
			Message: "model: root element is not a schema",
		}
	}

	s := &Schema{
		TargetNamespace:      root.SelectAttrValue("targetNamespace", ""),
		Namespaces:           make(map[string]string),
		ElementFormDefault:   root.SelectAttrValue("elementFormDefault", ""),
		AttributeFormDefault: root.SelectAttrValue("attributeFormDefault", ""),
		Version:              root.SelectAttrValue("version", ""),
	}
	s.kind = KindSchema
	for _, a := range root.Attr {
		switch {
		case a.Space == "xmlns":
			s.Namespaces[a.Key] = a.Value
		case a.Space == "" && a.Key == "xmlns":
			s.Namespaces[""] = a.Value
		}
	}

	for _, ce := range root.ChildElements() {
		buildChild(s, ce)
	}
	return s, nil
}

// BuildDocument models a resolved document, carrying its identity.
func BuildDocument(doc *schema.Document) (*Schema, error) {
	s, err := Build(doc.Root())
	if err != nil {
		return nil, err
	}
	s.Source = doc.ID
	return s, nil
}

// BuildGraph models a resolved graph: the entry document's model, with
// the model of every resolved target attached to its directive node.
// A document reachable over several paths models once and is shared.
func BuildGraph(node *graph.Node) (*Schema, error) {
	if node == nil {
		return nil, fmt.Errorf("model: nil graph node")
	}
	b := &graphModels{memo: make(map[schema.SourceID]*Schema)}
	return b.build(node)
}

type graphModels struct {
	memo map[schema.SourceID]*Schema
}

func (b *graphModels) build(n *graph.Node) (*Schema, error) {
	if s, ok := b.memo[n.ID()]; ok {
		return s, nil
	}
	s, err := BuildDocument(n.Doc)
	if err != nil {
		return nil, err
	}
	b.memo[n.ID()] = s

	// Directive model nodes mirror the node's edges one to one, in
	// document order.
	dirs := directiveNodes(s)
	if len(dirs) != len(n.Edges) {
		return nil, fmt.Errorf("model: %s carries %d directive nodes but %d resolved edges",
			n.ID(), len(dirs), len(n.Edges))
	}
	for i, e := range n.Edges {
		if e.Outcome != graph.OutcomeResolved && e.Outcome != graph.OutcomeSkippedDuplicate {
			continue
		}
		nested, err := b.build(e.Target)
		if err != nil {
			return nil, err
		}
		switch d := dirs[i].(type) {
		case *Include:
			d.Nested = nested
		case *Import:
			d.Nested = nested
		case *Redefine:
			d.Nested = nested
		case *Override:
			d.Nested = nested
		}
	}
	return s, nil
}

func directiveNodes(s *Schema) []Component {
	var dirs []Component
	for _, ch := range s.Children() {
		switch ch.Kind() {
		case KindInclude, KindImport, KindRedefine, KindOverride:
			dirs = append(dirs, ch)
		}
	}
	return dirs
}

// buildChild models one element and its subtree under parent.
func buildChild(parent Component, el *etree.Element) {
	if schema.ElementNamespace(el) != schema.XSDNamespace {
		return
	}

	var c Component
	recurse := true

	switch tag := el.Tag; {
	case tag == "element":
		v := &Element{
			Name:      el.SelectAttrValue("name", ""),
			Type:      el.SelectAttrValue("type", ""),
			Ref:       el.SelectAttrValue("ref", ""),
			MinOccurs: el.SelectAttrValue("minOccurs", ""),
			MaxOccurs: el.SelectAttrValue("maxOccurs", ""),
			Nillable:  boolAttr(el, "nillable"),
			Abstract:  boolAttr(el, "abstract"),
			Default:   el.SelectAttrValue("default", ""),
			Fixed:     el.SelectAttrValue("fixed", ""),
		}
		v.kind = KindElement
		c = v
	case tag == "attribute":
		v := &Attribute{
			Name:    el.SelectAttrValue("name", ""),
			Type:    el.SelectAttrValue("type", ""),
			Ref:     el.SelectAttrValue("ref", ""),
			Use:     el.SelectAttrValue("use", ""),
			Default: el.SelectAttrValue("default", ""),
			Fixed:   el.SelectAttrValue("fixed", ""),
		}
		v.kind = KindAttribute
		c = v
	case tag == "complexType":
		v := &ComplexType{
			Name:     el.SelectAttrValue("name", ""),
			Abstract: boolAttr(el, "abstract"),
			Mixed:    boolAttr(el, "mixed"),
		}
		v.kind = KindComplexType
		c = v
	case tag == "simpleType":
		v := &SimpleType{Name: el.SelectAttrValue("name", "")}
		v.kind = KindSimpleType
		c = v
	case tag == "sequence":
		v := &Sequence{
			MinOccurs: el.SelectAttrValue("minOccurs", ""),
			MaxOccurs: el.SelectAttrValue("maxOccurs", ""),
		}
		v.kind = KindSequence
		c = v
	case tag == "choice":
		v := &Choice{
			MinOccurs: el.SelectAttrValue("minOccurs", ""),
			MaxOccurs: el.SelectAttrValue("maxOccurs", ""),
		}
		v.kind = KindChoice
		c = v
	case tag == "all":
		v := &All{
			MinOccurs: el.SelectAttrValue("minOccurs", ""),
			MaxOccurs: el.SelectAttrValue("maxOccurs", ""),
		}
		v.kind = KindAll
		c = v
	case tag == "restriction":
		v := &Restriction{Base: el.SelectAttrValue("base", "")}
		v.kind = KindRestriction
		c = v
	case tag == "extension":
		v := &Extension{Base: el.SelectAttrValue("base", "")}
		v.kind = KindExtension
		c = v
	case tag == "simpleContent":
		v := &SimpleContent{}
		v.kind = KindSimpleContent
		c = v
	case tag == "complexContent":
		v := &ComplexContent{Mixed: boolAttr(el, "mixed")}
		v.kind = KindComplexContent
		c = v
	case tag == "group":
		v := &Group{
			Name:      el.SelectAttrValue("name", ""),
			Ref:       el.SelectAttrValue("ref", ""),
			MinOccurs: el.SelectAttrValue("minOccurs", ""),
			MaxOccurs: el.SelectAttrValue("maxOccurs", ""),
		}
		v.kind = KindGroup
		c = v
	case tag == "attributeGroup":
		v := &AttributeGroup{
			Name: el.SelectAttrValue("name", ""),
			Ref:  el.SelectAttrValue("ref", ""),
		}
		v.kind = KindAttributeGroup
		c = v
	case tag == "union":
		v := &Union{MemberTypes: el.SelectAttrValue("memberTypes", "")}
		v.kind = KindUnion
		c = v
	case tag == "list":
		v := &List{ItemType: el.SelectAttrValue("itemType", "")}
		v.kind = KindList
		c = v
	case tag == "any":
		v := &Any{
			Namespace:       el.SelectAttrValue("namespace", ""),
			ProcessContents: el.SelectAttrValue("processContents", ""),
			MinOccurs:       el.SelectAttrValue("minOccurs", ""),
			MaxOccurs:       el.SelectAttrValue("maxOccurs", ""),
		}
		v.kind = KindAny
		c = v
	case tag == "anyAttribute":
		v := &AnyAttribute{
			Namespace:       el.SelectAttrValue("namespace", ""),
			ProcessContents: el.SelectAttrValue("processContents", ""),
		}
		v.kind = KindAnyAttribute
		c = v
	case tag == "notation":
		v := &Notation{
			Name:   el.SelectAttrValue("name", ""),
			Public: el.SelectAttrValue("public", ""),
			System: el.SelectAttrValue("system", ""),
		}
		v.kind = KindNotation
		c = v
	case tag == schema.IncludeTag:
		v := &Include{Location: el.SelectAttrValue("schemaLocation", "")}
		v.kind = KindInclude
		c = v
	case tag == schema.ImportTag:
		v := &Import{
			Namespace: el.SelectAttrValue("namespace", ""),
			Location:  el.SelectAttrValue("schemaLocation", ""),
		}
		v.kind = KindImport
		c = v
	case tag == schema.RedefineTag:
		v := &Redefine{Location: el.SelectAttrValue("schemaLocation", "")}
		v.kind = KindRedefine
		c = v
	case tag == schema.OverrideTag:
		v := &Override{Location: el.SelectAttrValue("schemaLocation", "")}
		v.kind = KindOverride
		c = v
	case tag == "annotation":
		v := &Annotation{}
		v.kind = KindAnnotation
		c = v
	case tag == "documentation":
		lang, _ := schema.AttrValue(el, schema.XMLNamespace, "lang")
		v := &Documentation{
			Source: el.SelectAttrValue("source", ""),
			Lang:   lang,
			Text:   charData(el),
		}
		v.kind = KindDocumentation
		c = v
		recurse = false
	case tag == "appinfo":
		v := &AppInfo{
			Source: el.SelectAttrValue("source", ""),
			Text:   charData(el),
		}
		v.kind = KindAppInfo
		c = v
		recurse = false
	case facetTags[tag]:
		v := &Facet{
			Name:  tag,
			Value: el.SelectAttrValue("value", ""),
			Fixed: boolAttr(el, "fixed"),
		}
		v.kind = KindFacet
		c = v
	default:
		// Identity constraints and other constructs outside the
		// modeled set are skipped.
		return
	}

	attach(parent, c)
	if recurse {
		for _, ce := range el.ChildElements() {
			buildChild(c, ce)
		}
	}
}

// boolAttr reads an XSD boolean attribute.
func boolAttr(el *etree.Element, name string) bool {
	switch el.SelectAttrValue(name, "") {
	case "true", "1":
		return true
	}
	return false
}

// charData concatenates the element's direct character data, which is
// how documentation and appinfo carry their content.
func charData(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}
