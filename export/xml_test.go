package export_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/c360studio/xsdgraph/export"
)

func TestWriteXML(t *testing.T) {
	doc := etree.NewDocument()
	err := doc.ReadFromString(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"/><xs:element name="b"/></xs:schema>`)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	before, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("serialize fixture: %v", err)
	}

	var buf bytes.Buffer
	if err := export.WriteXML(&buf, doc); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "\n  <xs:element") {
		t.Error("output should be indented")
	}

	// The written form parses back to the same structure.
	back := etree.NewDocument()
	if err := back.ReadFromString(out); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if got := len(back.Root().ChildElements()); got != 2 {
		t.Errorf("expected 2 child elements after round trip, got %d", got)
	}

	// The caller's document is untouched.
	after, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("reserialize fixture: %v", err)
	}
	if before != after {
		t.Error("WriteXML must not mutate the input document")
	}
}
