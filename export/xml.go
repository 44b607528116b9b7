package export

import (
	"io"

	"github.com/beevik/etree"
)

// WriteXML writes the document as indented XML. Indentation is applied
// to a copy, so the caller's tree is left untouched.
func WriteXML(w io.Writer, doc *etree.Document) error {
	out := doc.Copy()
	out.Indent(2)
	_, err := out.WriteTo(w)
	return err
}
