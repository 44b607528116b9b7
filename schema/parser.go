package schema

import (
	"encoding/xml"
	"errors"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// TreeParser turns raw bytes into an XML tree. The resolver accepts
// any implementation, so callers can substitute a parser with different
// settings (or a recording fake in tests); ParseBytes is the default.
type TreeParser interface {
	ParseTree(data []byte) (*etree.Document, error)
}

// DefaultParser returns the parser used when none is injected. It
// accepts any character encoding the HTML charset registry knows and
// rejects XML that is not well-formed.
func DefaultParser() TreeParser {
	return etreeParser{}
}

type etreeParser struct{}

func (etreeParser) ParseTree(data []byte) (*etree.Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := tree.ReadFromBytes(data); err != nil {
		perr := &Error{
			Kind:    ErrMalformedXML,
			Message: "content is not well-formed XML",
			Err:     err,
		}
		var syn *xml.SyntaxError
		if errors.As(err, &syn) {
			perr.Line = syn.Line
		}
		return nil, perr
	}
	return tree, nil
}

// ParseBytes parses raw bytes with the default parser and extracts the
// schema document metadata in one step.
func ParseBytes(data []byte, id SourceID) (*Document, error) {
	tree, err := DefaultParser().ParseTree(data)
	if err != nil {
		if serr := asError(err); serr != nil && serr.Source.IsZero() {
			serr.Source = id
		}
		return nil, err
	}
	return Extract(tree, id)
}

func asError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return nil
}
