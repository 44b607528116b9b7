package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	id, err := FileID("/schemas/main.xsd")
	require.NoError(t, err)

	e := &Error{
		Kind:    ErrUnresolvedReference,
		Source:  id,
		Ref:     "missing.xsd",
		Message: "cannot resolve reference",
		Err:     errors.New("no such file"),
	}

	msg := e.Error()
	assert.Contains(t, msg, "unresolved_reference")
	assert.Contains(t, msg, "main.xsd")
	assert.Contains(t, msg, `"missing.xsd"`)
	assert.Contains(t, msg, "no such file")
}

func TestErrorFormattingWithPosition(t *testing.T) {
	e := &Error{Kind: ErrMalformedXML, Message: "content is not well-formed XML", Line: 7}
	assert.Contains(t, e.Error(), "line 7")
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := &Error{Kind: ErrCircularReference, Message: "cycle"}
	wrapped := fmt.Errorf("build graph: %w", inner)

	assert.True(t, IsKind(wrapped, ErrCircularReference))
	assert.False(t, IsKind(wrapped, ErrFileNotFound))
	assert.Equal(t, ErrCircularReference, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := &Error{Kind: ErrNetwork, Message: "fetch failed", Err: cause}
	assert.ErrorIs(t, e, cause)
}

func TestWarningString(t *testing.T) {
	id := InlineID([]byte("w"))
	w := Warning{Source: id, Ref: "child.xsd", Message: "unresolved reference"}
	s := w.String()
	assert.Contains(t, s, "unresolved reference")
	assert.Contains(t, s, "inline:")
	assert.Contains(t, s, `"child.xsd"`)
}

func TestParseBytesMalformed(t *testing.T) {
	_, err := ParseBytes([]byte("<xs:schema><unclosed>"), InlineID([]byte("bad")))
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrMalformedXML))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Greater(t, se.Line, 0, "parse failures carry a line number")
}

func TestParseBytesCharset(t *testing.T) {
	// ISO-8859-1 content with a declared encoding exercises the charset
	// reader; 0xE9 is é.
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<xs:schema xmlns:xs=\"http://www.w3.org/2001/XMLSchema\" targetNamespace=\"urn:caf\xe9\"/>")

	doc, err := ParseBytes(data, InlineID(data))
	require.NoError(t, err)
	assert.Equal(t, "urn:café", doc.TargetNamespace)
}
