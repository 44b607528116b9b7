package xsdgraph

import (
	"github.com/c360studio/xsdgraph/schema"
)

// Source locates the entry document of a parse request.
type Source struct {
	id      schema.SourceID
	content []byte
	baseDir string
}

// FromFile points a parse at a schema file on disk. Relative paths are
// resolved against the working directory.
func FromFile(path string) (Source, error) {
	id, err := schema.FileID(path)
	if err != nil {
		return Source{}, err
	}
	return Source{id: id}, nil
}

// FromURL points a parse at a schema document served over HTTP or
// HTTPS.
func FromURL(rawURL string) (Source, error) {
	id, err := schema.URLID(rawURL)
	if err != nil {
		return Source{}, err
	}
	return Source{id: id}, nil
}

// FromString supplies the entry document as raw text. The document has
// no location of its own, so relative references inside it resolve
// against baseDir; pass an empty baseDir when the text references
// nothing or references only absolute locations.
func FromString(text, baseDir string) Source {
	return Source{
		id:      schema.InlineID([]byte(text)),
		content: []byte(text),
		baseDir: baseDir,
	}
}

// ID returns the canonical identity the source will parse under.
func (s Source) ID() schema.SourceID {
	return s.id
}
