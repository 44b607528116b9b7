package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind classifies where a schema document came from.
type SourceKind string

const (
	// SourceFile identifies a document loaded from the local filesystem.
	SourceFile SourceKind = "file"

	// SourceURL identifies a document fetched over HTTP or HTTPS.
	SourceURL SourceKind = "url"

	// SourceInline identifies a document supplied as raw text with no
	// backing location. Inline identities are content-addressed.
	SourceInline SourceKind = "inline"
)

// SourceID is the canonical identity of a schema document. Two
// references that resolve to the same document always produce equal
// identities, regardless of how the references were spelled, which is
// what makes cache keys and duplicate detection reliable.
//
// SourceID is comparable and safe to use as a map key.
type SourceID struct {
	// Kind tells which resolution scheme produced Value.
	Kind SourceKind

	// Value is the canonical form: an absolute cleaned path for files,
	// a normalized absolute URL for network sources, or a content hash
	// for inline documents.
	Value string
}

// IsZero reports whether the identity is unset.
func (id SourceID) IsZero() bool {
	return id.Kind == "" && id.Value == ""
}

// String renders the identity the way it appears in logs and error
// messages. File and URL identities read as their location; inline
// identities carry an explicit prefix so they are never mistaken for
// relative paths.
func (id SourceID) String() string {
	if id.Kind == SourceInline {
		return "inline:" + id.Value
	}
	return id.Value
}

// FileID canonicalizes a filesystem path into a source identity. The
// path is made absolute and cleaned so that "./a/../a/x.xsd" and
// "a/x.xsd" collapse to the same identity.
func FileID(path string) (SourceID, error) {
	if strings.TrimSpace(path) == "" {
		return SourceID{}, fmt.Errorf("empty file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return SourceID{}, fmt.Errorf("canonicalize %q: %w", path, err)
	}
	return SourceID{Kind: SourceFile, Value: filepath.Clean(abs)}, nil
}

// URLID canonicalizes an absolute http or https URL into a source
// identity. Fragments are dropped and the scheme and host are
// lowercased; everything else is preserved byte for byte.
func URLID(raw string) (SourceID, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return SourceID{}, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return SourceID{}, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return SourceID{}, fmt.Errorf("url %q has no host", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return SourceID{Kind: SourceURL, Value: u.String()}, nil
}

// InlineID derives a content-addressed identity for an in-memory
// document. Equal content yields equal identities, so repeated parses
// of the same text share one cache entry.
func InlineID(content []byte) SourceID {
	sum := sha256.Sum256(content)
	return SourceID{Kind: SourceInline, Value: hex.EncodeToString(sum[:8])}
}
