package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/xsdgraph/cache"
	"github.com/c360studio/xsdgraph/schema"
)

const minimalSchema = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:test"/>`

// countingFetcher wraps a Fetcher and counts full fetches, so tests can
// prove when the cache absorbed one.
type countingFetcher struct {
	inner   Fetcher
	fetches int
}

func (c *countingFetcher) Probe(ctx context.Context, id schema.SourceID) (string, error) {
	return c.inner.Probe(ctx, id)
}

func (c *countingFetcher) Fetch(ctx context.Context, id schema.SourceID) (*Fetched, error) {
	c.fetches++
	return c.inner.Fetch(ctx, id)
}

func TestLocate(t *testing.T) {
	r := New(Config{BaseDir: "/schemas"})

	fileBase, err := schema.FileID("/schemas/main.xsd")
	require.NoError(t, err)
	urlBase, err := schema.URLID("https://example.com/schemas/main.xsd")
	require.NoError(t, err)
	inlineBase := schema.InlineID([]byte("x"))

	tests := []struct {
		name     string
		base     schema.SourceID
		location string
		wantKind schema.SourceKind
		want     string
		wantErr  bool
	}{
		{
			name:     "relative against file base",
			base:     fileBase,
			location: "common/types.xsd",
			wantKind: schema.SourceFile,
			want:     filepath.FromSlash("/schemas/common/types.xsd"),
		},
		{
			name:     "dot segments collapse",
			base:     fileBase,
			location: "./common/../common/types.xsd",
			wantKind: schema.SourceFile,
			want:     filepath.FromSlash("/schemas/common/types.xsd"),
		},
		{
			name:     "absolute url wins over base",
			base:     fileBase,
			location: "https://example.com/remote.xsd",
			wantKind: schema.SourceURL,
			want:     "https://example.com/remote.xsd",
		},
		{
			name:     "relative against url base",
			base:     urlBase,
			location: "common/types.xsd",
			wantKind: schema.SourceURL,
			want:     "https://example.com/schemas/common/types.xsd",
		},
		{
			name:     "parent traversal against url base",
			base:     urlBase,
			location: "../shared/x.xsd",
			wantKind: schema.SourceURL,
			want:     "https://example.com/shared/x.xsd",
		},
		{
			name:     "relative against inline base uses base dir",
			base:     inlineBase,
			location: "types.xsd",
			wantKind: schema.SourceFile,
			want:     filepath.FromSlash("/schemas/types.xsd"),
		},
		{
			name:     "empty location",
			base:     fileBase,
			location: "   ",
			wantErr:  true,
		},
		{
			name:     "unsupported scheme",
			base:     fileBase,
			location: "urn:example:types",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := r.Locate(tt.base, tt.location)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, schema.IsKind(err, schema.ErrUnresolvedReference), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, id.Kind)
			assert.Equal(t, tt.want, id.Value)
		})
	}
}

func TestLocateInlineWithoutBaseDir(t *testing.T) {
	r := New(Config{})
	_, err := r.Locate(schema.InlineID([]byte("x")), "types.xsd")
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrUnresolvedReference))
}

func TestResolveIDCachesSuccessfulParse(t *testing.T) {
	dir := t.TempDir()
	id := writeFile(t, dir, "a.xsd", minimalSchema)

	counting := &countingFetcher{inner: NewFileFetcher()}
	r := New(Config{Cache: cache.New(cache.Config{}), Files: counting})

	first, err := r.ResolveID(context.Background(), id)
	require.NoError(t, err)
	second, err := r.ResolveID(context.Background(), id)
	require.NoError(t, err)

	assert.Same(t, first, second, "second resolution must come from the cache")
	assert.Equal(t, 1, counting.fetches)
	assert.Equal(t, "urn:test", first.TargetNamespace)
}

func TestResolveIDRereadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	id := writeFile(t, dir, "a.xsd", minimalSchema)

	counting := &countingFetcher{inner: NewFileFetcher()}
	r := New(Config{Cache: cache.New(cache.Config{}), Files: counting})

	first, err := r.ResolveID(context.Background(), id)
	require.NoError(t, err)

	// Rewrite with different content (and size) so the fingerprint moves.
	changed := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:test:v2"/>`
	require.NoError(t, os.WriteFile(id.Value, []byte(changed), 0o644))

	second, err := r.ResolveID(context.Background(), id)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, "urn:test:v2", second.TargetNamespace)
	assert.Equal(t, 2, counting.fetches)
}

func TestResolveIDDeletedFileNotServedFromCache(t *testing.T) {
	dir := t.TempDir()
	id := writeFile(t, dir, "a.xsd", minimalSchema)

	r := New(Config{Cache: cache.New(cache.Config{})})
	_, err := r.ResolveID(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, os.Remove(id.Value))

	_, err = r.ResolveID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrFileNotFound), "got %v", err)
}

func TestResolveIDFailureNeverCached(t *testing.T) {
	dir := t.TempDir()
	id := writeFile(t, dir, "bad.xsd", "<xs:schema") // malformed

	c := cache.New(cache.Config{})
	r := New(Config{Cache: c})

	_, err := r.ResolveID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrMalformedXML), "got %v", err)
	assert.Equal(t, 0, c.Len(), "failed parses must never be cached")

	// Fixing the file makes the next resolution succeed immediately.
	require.NoError(t, os.WriteFile(id.Value, []byte(minimalSchema), 0o644))
	doc, err := r.ResolveID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "urn:test", doc.TargetNamespace)
}

type recordingGate struct {
	checked []schema.SourceID
	err     error
}

func (g *recordingGate) Check(id schema.SourceID) error {
	g.checked = append(g.checked, id)
	return g.err
}

func TestResolveIDGateRejection(t *testing.T) {
	dir := t.TempDir()
	id := writeFile(t, dir, "a.xsd", minimalSchema)

	gate := &recordingGate{err: fmt.Errorf("outside allowed roots")}
	counting := &countingFetcher{inner: NewFileFetcher()}
	r := New(Config{Gate: gate, Files: counting})

	_, err := r.ResolveID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrUnresolvedReference), "got %v", err)
	assert.Equal(t, 0, counting.fetches, "a rejected identity must never be fetched")
	require.Len(t, gate.checked, 1)
	assert.Equal(t, id, gate.checked[0])
}

func TestResolveAnchorsErrorAtReferrer(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "main.xsd", minimalSchema)

	r := New(Config{})
	_, err := r.Resolve(context.Background(), base, schema.Directive{
		Kind:     schema.DirectiveInclude,
		Location: "missing.xsd",
	})
	require.Error(t, err)

	assert.True(t, schema.IsKind(err, schema.ErrFileNotFound), "kind survives re-anchoring, got %v", err)
	assert.Contains(t, err.Error(), "main.xsd", "error must name the referring document")
	assert.Contains(t, err.Error(), "missing.xsd", "error must name the raw reference")
}

func TestResolveFollowsDirective(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "main.xsd", minimalSchema)
	writeFile(t, dir, "common/types.xsd", minimalSchema)

	r := New(Config{})
	doc, err := r.Resolve(context.Background(), base, schema.Directive{
		Kind:     schema.DirectiveInclude,
		Location: "common/types.xsd",
	})
	require.NoError(t, err)
	assert.Equal(t, schema.SourceFile, doc.ID.Kind)
	assert.Contains(t, doc.ID.Value, "types.xsd")
}

func TestResolveInline(t *testing.T) {
	c := cache.New(cache.Config{})
	r := New(Config{Cache: c})

	first, err := r.ResolveInline([]byte(minimalSchema))
	require.NoError(t, err)
	assert.Equal(t, schema.SourceInline, first.ID.Kind)

	second, err := r.ResolveInline([]byte(minimalSchema))
	require.NoError(t, err)
	assert.Same(t, first, second, "identical text shares one cache entry")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestResolveInlineRespectsTTL(t *testing.T) {
	c := cache.New(cache.Config{TTL: time.Minute})
	r := New(Config{Cache: c})

	_, err := r.ResolveInline([]byte(minimalSchema))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}
