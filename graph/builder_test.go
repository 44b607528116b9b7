package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/xsdgraph/schema"
)

// memResolver serves schema documents from memory under file-like
// identities, counting how often each one is actually resolved.
type memResolver struct {
	docs     map[string]string
	resolved map[string]int
}

func newMemResolver(docs map[string]string) *memResolver {
	return &memResolver{docs: docs, resolved: make(map[string]int)}
}

func (m *memResolver) Locate(base schema.SourceID, location string) (schema.SourceID, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return schema.SourceID{}, &schema.Error{
			Kind:    schema.ErrUnresolvedReference,
			Source:  base,
			Message: "empty schemaLocation",
		}
	}
	path := loc
	if !strings.HasPrefix(path, "/") {
		path = filepath.Join(filepath.Dir(base.Value), path)
	}
	return schema.SourceID{Kind: schema.SourceFile, Value: filepath.Clean(path)}, nil
}

func (m *memResolver) ResolveID(_ context.Context, id schema.SourceID) (*schema.Document, error) {
	src, ok := m.docs[id.Value]
	if !ok {
		return nil, &schema.Error{
			Kind:    schema.ErrFileNotFound,
			Source:  id,
			Message: "schema file not found",
		}
	}
	m.resolved[id.Value]++
	return schema.ParseBytes([]byte(src), id)
}

func (m *memResolver) Resolve(ctx context.Context, base schema.SourceID, d schema.Directive) (*schema.Document, error) {
	id, err := m.Locate(base, d.Location)
	if err != nil {
		return nil, err
	}
	return m.ResolveID(ctx, id)
}

// xsd renders a schema document with the given target namespace and
// body fragments.
func xsd(tns string, body ...string) string {
	var b strings.Builder
	b.WriteString(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"`)
	if tns != "" {
		fmt.Fprintf(&b, " targetNamespace=%q xmlns:tns=%q", tns, tns)
	}
	b.WriteString(">\n")
	for _, frag := range body {
		b.WriteString("  " + frag + "\n")
	}
	b.WriteString("</xs:schema>")
	return b.String()
}

func include(loc string) string {
	return fmt.Sprintf(`<xs:include schemaLocation=%q/>`, loc)
}

func entryOf(t *testing.T, m *memResolver, path string) *schema.Document {
	t.Helper()
	doc, err := m.ResolveID(context.Background(), schema.SourceID{Kind: schema.SourceFile, Value: path})
	require.NoError(t, err)
	return doc
}

func build(t *testing.T, m *memResolver, cfg Config, entryPath string) (*Graph, error) {
	t.Helper()
	cfg.Resolver = m
	b := NewBuilder(cfg)
	return b.Build(context.Background(), entryOf(t, m, entryPath), NewContext(0))
}

func TestBuildLinearChain(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/a.xsd": xsd("urn:t", include("b.xsd")),
		"/s/b.xsd": xsd("urn:t", include("c.xsd")),
		"/s/c.xsd": xsd("urn:t", `<xs:element name="leaf" type="xs:string"/>`),
	})

	g, err := build(t, m, Config{}, "/s/a.xsd")
	require.NoError(t, err)

	require.Equal(t, 3, g.Len())
	order := g.Order()
	assert.Equal(t, "/s/a.xsd", order[0].ID().Value)
	assert.Equal(t, "/s/b.xsd", order[1].ID().Value)
	assert.Equal(t, "/s/c.xsd", order[2].ID().Value)
	assert.Same(t, g.Entry, order[0])

	require.Len(t, g.Entry.Edges, 1)
	edge := g.Entry.Edges[0]
	assert.Equal(t, OutcomeResolved, edge.Outcome)
	assert.Equal(t, "/s/b.xsd", edge.Target.ID().Value)
	assert.Empty(t, g.Warnings)
}

func TestBuildDiamondResolvesSharedDocumentOnce(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/a.xsd": xsd("urn:t", include("b.xsd"), include("c.xsd")),
		"/s/b.xsd": xsd("urn:t", include("d.xsd")),
		"/s/c.xsd": xsd("urn:t", include("d.xsd")),
		"/s/d.xsd": xsd("urn:t", `<xs:complexType name="Shared"/>`),
	})

	g, err := build(t, m, Config{}, "/s/a.xsd")
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len(), "the shared document is one node")
	assert.Equal(t, 1, m.resolved["/s/d.xsd"], "the shared document is resolved exactly once")

	b, ok := g.Node(schema.SourceID{Kind: schema.SourceFile, Value: "/s/b.xsd"})
	require.True(t, ok)
	c, ok := g.Node(schema.SourceID{Kind: schema.SourceFile, Value: "/s/c.xsd"})
	require.True(t, ok)

	require.Len(t, b.Edges, 1)
	require.Len(t, c.Edges, 1)
	assert.Equal(t, OutcomeResolved, b.Edges[0].Outcome, "first path resolves")
	assert.Equal(t, OutcomeSkippedDuplicate, c.Edges[0].Outcome, "second path reuses")
	assert.Same(t, b.Edges[0].Target, c.Edges[0].Target)
}

func TestBuildCycleStrict(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/a.xsd": xsd("urn:t", include("b.xsd")),
		"/s/b.xsd": xsd("urn:t", include("a.xsd")),
	})

	_, err := build(t, m, Config{Strict: true}, "/s/a.xsd")
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrCircularReference), "got %v", err)
	assert.Contains(t, err.Error(), "a.xsd", "error names one endpoint")
	assert.Contains(t, err.Error(), "b.xsd", "error names the other endpoint")
}

func TestBuildCycleLenient(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/a.xsd": xsd("urn:t", include("b.xsd")),
		"/s/b.xsd": xsd("urn:t", include("a.xsd"), include("c.xsd")),
		"/s/c.xsd": xsd("urn:t", `<xs:element name="leaf" type="xs:string"/>`),
	})

	g, err := build(t, m, Config{}, "/s/a.xsd")
	require.NoError(t, err)

	bNode, ok := g.Node(schema.SourceID{Kind: schema.SourceFile, Value: "/s/b.xsd"})
	require.True(t, ok)
	require.Len(t, bNode.Edges, 2)

	back := bNode.Edges[0]
	assert.Equal(t, OutcomeUnresolved, back.Outcome)
	assert.True(t, schema.IsKind(back.Err, schema.ErrCircularReference))

	assert.Equal(t, OutcomeResolved, bNode.Edges[1].Outcome, "sibling directives still resolve")
	require.Len(t, g.Warnings, 1)
	assert.Equal(t, "/s/b.xsd", g.Warnings[0].Source.Value)
}

func TestBuildSelfIncludeIsACycle(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/a.xsd": xsd("urn:t", include("a.xsd")),
	})

	_, err := build(t, m, Config{Strict: true}, "/s/a.xsd")
	require.Error(t, err)
	assert.True(t, schema.IsKind(err, schema.ErrCircularReference))
}

func TestBuildLongChainNoStackExhaustion(t *testing.T) {
	docs := make(map[string]string, 501)
	for i := 0; i < 500; i++ {
		docs[fmt.Sprintf("/s/n%d.xsd", i)] = xsd("urn:t", include(fmt.Sprintf("n%d.xsd", i+1)))
	}
	docs["/s/n500.xsd"] = xsd("urn:t")
	m := newMemResolver(docs)

	b := NewBuilder(Config{Resolver: m, Strict: true})
	g, err := b.Build(context.Background(), entryOf(t, m, "/s/n0.xsd"), NewContext(1000))
	require.NoError(t, err)
	assert.Equal(t, 501, g.Len())
}

func TestBuildDepthLimit(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/n0.xsd": xsd("urn:t", include("n1.xsd")),
		"/s/n1.xsd": xsd("urn:t", include("n2.xsd")),
		"/s/n2.xsd": xsd("urn:t", include("n3.xsd")),
		"/s/n3.xsd": xsd("urn:t", include("n4.xsd")),
		"/s/n4.xsd": xsd("urn:t"),
	})

	for _, strict := range []bool{true, false} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			b := NewBuilder(Config{Resolver: m, Strict: strict})
			_, err := b.Build(context.Background(), entryOf(t, m, "/s/n0.xsd"), NewContext(2))
			require.Error(t, err, "exceeding the depth limit must never be a silent success")
			assert.True(t, schema.IsKind(err, schema.ErrMaxDepthExceeded), "got %v", err)
		})
	}
}

func TestBuildDepthLimitAllowsExactChain(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/n0.xsd": xsd("urn:t", include("n1.xsd")),
		"/s/n1.xsd": xsd("urn:t", include("n2.xsd")),
		"/s/n2.xsd": xsd("urn:t"),
	})

	b := NewBuilder(Config{Resolver: m, Strict: true})
	g, err := b.Build(context.Background(), entryOf(t, m, "/s/n0.xsd"), NewContext(2))
	require.NoError(t, err, "a chain of exactly maxDepth references is legal")
	assert.Equal(t, 3, g.Len())
}

func TestBuildMissingTarget(t *testing.T) {
	docs := map[string]string{
		"/s/a.xsd": xsd("urn:t", include("missing.xsd"), include("b.xsd")),
		"/s/b.xsd": xsd("urn:t"),
	}

	t.Run("strict aborts", func(t *testing.T) {
		m := newMemResolver(docs)
		_, err := build(t, m, Config{Strict: true}, "/s/a.xsd")
		require.Error(t, err)
		assert.True(t, schema.IsKind(err, schema.ErrFileNotFound), "got %v", err)
	})

	t.Run("lenient warns and continues", func(t *testing.T) {
		m := newMemResolver(docs)
		g, err := build(t, m, Config{}, "/s/a.xsd")
		require.NoError(t, err)

		require.Len(t, g.Entry.Edges, 2)
		assert.Equal(t, OutcomeUnresolved, g.Entry.Edges[0].Outcome)
		assert.Equal(t, OutcomeResolved, g.Entry.Edges[1].Outcome)
		require.Len(t, g.Warnings, 1)
		assert.Equal(t, "missing.xsd", g.Warnings[0].Ref)
	})
}

func TestBuildImports(t *testing.T) {
	docs := map[string]string{
		"/s/a.xsd": xsd("urn:t",
			`<xs:import namespace="urn:other" schemaLocation="other.xsd"/>`),
		"/s/other.xsd": xsd("urn:other"),
	}

	t.Run("not followed by default", func(t *testing.T) {
		m := newMemResolver(docs)
		g, err := build(t, m, Config{}, "/s/a.xsd")
		require.NoError(t, err)

		require.Len(t, g.Entry.Edges, 1)
		assert.Equal(t, OutcomeNotFollowed, g.Entry.Edges[0].Outcome)
		assert.Equal(t, 0, m.resolved["/s/other.xsd"], "unfollowed imports must not be fetched")
		assert.Equal(t, 1, g.Len())
	})

	t.Run("followed when enabled", func(t *testing.T) {
		m := newMemResolver(docs)
		g, err := build(t, m, Config{ResolveImports: true}, "/s/a.xsd")
		require.NoError(t, err)

		require.Len(t, g.Entry.Edges, 1)
		assert.Equal(t, OutcomeResolved, g.Entry.Edges[0].Outcome)
		assert.Equal(t, 2, g.Len())
	})

	t.Run("import without location is not followed", func(t *testing.T) {
		m := newMemResolver(map[string]string{
			"/s/a.xsd": xsd("urn:t", `<xs:import namespace="urn:other"/>`),
		})
		g, err := build(t, m, Config{ResolveImports: true}, "/s/a.xsd")
		require.NoError(t, err)
		require.Len(t, g.Entry.Edges, 1)
		assert.Equal(t, OutcomeNotFollowed, g.Entry.Edges[0].Outcome)
	})
}

func TestBuildNamespaceConformance(t *testing.T) {
	t.Run("include of foreign namespace rejected", func(t *testing.T) {
		m := newMemResolver(map[string]string{
			"/s/a.xsd": xsd("urn:t", include("b.xsd")),
			"/s/b.xsd": xsd("urn:elsewhere"),
		})
		_, err := build(t, m, Config{Strict: true}, "/s/a.xsd")
		require.Error(t, err)
		assert.True(t, schema.IsKind(err, schema.ErrInvalidSchema), "got %v", err)
	})

	t.Run("chameleon include allowed", func(t *testing.T) {
		m := newMemResolver(map[string]string{
			"/s/a.xsd": xsd("urn:t", include("b.xsd")),
			"/s/b.xsd": xsd("", `<xs:element name="leaf" type="xs:string"/>`),
		})
		g, err := build(t, m, Config{Strict: true}, "/s/a.xsd")
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
	})

	t.Run("import namespace mismatch rejected", func(t *testing.T) {
		m := newMemResolver(map[string]string{
			"/s/a.xsd": xsd("urn:t",
				`<xs:import namespace="urn:expected" schemaLocation="other.xsd"/>`),
			"/s/other.xsd": xsd("urn:actual"),
		})
		_, err := build(t, m, Config{Strict: true, ResolveImports: true}, "/s/a.xsd")
		require.Error(t, err)
		assert.True(t, schema.IsKind(err, schema.ErrInvalidSchema), "got %v", err)
	})
}

func TestBuildProgressCountsAreMonotone(t *testing.T) {
	m := newMemResolver(map[string]string{
		"/s/a.xsd": xsd("urn:t", include("b.xsd"), include("c.xsd")),
		"/s/b.xsd": xsd("urn:t"),
		"/s/c.xsd": xsd("urn:t"),
	})

	var calls []string
	lastCurrent := -1
	cfg := Config{
		Progress: func(message string, current, total int) {
			calls = append(calls, fmt.Sprintf("%d/%d", current, total))
			assert.GreaterOrEqual(t, current, lastCurrent)
			assert.LessOrEqual(t, current, total)
			lastCurrent = current
		},
	}

	g, err := build(t, m, cfg, "/s/a.xsd")
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, fmt.Sprintf("%d/%d", g.Len(), g.Len()), calls[len(calls)-1],
		"the final report covers every discovered document")
}

func TestContextSeparatesVisitedFromProcessed(t *testing.T) {
	rctx := NewContext(4)
	a := schema.SourceID{Kind: schema.SourceFile, Value: "/s/a.xsd"}

	rctx.push(a)
	assert.True(t, rctx.OnStack(a))
	_, processed := rctx.Processed(a)
	assert.False(t, processed, "a document on the stack is not processed")

	n := &Node{}
	rctx.pop(n)
	assert.False(t, rctx.OnStack(a))
	got, processed := rctx.Processed(a)
	assert.True(t, processed)
	assert.Same(t, n, got)
}
