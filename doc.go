// Package xsdgraph resolves the cross-file reference structure of XML
// Schema document sets. Starting from one entry document it follows
// include, import, redefine, and override directives across files and
// URLs, detects circular references, resolves each distinct document
// exactly once, and materializes the set either as a single merged
// document or as a reference-preserving result tree with a typed
// construct model on top.
//
// Parse is the entry point:
//
//	src, err := xsdgraph.FromFile("order.xsd")
//	if err != nil {
//		return err
//	}
//	res, err := xsdgraph.Parse(ctx, src, xsdgraph.Options{
//		IncludeMode: xsdgraph.Flatten,
//	})
//
// Resolution is synchronous and single-threaded per request.
// Independent Parse calls may run concurrently; hand them a shared
// cache.Cache to deduplicate fetch and parse work across requests.
package xsdgraph
