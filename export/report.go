// Package export serializes resolution output: indented schema
// document writeback and dependency reports in JSON and Graphviz DOT
// form.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/xsdgraph/graph"
)

// Report is a serializable account of one dependency walk.
type Report struct {
	Source    string           `json:"source"`
	Documents []DocumentReport `json:"documents"`
	Edges     []EdgeReport     `json:"edges,omitempty"`
	Warnings  []WarningReport  `json:"warnings,omitempty"`
	Stats     Stats            `json:"stats"`
}

// DocumentReport describes one distinct resolved document.
type DocumentReport struct {
	ID              string `json:"id"`
	TargetNamespace string `json:"target_namespace,omitempty"`
	Chameleon       bool   `json:"chameleon,omitempty"`
	Directives      int    `json:"directives"`
}

// EdgeReport describes one reference directive and what became of it.
type EdgeReport struct {
	From      string `json:"from"`
	Kind      string `json:"kind"`
	Location  string `json:"location,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Outcome   string `json:"outcome"`
	To        string `json:"to,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WarningReport carries one lenient-resolution warning.
type WarningReport struct {
	Source  string `json:"source"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// Stats aggregates edge outcomes across the whole graph.
type Stats struct {
	Documents   int `json:"documents"`
	Resolved    int `json:"resolved"`
	Unresolved  int `json:"unresolved"`
	Duplicates  int `json:"duplicates"`
	NotFollowed int `json:"not_followed"`
}

// BuildReport turns a resolved graph into its report form. Documents
// and edges appear in the graph's deterministic walk order.
func BuildReport(g *graph.Graph) *Report {
	r := &Report{Source: g.Entry.ID().String()}
	for _, n := range g.Order() {
		r.Documents = append(r.Documents, DocumentReport{
			ID:              n.ID().String(),
			TargetNamespace: n.Doc.TargetNamespace,
			Chameleon:       n.Doc.IsChameleon(),
			Directives:      len(n.Edges),
		})
		for _, e := range n.Edges {
			er := EdgeReport{
				From:      n.ID().String(),
				Kind:      string(e.Directive.Kind),
				Location:  e.Directive.Location,
				Namespace: e.Directive.Namespace,
				Outcome:   string(e.Outcome),
			}
			if e.Target != nil {
				er.To = e.Target.ID().String()
			}
			if e.Err != nil {
				er.Error = e.Err.Error()
			}
			r.Edges = append(r.Edges, er)

			switch e.Outcome {
			case graph.OutcomeResolved:
				r.Stats.Resolved++
			case graph.OutcomeUnresolved:
				r.Stats.Unresolved++
			case graph.OutcomeSkippedDuplicate:
				r.Stats.Duplicates++
			case graph.OutcomeNotFollowed:
				r.Stats.NotFollowed++
			}
		}
	}
	r.Stats.Documents = g.Len()

	for _, w := range g.Warnings {
		r.Warnings = append(r.Warnings, WarningReport{
			Source:  w.Source.String(),
			Ref:     w.Ref,
			Message: w.Message,
		})
	}
	return r
}

// WriteDependencyReport writes the JSON dependency report for a graph.
func WriteDependencyReport(w io.Writer, g *graph.Graph) error {
	return BuildReport(g).WriteJSON(w)
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteDOT writes the report as a Graphviz digraph. Unresolved edges
// are dashed red, duplicate edges dotted, unfollowed imports gray.
// Edges with neither a target nor a location are omitted.
func (r *Report) WriteDOT(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph schema_dependencies {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, fontname=\"monospace\"];\n\n")

	for _, d := range r.Documents {
		label := d.ID
		if d.TargetNamespace != "" {
			label += "\n" + d.TargetNamespace
		}
		fmt.Fprintf(&sb, "  %s [label=%s];\n", dotQuote(d.ID), dotQuote(label))
	}
	sb.WriteString("\n")

	for _, e := range r.Edges {
		to := e.To
		if to == "" {
			// Unresolved and unfollowed targets appear under their
			// written location.
			to = e.Location
		}
		if to == "" {
			continue
		}
		attrs := []string{"label=" + dotQuote(e.Kind)}
		switch e.Outcome {
		case string(graph.OutcomeUnresolved):
			attrs = append(attrs, "color=red", "style=dashed")
		case string(graph.OutcomeSkippedDuplicate):
			attrs = append(attrs, "style=dotted")
		case string(graph.OutcomeNotFollowed):
			attrs = append(attrs, "color=gray", "style=dashed")
		}
		fmt.Fprintf(&sb, "  %s -> %s [%s];\n", dotQuote(e.From), dotQuote(to), strings.Join(attrs, ", "))
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// dotQuote renders s as a DOT quoted string. Newlines become DOT label
// line breaks.
func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}
