package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatXSD produces an indented schema document (.xsd).
	FormatXSD Format = "xsd"

	// FormatJSON produces a JSON dependency report (.json).
	FormatJSON Format = "json"

	// FormatDOT produces a Graphviz dependency graph (.dot).
	FormatDOT Format = "dot"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatXSD: {
		Name:        FormatXSD,
		MIMEType:    "application/xml",
		Extension:   ".xsd",
		Description: "XSD - indented schema document",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON - dependency report",
	},
	FormatDOT: {
		Name:        FormatDOT,
		MIMEType:    "text/vnd.graphviz",
		Extension:   ".dot",
		Description: "DOT - Graphviz dependency graph",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// FormatNames lists the registered format names in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := FormatRegistry[f]; !ok {
		return "", fmt.Errorf("unsupported format %q (valid: %s)", s, strings.Join(FormatNames(), ", "))
	}
	return f, nil
}
