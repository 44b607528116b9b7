// Package urlsafe gates which schema references may be fetched. It
// blocks the usual SSRF targets for network references (plain HTTP,
// localhost, private and reserved IP ranges, internal-looking domains)
// and can confine file references to a set of root directories so a
// crafted schemaLocation cannot walk out of the schema tree.
//
// The gate inspects identities statically; it never performs DNS
// lookups. Hostnames that resolve to private addresses at fetch time
// are the HTTP client's concern.
package urlsafe

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/c360studio/xsdgraph/schema"
)

// Pre-compiled CIDR networks for private/reserved IP ranges.
// These are parsed once at package initialization.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// Policy configures the gate. The zero value is the strictest useful
// policy: HTTPS only, no private targets, any public host, files
// anywhere.
type Policy struct {
	// AllowInsecure permits plain http URLs.
	AllowInsecure bool

	// AllowPrivate permits localhost, private IP ranges, and
	// internal-looking domains. Intended for tests and air-gapped
	// environments.
	AllowPrivate bool

	// AllowHosts restricts network references to the listed hosts when
	// non-empty. A leading dot matches subdomains (".example.com").
	AllowHosts []string

	// DenyHosts blocks the listed hosts outright. Deny wins over allow.
	DenyHosts []string

	// Roots confines file references to the given directories when
	// non-empty. Relative roots are resolved against the working
	// directory at construction time.
	Roots []string
}

// Gate answers whether a resolved source identity may be fetched.
type Gate struct {
	policy Policy
	roots  []string
}

// New builds a gate from a policy, canonicalizing its file roots.
func New(policy Policy) (*Gate, error) {
	g := &Gate{policy: policy}
	for _, root := range policy.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("canonicalize root %q: %w", root, err)
		}
		g.roots = append(g.roots, filepath.Clean(abs))
	}
	return g, nil
}

// Check reports whether the identity may be fetched. A nil return
// means allowed; otherwise the error says what the policy objected to.
// Inline identities are always allowed since there is nothing to fetch.
func (g *Gate) Check(id schema.SourceID) error {
	switch id.Kind {
	case schema.SourceInline:
		return nil
	case schema.SourceFile:
		return g.checkFile(id.Value)
	case schema.SourceURL:
		return g.checkURL(id.Value)
	default:
		return fmt.Errorf("unknown source kind %q", id.Kind)
	}
}

func (g *Gate) checkFile(path string) error {
	if len(g.roots) == 0 {
		return nil
	}
	for _, root := range g.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..") {
			return nil
		}
	}
	return fmt.Errorf("file %s is outside the allowed roots", path)
}

func (g *Gate) checkURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "https" && !(parsed.Scheme == "http" && g.policy.AllowInsecure) {
		return fmt.Errorf("scheme %q is not allowed", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("URL has no host")
	}

	for _, deny := range g.policy.DenyHosts {
		if hostMatches(host, deny) {
			return fmt.Errorf("host %s is denied by policy", host)
		}
	}

	if len(g.policy.AllowHosts) > 0 {
		allowed := false
		for _, allow := range g.policy.AllowHosts {
			if hostMatches(host, allow) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("host %s is not in the allowlist", host)
		}
	}

	if g.policy.AllowPrivate {
		return nil
	}

	// Block localhost variants and local domains.
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("localhost URLs are not allowed")
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("local domain URLs are not allowed")
	}

	if ip := net.ParseIP(host); ip != nil && IsPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed")
	}

	return nil
}

// hostMatches compares a host against a pattern. A pattern with a
// leading dot matches the domain and any subdomain; otherwise the match
// is exact.
func hostMatches(host, pattern string) bool {
	pattern = strings.ToLower(pattern)
	if strings.HasPrefix(pattern, ".") {
		return host == pattern[1:] || strings.HasSuffix(host, pattern)
	}
	return host == pattern
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}

	// Check for IPv6-mapped IPv4 addresses (::ffff:x.x.x.x)
	// Convert to IPv4 if it's an IPv4-mapped IPv6 address
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	// Check for additional reserved ranges using pre-compiled CIDRs
	if cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip) {
		return true
	}

	return false
}
