// Package uri implements the small set of RFC 3986 operations the registry
// indexer needs on top of the standard library's net/url: canonicalisation,
// relativisation, path rebasing and extension rewriting. It is deliberately
// thin — the spec treats URI handling as a consumed library concern, not
// part of the indexer's hard core.
package uri

import (
	"net/url"
	"path"
	"strconv"
	"strings"
)

// URI wraps a parsed net/url.URL and carries the small set of registry
// operations layered on top of it.
type URI struct {
	u *url.URL
}

// ParseError is returned when a URI string cannot be parsed.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return "uri: cannot parse " + strconv.Quote(e.Raw) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses raw into a URI, returning a ParseError on failure.
func Parse(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, &ParseError{Raw: raw, Err: err}
	}
	return URI{u: u}, nil
}

// MustParse parses raw and panics on failure. Intended for constants.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// String recomposes the URI.
func (u URI) String() string {
	if u.u == nil {
		return ""
	}
	return u.u.String()
}

// IsRelative reports whether the URI has no scheme (and thus must be
// resolved against some base to be dereferenced).
func (u URI) IsRelative() bool {
	return u.u == nil || u.u.Scheme == ""
}

// IsAbsolute is the complement of IsRelative.
func (u URI) IsAbsolute() bool {
	return !u.IsRelative()
}

// Path returns the path component of the URI.
func (u URI) Path() string {
	if u.u == nil {
		return ""
	}
	return u.u.Path
}

// defaultPortFor returns the well-known default port for a scheme, if any.
func defaultPortFor(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}

// Canonicalize lowercases scheme and host, strips a default port, and
// resolves "." / ".." segments in the path. After Canonicalize, two URIs
// denoting the same resource compare equal byte-for-byte (spec invariant).
func (u URI) Canonicalize() URI {
	if u.u == nil {
		return u
	}
	c := *u.u
	c.Scheme = strings.ToLower(c.Scheme)

	host := c.Host
	var port string
	if idx := strings.LastIndex(host, ":"); idx >= 0 && !strings.Contains(host[idx+1:], "]") {
		port = host[idx+1:]
		host = host[:idx]
	}
	host = strings.ToLower(host)
	if port != "" && port != defaultPortFor(c.Scheme) {
		host = host + ":" + port
	}
	c.Host = host

	if c.Path != "" {
		c.Path = cleanPath(c.Path)
	}

	return URI{u: &c}
}

// cleanPath resolves dot-segments per RFC 3986 §5.2.4, preserving a
// trailing slash when the input had one (trailing slashes are meaningful to
// the registry and must not be silently dropped by Canonicalize).
func cleanPath(p string) string {
	trailingSlash := strings.HasSuffix(p, "/") && p != "/"
	cleaned := path.Clean(p)
	if cleaned == "." {
		cleaned = "/"
	}
	if trailingSlash && !strings.HasSuffix(cleaned, "/") {
		cleaned += "/"
	}
	return cleaned
}

// RelativeTo attempts to express u as relative to base. If u doesn't share
// base's scheme+host, u is returned unchanged (still absolute).
//
// Otherwise, this takes the longest common segment-wise prefix of the two
// paths. If that prefix consumes base's entire path, base is treated as a
// directory and the remaining value segments are returned directly (no
// "../" is needed — this is the common case for a registry base like
// "https://example.com/schemas" that is itself a directory, not a document).
// If base's path has segments left over past the common prefix, base is
// instead treated as a document (its last segment a filename to drop) and a
// standard sibling-relative path — with a "../" per remaining directory
// level — is produced, matching ordinary RFC 3986 reference resolution.
func (u URI) RelativeTo(base URI) URI {
	if u.u == nil || base.u == nil {
		return u
	}
	if u.u.Scheme != base.u.Scheme || u.u.Host != base.u.Host {
		return u
	}

	baseSegs := pathSegments(base.u.Path)
	valueSegs := pathSegments(u.u.Path)
	common := commonPrefixLen(baseSegs, valueSegs)

	var relSegs []string
	if common == len(baseSegs) {
		relSegs = valueSegs[common:]
	} else {
		levelsUp := len(baseSegs) - 1 - common
		if levelsUp < 0 {
			levelsUp = 0
		}
		relSegs = make([]string, 0, levelsUp+len(valueSegs)-common)
		for i := 0; i < levelsUp; i++ {
			relSegs = append(relSegs, "..")
		}
		relSegs = append(relSegs, valueSegs[common:]...)
	}

	relURL := &url.URL{Path: strings.Join(relSegs, "/"), RawQuery: u.u.RawQuery, Fragment: u.u.Fragment}
	return URI{u: relURL}
}

// pathSegments splits a URI path into its non-empty segments.
func pathSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func commonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// ResolveReference resolves u (possibly relative) against base, the inverse
// of RelativeTo.
func (u URI) ResolveReference(base URI) URI {
	if u.u == nil {
		return base
	}
	if base.u == nil || u.IsAbsolute() {
		return u
	}
	return URI{u: base.u.ResolveReference(u.u)}
}

// AppendPath concatenates suffix onto the URI's path, inserting exactly one
// "/" between the existing path and suffix.
func (u URI) AppendPath(suffix string) URI {
	if u.u == nil {
		return u
	}
	c := *u.u
	base := strings.TrimSuffix(c.Path, "/")
	suffix = strings.TrimPrefix(suffix, "/")
	if base == "" {
		c.Path = "/" + suffix
	} else {
		c.Path = base + "/" + suffix
	}
	return URI{u: &c}
}

// Extension replaces the trailing extension on the path component with ext
// (which should include the leading dot, e.g. ".json"). It treats ".yaml"
// and ".yml" the same as any other extension being replaced.
func (u URI) Extension(ext string) URI {
	if u.u == nil {
		return u
	}
	c := *u.u
	dir, file := path.Split(c.Path)
	if idx := strings.LastIndex(file, "."); idx > 0 {
		file = file[:idx]
	}
	c.Path = dir + file + ext
	return URI{u: &c}
}

// Rebase replaces a "from" prefix of the URI's path with "to".
func (u URI) Rebase(from, to string) URI {
	if u.u == nil {
		return u
	}
	c := *u.u
	if strings.HasPrefix(c.Path, from) {
		c.Path = to + strings.TrimPrefix(c.Path, from)
	}
	return URI{u: &c}
}

// WithPath returns a copy of u with its path replaced verbatim.
func (u URI) WithPath(p string) URI {
	if u.u == nil {
		return u
	}
	c := *u.u
	c.Path = p
	return URI{u: &c}
}

// LowercasePath returns a copy of u with only the path component
// lowercased — the fragment (which may carry a case-sensitive JSON
// Pointer) and query are left untouched.
func (u URI) LowercasePath() URI {
	if u.u == nil {
		return u
	}
	c := *u.u
	c.Path = strings.ToLower(c.Path)
	return URI{u: &c}
}

// TrimmedBase reports whether raw equals base or base with a single
// trailing slash appended — the registry treats both as "the collection
// root itself", per spec §4.5.1 step 4.
func TrimmedBase(raw, base string) bool {
	return raw == base || raw == base+"/"
}

// HasPrefixSegments reports whether candidate starts with prefix after
// both are canonicalised as plain strings (used for the base-URI
// containment assertion in resolver registration).
func HasPrefixSegments(candidate, prefix string) bool {
	return strings.HasPrefix(candidate, prefix)
}

// ContainsDotDot reports whether path has a ".." segment, used to enforce
// the "final identifiers never contain .. segments" invariant.
func ContainsDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
