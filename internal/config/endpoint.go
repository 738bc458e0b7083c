package config

import "strings"

// Endpoint is one side of the CLI's [[USER@]HOST:]PATH argument syntax.
type Endpoint struct {
	Host string // empty when local
	Path string
}

// Remote reports whether e names a host at all.
func (e Endpoint) Remote() bool { return e.Host != "" }

// ParseSourceArg parses the positional SOURCE argument:
// [[USER1@]HOST1:]SOURCE. A leading "./", "/" or "../" rules out the
// host:path reading even if SOURCE happens to contain a colon later on.
func ParseSourceArg(s string) Endpoint {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		return Endpoint{Path: s}
	}
	if host, path, ok := splitHostPrefix(s); ok {
		return Endpoint{Host: host, Path: path}
	}
	return Endpoint{Path: s}
}

// ParseServerArg parses the optional second positional argument:
// [[[USER2@]HOST2]:[URL_PREFIX]]. Unlike ParseSourceArg, an empty path half
// is legal and defaults to "/" by the caller.
func ParseServerArg(s string) Endpoint {
	if s == "" {
		return Endpoint{}
	}
	if host, path, ok := splitHostPrefix(s); ok {
		return Endpoint{Host: host, Path: path}
	}
	return Endpoint{Path: s}
}

// splitHostPrefix splits "HOST:REST" at the first colon, treating s as
// host-qualified only when the part before the colon is non-empty and
// contains no path separator (so "/a:b" and "a/b:c" are never mistaken for
// a host).
func splitHostPrefix(s string) (host, rest string, ok bool) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return "", "", false
	}
	head := s[:idx]
	if strings.ContainsRune(head, '/') {
		return "", "", false
	}
	return head, s[idx+1:], true
}
