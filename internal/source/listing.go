package source

import (
	"fmt"
	"html"
	"net/url"
	"os"
	"sort"
	"strings"
)

const (
	listingHeader = "<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n<body>\n<h1>%s</h1>\n"
	listingFooter = "</body>\n</html>\n"
)

// renderListing builds the minimal HTML index for dir, whose canonical path
// is canonPath (used, URL-encoded, as the page title and heading). Entries
// are sorted by raw byte value ascending; directory entries get a trailing
// slash, appended after encoding so it stays literal in the href.
func renderListing(dir, canonPath string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	isDir := make(map[string]bool, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
		isDir[e.Name()] = e.IsDir()
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	encodedPath := escapePath(canonPath)

	var b strings.Builder
	fmt.Fprintf(&b, listingHeader, encodedPath, encodedPath)
	for _, name := range names {
		visible := name
		href := url.PathEscape(name)
		if isDir[name] {
			visible += "/"
			href += "/"
		}
		fmt.Fprintf(&b, "<p><a href=\"%s\">%s</a></p>\n", href, html.EscapeString(visible))
	}
	b.WriteString(listingFooter)
	return []byte(b.String()), nil
}

// escapePath percent-encodes each path segment while preserving the
// separating slashes, so the whole path round-trips through a URL.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
