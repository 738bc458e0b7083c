package httpd

import (
	"bytes"
	"fmt"
	"strings"
)

// MaxHeader is the ceiling on a single HTTP request's header block (§3).
const MaxHeader = 4096

var headerTerminator = []byte("\r\n\r\n")

// request is a parsed HTTP request line plus headers. Header names are
// matched case-insensitively (§9 REDESIGN FLAG), by storing them lower-cased.
type request struct {
	Method  string
	Target  string // request-target, path + optional query
	Version string // "HTTP/1.0" or "HTTP/1.1"
	Headers map[string][]byte
}

// header returns the trimmed raw value for a case-insensitively matched
// header name, recognising at least Range and Connection as required.
func (r *request) header(name string) ([]byte, bool) {
	v, ok := r.Headers[strings.ToLower(name)]
	return v, ok
}

// parseRequest splits the header block (everything in buf before the
// \r\n\r\n terminator found at headerEnd) into a request line and a header
// map.
func parseRequest(buf []byte, headerEnd int) (*request, error) {
	head := buf[:headerEnd]
	lines := bytes.Split(head, []byte("\r\n"))
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, fmt.Errorf("httpd: empty request line")
	}

	parts := bytes.SplitN(lines[0], []byte(" "), 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("httpd: malformed request line %q", lines[0])
	}
	req := &request{
		Method:  string(parts[0]),
		Target:  string(parts[1]),
		Version: string(parts[2]),
		Headers: make(map[string][]byte),
	}
	if req.Version != "HTTP/1.0" && req.Version != "HTTP/1.1" {
		req.Version = "HTTP/1.1"
	}

	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}
		idx := bytes.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.ToLower(string(bytes.TrimSpace(line[:idx])))
		value := bytes.TrimSpace(line[idx+1:])
		req.Headers[name] = value
	}
	return req, nil
}

// splitQuery strips a query string from target, returning the path.
func splitQuery(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}
