package httpd

import (
	"fmt"
	"io"
)

// statusText maps the small set of statuses this server ever emits.
var statusText = map[int]string{
	200: "OK",
	206: "Partial Content",
	302: "Found",
	307: "Temporary Redirect",
	400: "Bad Request",
	404: "Not Found",
	416: "Range Not Satisfiable",
	500: "Internal Server Error",
	501: "Not Implemented",
}

// writeResponse writes a status line, the fixed Accept-Ranges header,
// caller-supplied header lines (each already terminated with "\r\n"), a
// Content-Length when bodyLen is non-negative, a blank line, then body (if
// non-nil). It never sends a body without a matching Content-Length, and
// never sends a Content-Length without writing exactly that many body
// bytes.
func writeResponse(w io.Writer, version string, status int, headers string, bodyLen int64, body io.Reader) error {
	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", version, status, statusText[status]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "Accept-Ranges: bytes\r\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, headers); err != nil {
		return err
	}
	if bodyLen >= 0 {
		if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n", bodyLen); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	if body != nil && bodyLen > 0 {
		if _, err := io.CopyN(w, body, bodyLen); err != nil {
			return err
		}
	}
	return nil
}

func writeSimple(w io.Writer, version string, status int) error {
	return writeResponse(w, version, status, "", 0, nil)
}
