// Package mimeguess implements the MimeGuess(path) -> string collaborator
// spec.md §1 declares an external dependency out of the protocol core's
// scope. The HTTP Connection Handler runs on the SERVER role, which has no
// filesystem access of its own in the remote deployment (§2: the tree
// lives on a different host) — so, like the mime.TypeByExtension calls in
// the teacher's backend/drive/drive.go, this guesses from the path string
// alone, never by opening or sniffing file content.
package mimeguess

import (
	"mime"
	"path/filepath"
)

// defaultType is returned whenever the extension is unknown.
const defaultType = "application/octet-stream"

// Guess returns a MIME type for path's extension, defaulting to
// application/octet-stream.
func Guess(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return defaultType
	}
	m := mime.TypeByExtension(ext)
	if m == "" {
		return defaultType
	}
	return m
}
