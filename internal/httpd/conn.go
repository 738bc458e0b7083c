// Package httpd implements the HTTP Connection Handler (C3) and Acceptor
// (C4): a per-connection request parser, response writer and streaming
// loop that bridges raw HTTP/1.x to the SOURCE protocol, and the TCP
// listen loop that spawns one handler per accepted connection.
package httpd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/joostvanzwieten/rhttp/internal/mimeguess"
	"github.com/joostvanzwieten/rhttp/internal/pipe"
	"github.com/joostvanzwieten/rhttp/internal/source"
)

// MimeGuesser is the external collaborator spec.md §1 keeps out of this
// core's scope; production wiring is internal/mimeguess.Guess.
type MimeGuesser func(path string) string

// Handler serves one TCP connection, bridging HTTP requests to SOURCE
// commands over Pipe.
type Handler struct {
	Conn         net.Conn
	Pipe         *pipe.Pipe
	ServerPrefix string
	Verbose      bool
	MimeGuess    MimeGuesser
	Logger       *slog.Logger
}

// Serve runs the per-connection request loop until the peer closes the
// connection, an HTTP/1.0 request completes, or Connection: close was seen.
func (h *Handler) Serve() {
	defer h.Conn.Close()
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	buf := make([]byte, MaxHeader)
	filled := 0

	for {
		req, consumed, err := h.readOneRequest(buf, &filled)
		if err != nil {
			if errors.Is(err, errHeaderOverflow) {
				_ = writeSimple(h.Conn, "HTTP/1.1", 500)
			} else if errors.Is(err, errPrematureEOF) {
				_ = writeSimple(h.Conn, "HTTP/1.1", 400)
			}
			// silent close for immediate EOF / connection errors.
			return
		}
		if req == nil {
			// Clean EOF with nothing buffered: close silently.
			return
		}

		setCork(h.Conn, true)
		if h.Verbose {
			headers := make(map[string]string, len(req.Headers))
			for name, value := range req.Headers {
				headers[name] = string(value)
			}
			logger.Debug("request", "method", req.Method, "target", req.Target, "version", req.Version, "headers", headers)
		}

		if req.Method != "GET" {
			_ = writeSimple(h.Conn, req.Version, 501)
			setCork(h.Conn, false)
			return
		}

		if err := h.handleGet(req); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Debug("connection error", "error", err)
			}
			setCork(h.Conn, false)
			return
		}
		setCork(h.Conn, false)

		closeAfter := req.Version == "HTTP/1.0"
		if v, ok := req.header("Connection"); ok && strings.EqualFold(string(v), "close") {
			closeAfter = true
		}
		if closeAfter {
			return
		}

		// Shift any bytes already read beyond the header terminator to the
		// front of the buffer for the next pipelined request.
		copy(buf, buf[consumed:filled])
		filled -= consumed
	}
}

var (
	errHeaderOverflow = errors.New("httpd: header exceeds MAX_HEADER without terminator")
	errPrematureEOF   = errors.New("httpd: connection closed mid-header")
)

// readOneRequest reads from h.Conn into buf (reusing any bytes already
// sitting in buf[:*filled] from pipelining) until the header terminator
// appears, then parses it. It returns (nil, 0, nil) on an immediate EOF
// with nothing buffered, which callers treat as a silent close.
func (h *Handler) readOneRequest(buf []byte, filled *int) (*request, int, error) {
	return readHeaderLoop(h.Conn, buf, filled)
}

// readHeaderLoop is the reader-agnostic core of readOneRequest, split out
// so it can be driven by a scripted io.Reader in tests without a real
// socket.
func readHeaderLoop(r io.Reader, buf []byte, filled *int) (*request, int, error) {
	for {
		if idx := indexHeaderEnd(buf[:*filled]); idx >= 0 {
			headerEnd := idx
			req, err := parseRequest(buf, headerEnd)
			if err != nil {
				return nil, 0, err
			}
			return req, headerEnd + len(headerTerminator), nil
		}
		if *filled >= MaxHeader {
			return nil, 0, errHeaderOverflow
		}
		n, err := r.Read(buf[*filled:])
		if n > 0 {
			*filled += n
		}
		if err != nil {
			if n == 0 && *filled == 0 {
				return nil, 0, nil
			}
			return nil, 0, errPrematureEOF
		}
	}
}

func indexHeaderEnd(b []byte) int {
	return indexBytes(b, headerTerminator)
}

func indexBytes(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return i
		}
	}
	return -1
}

// handleGet implements §4.3's GET handling, steps 1-6.
func (h *Handler) handleGet(req *request) error {
	path := splitQuery(req.Target)

	if path+"/" == h.ServerPrefix {
		return h.redirect(req.Version, 302, h.ServerPrefix)
	}
	if !strings.HasPrefix(path, h.ServerPrefix) {
		return writeSimple(h.Conn, req.Version, 404)
	}
	// rel is sent over the wire exactly as received: percent-decoding
	// happens on the SOURCE side only (§3 invariants), never here.
	rel := path[len(h.ServerPrefix):]

	h.Pipe.Lock()
	if err := h.Pipe.WriteTag(source.TagGetFileSize); err != nil {
		h.Pipe.Unlock()
		return err
	}
	if err := h.Pipe.WriteVarBytes([]byte(rel)); err != nil {
		h.Pipe.Unlock()
		return err
	}
	size, err := h.Pipe.ReadInt64()
	if err != nil {
		h.Pipe.Unlock()
		return err
	}

	switch {
	case size == source.SizeIsDirectory:
		// §13: hold the mutex across GET_FILE_SIZE and the follow-up
		// LIST_DIR exchange — fixes the latent race noted in §9.
		return h.handleDirectory(req, rel, path)
	case size < 0:
		h.Pipe.Unlock()
		return writeSimple(h.Conn, req.Version, 404)
	default:
		h.Pipe.Unlock()
		return h.handleFile(req, rel, size)
	}
}

// handleDirectory is called with the pipe mutex already held; it releases
// it before returning.
func (h *Handler) handleDirectory(req *request, rel, originalPath string) error {
	if !strings.HasSuffix(originalPath, "/") {
		h.Pipe.Unlock()
		return h.redirect(req.Version, 307, originalPath+"/")
	}

	if err := h.Pipe.WriteTag(source.TagListDir); err != nil {
		h.Pipe.Unlock()
		return err
	}
	if err := h.Pipe.WriteVarBytes([]byte(rel)); err != nil {
		h.Pipe.Unlock()
		return err
	}
	n, err := h.Pipe.ReadInt64()
	if err != nil {
		h.Pipe.Unlock()
		return err
	}
	if n < 0 {
		h.Pipe.Unlock()
		return writeSimple(h.Conn, req.Version, 404)
	}
	body, err := h.Pipe.ReadBytes(n)
	h.Pipe.Unlock()
	if err != nil {
		return err
	}

	headers := "Content-Type: text/html\r\n"
	return writeResponse(h.Conn, req.Version, 200, headers, int64(len(body)), bytes.NewReader(body))
}

// handleFile implements step 5 (Range inspection) and step 6 (the
// streaming loop) of §4.3. Called with the pipe mutex already released.
func (h *Handler) handleFile(req *request, rel string, size int64) error {
	start, stop := int64(0), size
	status := 200

	if rangeHeader, ok := req.header("Range"); ok {
		r, parsed, satisfiable := parseRange(string(rangeHeader), size)
		if parsed {
			if !satisfiable {
				headers := fmt.Sprintf("Content-Range: bytes */%d\r\n", size)
				return writeResponse(h.Conn, req.Version, 416, headers, 0, nil)
			}
			start, stop = r.start, r.stop
			status = 206
		}
	}

	var headers strings.Builder
	mimeGuess := h.MimeGuess
	if mimeGuess == nil {
		mimeGuess = mimeguess.Guess
	}
	fmt.Fprintf(&headers, "Content-Type: %s\r\n", mimeGuess(rel))
	if status == 206 {
		fmt.Fprintf(&headers, "Content-Range: bytes %d-%d/%d\r\n", start, stop-1, size)
	}

	if _, err := fmt.Fprintf(h.Conn, "%s %d %s\r\n", req.Version, status, statusText[status]); err != nil {
		return err
	}
	if _, err := io.WriteString(h.Conn, "Accept-Ranges: bytes\r\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(h.Conn, headers.String()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(h.Conn, "Content-Length: %d\r\n\r\n", stop-start); err != nil {
		return err
	}

	return h.streamChunks(rel, start, stop)
}

// streamChunks implements §4.3 step 6: while start < stop, request a bounded
// chunk under the pipe lock and write it to the socket, in ascending offset
// order.
func (h *Handler) streamChunks(rel string, start, stop int64) error {
	for start < stop {
		want := stop - start
		if want > pipe.MaxChunk {
			want = pipe.MaxChunk
		}

		h.Pipe.Lock()
		err := h.Pipe.WriteTag(source.TagGetChunk)
		if err == nil {
			err = h.Pipe.WriteVarBytes([]byte(rel))
		}
		if err == nil {
			err = h.Pipe.WriteInt64(start)
		}
		if err == nil {
			err = h.Pipe.WriteInt64(want)
		}
		var n int64
		if err == nil {
			n, err = h.Pipe.ReadInt64()
		}
		var body []byte
		if err == nil && n >= 0 {
			body, err = h.Pipe.ReadBytes(n)
		}
		h.Pipe.Unlock()
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("httpd: source reported an error mid-stream")
		}
		if n == 0 {
			return fmt.Errorf("%w: unexpected EOF streaming %q", pipe.ErrProtocolViolation, rel)
		}
		if _, err := h.Conn.Write(body); err != nil {
			return err
		}
		start += n
	}
	return nil
}

func (h *Handler) redirect(version string, status int, location string) error {
	headers := fmt.Sprintf("Location: %s\r\n", location)
	return writeResponse(h.Conn, version, status, headers, 0, nil)
}
