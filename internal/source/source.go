// Package source implements the SOURCE-side worker (component C2): it
// answers framed commands from the SERVER role with file sizes, file
// chunks, and rendered directory listings, always confined to a root
// directory.
package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joostvanzwieten/rhttp/internal/pipe"
)

// Command tags, literal on the wire.
const (
	TagGetChunk    byte = 'a'
	TagGetFileSize byte = 'b'
	TagListDir     byte = 'c'
)

// File-size reply sentinels.
const (
	SizeNotFound    int64 = -1
	SizeIsDirectory int64 = -2
)

// Worker runs the SOURCE role's command loop over a Pipe rooted at Root.
type Worker struct {
	Pipe   *pipe.Pipe
	Root   string // absolute, always ends with a slash
	Logger *slog.Logger
}

// Run reads and dispatches commands until the pipe closes or an unknown tag
// arrives, which ends the loop cleanly. A protocol violation (e.g. an
// oversize chunk request) ends the loop with an error.
func (w *Worker) Run() error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for {
		w.Pipe.Lock()
		tag, err := w.Pipe.ReadTag()
		if err != nil {
			w.Pipe.Unlock()
			if errors.Is(err, pipe.ErrEndOfStream) {
				return nil
			}
			return err
		}

		switch tag {
		case TagGetFileSize:
			err = w.handleGetFileSize()
		case TagGetChunk:
			err = w.handleGetChunk()
		case TagListDir:
			err = w.handleListDir()
		default:
			w.Pipe.Unlock()
			logger.Debug("source: unknown command tag, terminating", "tag", tag)
			return nil
		}
		w.Pipe.Unlock()
		if err != nil {
			return fmt.Errorf("source: command %q: %w", tag, err)
		}
	}
}

func (w *Worker) handleGetFileSize() error {
	rel, err := w.Pipe.ReadVarBytes()
	if err != nil {
		return err
	}
	canon, err := resolve(w.Root, string(rel))
	if err != nil {
		return w.Pipe.WriteInt64(SizeNotFound)
	}
	info, err := os.Stat(canon)
	if err != nil {
		return w.Pipe.WriteInt64(SizeNotFound)
	}
	if info.IsDir() {
		return w.Pipe.WriteInt64(SizeIsDirectory)
	}
	return w.Pipe.WriteInt64(info.Size())
}

func (w *Worker) handleGetChunk() error {
	rel, err := w.Pipe.ReadVarBytes()
	if err != nil {
		return err
	}
	offset, err := w.Pipe.ReadInt64()
	if err != nil {
		return err
	}
	size, err := w.Pipe.ReadInt64()
	if err != nil {
		return err
	}
	if size < 0 || size > pipe.MaxChunk {
		return fmt.Errorf("%w: chunk size %d out of range", pipe.ErrProtocolViolation, size)
	}

	canon, err := resolve(w.Root, string(rel))
	if err != nil {
		return w.Pipe.WriteInt64(-1)
	}

	f, err := os.Open(canon)
	if err != nil {
		return w.Pipe.WriteInt64(-1)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return w.Pipe.WriteInt64(-1)
	}
	buf := make([]byte, size)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return w.Pipe.WriteInt64(-1)
	}
	return w.Pipe.WriteVarBytes(buf[:n])
}

func (w *Worker) handleListDir() error {
	rel, err := w.Pipe.ReadVarBytes()
	if err != nil {
		return err
	}
	canon, err := resolve(w.Root, string(rel))
	if err != nil {
		return w.Pipe.WriteInt64(-1)
	}
	info, err := os.Stat(canon)
	if err != nil || !info.IsDir() {
		return w.Pipe.WriteInt64(-1)
	}
	body, err := renderListing(canon, canon)
	if err != nil {
		return w.Pipe.WriteInt64(-1)
	}
	if len(body) > pipe.MaxChunk {
		return w.Pipe.WriteInt64(-1)
	}
	return w.Pipe.WriteVarBytes(body)
}
