// Package pipe implements the framed, full-duplex byte channel the SERVER
// and SOURCE roles use to exchange commands and replies (component C1).
//
// A Pipe wraps a read side and a write side with a single mutex; callers
// must hold Lock for the span of one command/response exchange so that
// concurrent handlers never interleave within a single command's payload.
package pipe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
)

// MaxChunk is the ceiling on any single payload crossing the pipe.
const MaxChunk = 4096 * 8

// Sentinel error kinds surfaced to callers. Use errors.Is to test for them;
// the concrete error returned also wraps the underlying cause where one
// exists.
var (
	// ErrProtocolViolation marks an oversize frame or a negative length
	// where one cannot occur.
	ErrProtocolViolation = errors.New("pipe: protocol violation")
	// ErrOutOfRange marks a length outside the bounds ReadBytes accepts.
	// ReadVarBytes reports an out-of-bounds length prefix as
	// ErrProtocolViolation instead.
	ErrOutOfRange = errors.New("pipe: length out of range")
	// ErrEndOfStream marks a short read: the peer closed before delivering
	// the requested number of bytes.
	ErrEndOfStream = errors.New("pipe: end of stream")
)

// Pipe is one end of a full-duplex byte channel. The zero value is not
// usable; construct with New.
type Pipe struct {
	r io.Reader
	w io.Writer

	mu sync.Mutex
}

// New wraps an existing read/write pair as a Pipe.
func New(r io.Reader, w io.Writer) *Pipe {
	return &Pipe{r: r, w: w}
}

// Lock acquires the exchange mutex. Callers MUST hold it across every
// (write-command, read-reply-header, optionally read-body) triple.
func (p *Pipe) Lock() { p.mu.Lock() }

// Unlock releases the exchange mutex.
func (p *Pipe) Unlock() { p.mu.Unlock() }

// ReadBytes reads exactly n bytes, or fails with ErrEndOfStream. n must be
// in [0, MaxChunk].
func (p *Pipe) ReadBytes(n int64) ([]byte, error) {
	if n < 0 || n > MaxChunk {
		return nil, fmt.Errorf("%w: length %d", ErrOutOfRange, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndOfStream, err)
	}
	return buf, nil
}

// ReadVarBytes reads an 8-byte big-endian length followed by that many
// bytes. The length must be in [0, MaxChunk].
func (p *Pipe) ReadVarBytes() ([]byte, error) {
	n, err := p.ReadInt64()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > MaxChunk {
		return nil, fmt.Errorf("%w: var-bytes length %d", ErrProtocolViolation, n)
	}
	return p.ReadBytes(n)
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func (p *Pipe) ReadInt64() (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(p.r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEndOfStream, err)
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func (p *Pipe) ReadInt32() (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(p.r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEndOfStream, err)
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// ReadTag reads a single command tag byte.
func (p *Pipe) ReadTag() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(p.r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEndOfStream, err)
	}
	return buf[0], nil
}

// WriteBytes writes s in full.
func (p *Pipe) WriteBytes(s []byte) error {
	_, err := p.w.Write(s)
	return err
}

// WriteVarBytes writes the big-endian int64 length of s followed by s.
func (p *Pipe) WriteVarBytes(s []byte) error {
	if len(s) > MaxChunk {
		return fmt.Errorf("%w: var-bytes length %d", ErrProtocolViolation, len(s))
	}
	if err := p.WriteInt64(int64(len(s))); err != nil {
		return err
	}
	return p.WriteBytes(s)
}

// WriteInt64 writes a big-endian signed 64-bit integer.
func (p *Pipe) WriteInt64(i int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(i))
	return p.WriteBytes(buf[:])
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func (p *Pipe) WriteInt32(i int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(i))
	return p.WriteBytes(buf[:])
}

// WriteTag writes a single command tag byte.
func (p *Pipe) WriteTag(tag byte) error {
	return p.WriteBytes([]byte{tag})
}

// Close closes the read and write sides when they implement io.Closer,
// unblocking anyone parked in a read. Used to tear down a hung worker when
// its owning context is cancelled rather than left to wedge forever.
func (p *Pipe) Close() error {
	var result *multierror.Error
	if c, ok := p.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c, ok := p.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
