// Package config holds the immutable settings shared by every role and
// component, and their deterministic wire encoding for the bootstrap
// handshake (component C5).
package config

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Role selects which side of the pipe a process instance plays.
type Role int

const (
	// RoleServer accepts HTTP requests and renders them (C3/C4).
	RoleServer Role = iota
	// RoleSource performs file I/O against the directory tree (C2).
	RoleSource
)

func (r Role) String() string {
	if r == RoleSource {
		return "source"
	}
	return "server"
}

// ParseRole parses the textual role name RoleSource.String()/
// RoleServer.String() produce, used to decode a --bootstrap-peer argument.
func ParseRole(s string) (Role, error) {
	switch s {
	case "source":
		return RoleSource, nil
	case "server":
		return RoleServer, nil
	default:
		return 0, fmt.Errorf("config: unknown role %q", s)
	}
}

// Settings are constructed once at start-up and never mutated afterward.
type Settings struct {
	HTTPHost     string // listen host for C4
	HTTPPort     uint16 // listen port for C4
	SourceRoot   string // absolute path, always ends with "/"
	ServerPrefix string // URL path prefix, always begins and ends with "/"
	Verbose      bool   // request-header echo to diagnostic stream
}

// Normalize fills in the slash conventions §3 requires.
func (s Settings) Normalize() Settings {
	if !strings.HasSuffix(s.SourceRoot, "/") {
		s.SourceRoot += "/"
	}
	if !strings.HasPrefix(s.ServerPrefix, "/") {
		s.ServerPrefix = "/" + s.ServerPrefix
	}
	if !strings.HasSuffix(s.ServerPrefix, "/") {
		s.ServerPrefix += "/"
	}
	return s
}

// Encode writes a deterministic binary encoding of s, used as the "P"
// payload of the bootstrap handshake. The format is a fixed field order of
// length-prefixed strings and a verbose byte; it is not meant to be a
// stable public format, only a byte-identical round trip between the local
// process and the peer it bootstraps.
func (s Settings) Encode() []byte {
	var buf bytes.Buffer
	writeString(&buf, s.HTTPHost)
	_ = binary.Write(&buf, binary.BigEndian, s.HTTPPort)
	writeString(&buf, s.SourceRoot)
	writeString(&buf, s.ServerPrefix)
	if s.Verbose {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// Decode parses the encoding Encode produces.
func Decode(b []byte) (Settings, error) {
	return DecodeFrom(bytes.NewReader(b))
}

// DecodeFrom parses the encoding Encode produces directly off a stream,
// consuming exactly the bytes that belong to it and leaving anything after
// untouched. The bootstrap handshake relies on this: the peer's settings
// payload is immediately followed by live pipe traffic on the same stream.
func DecodeFrom(r io.Reader) (Settings, error) {
	var s Settings
	var err error
	if s.HTTPHost, err = readString(r); err != nil {
		return Settings{}, err
	}
	if err = binary.Read(r, binary.BigEndian, &s.HTTPPort); err != nil {
		return Settings{}, fmt.Errorf("config: decode port: %w", err)
	}
	if s.SourceRoot, err = readString(r); err != nil {
		return Settings{}, err
	}
	if s.ServerPrefix, err = readString(r); err != nil {
		return Settings{}, err
	}
	var verbose [1]byte
	if _, err := io.ReadFull(r, verbose[:]); err != nil {
		return Settings{}, fmt.Errorf("config: decode verbose flag: %w", err)
	}
	s.Verbose = verbose[0] != 0
	return s, nil
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("config: decode string length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("config: decode string body: %w", err)
	}
	return string(buf), nil
}
