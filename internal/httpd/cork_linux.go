//go:build linux

package httpd

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// setCork enables or disables TCP_CORK-based output batching for the
// connection's response body (§4.3): the kernel withholds partial segments
// until corking is disabled or enough data accumulates, avoiding a
// trickle of small TCP segments for the many short pipe-driven writes in
// streamChunks.
func setCork(conn net.Conn, on bool) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}
	v := 0
	if on {
		v = 1
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, unix.TCP_CORK, v)
	})
}
