//go:build !linux

package httpd

import "net"

// setCork is a no-op outside Linux: TCP_CORK has no portable equivalent,
// and the in-memory test pipes used in this package's tests aren't
// TCPConns anyway.
func setCork(net.Conn, bool) {}
