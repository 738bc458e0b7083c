package httpd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joostvanzwieten/rhttp/internal/pipe"
	"github.com/joostvanzwieten/rhttp/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptorServesOverRealTCP(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello\n"), 0o644))

	server, client := pipe.NewLocalPair()
	w := &source.Worker{Pipe: server, Root: root + string(filepath.Separator)}
	go func() { _ = w.Run() }()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	a := &Acceptor{Host: "127.0.0.1", Port: uint16(addr.Port), Pipe: client, ServerPrefix: "/"}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", addr.Port))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /a.txt HTTP/1.1\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)
	body, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Contains(t, string(body), "200")
	assert.Contains(t, string(body), "hello\n")

	cancel()
	<-done
}
