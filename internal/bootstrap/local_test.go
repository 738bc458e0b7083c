package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joostvanzwieten/rhttp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLocalServesHTTPRequest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello\n"), 0o644))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	settings := config.Settings{
		HTTPHost:     "127.0.0.1",
		HTTPPort:     uint16(addr.Port),
		SourceRoot:   root,
		ServerPrefix: "/",
	}.Normalize()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- RunLocal(ctx, settings, nil) }()

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
	assert.Contains(t, string(body), "hello\n")

	cancel()
	<-done
}

func TestRunLocalRejectsMissingSourceRoot(t *testing.T) {
	settings := config.Settings{
		HTTPHost:     "127.0.0.1",
		HTTPPort:     0,
		SourceRoot:   filepath.Join(t.TempDir(), "does-not-exist"),
		ServerPrefix: "/",
	}.Normalize()

	err := RunLocal(context.Background(), settings, nil)
	require.Error(t, err)
}
