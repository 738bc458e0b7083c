package httpd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/joostvanzwieten/rhttp/internal/pipe"
)

// Acceptor is component C4: it owns the listen socket, spawns one Handler
// per accepted connection, and shuts down the process when the pipe
// hangs up.
type Acceptor struct {
	Host         string
	Port         uint16
	Pipe         *pipe.Pipe
	ServerPrefix string
	Verbose      bool
	Logger       *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// Run opens the listen socket (address reuse enabled via the standard
// library's net.ListenConfig, which sets SO_REUSEADDR by default on Unix)
// and serves until ctx is cancelled. Cancellation is how a pipe hangup
// reaches the Acceptor: the caller (internal/bootstrap) owns the transport
// underlying Pipe — an in-memory stream for the local deployment, the
// remote-shell child's stdio for the remote one — and cancels ctx the
// moment that transport reports EOF or the child exits, rather than having
// this goroutine race the Handlers for pipe reads. Each accepted
// connection's Handler is tracked in an errgroup so a fatal accept error
// tears down every open connection's goroutine together (§11 domain
// stack).
func (a *Acceptor) Run(ctx context.Context) error {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", a.Host, a.Port))
	if err != nil {
		return fmt.Errorf("httpd: listen: %w", err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		defer ln.Close()
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return fmt.Errorf("httpd: accept: %w", err)
				}
			}
			g.Go(func() error {
				// Closing conn unblocks the Handler once ctx ends.
				stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
				defer stop()
				h := &Handler{
					Conn:         conn,
					Pipe:         a.Pipe,
					ServerPrefix: a.ServerPrefix,
					Verbose:      a.Verbose,
					Logger:       logger,
				}
				h.Serve()
				return nil
			})
		}
	})

	return g.Wait()
}

// Close shuts the acceptor down, aggregating every close error it
// encounters rather than only the first (§11 domain stack).
func (a *Acceptor) Close() error {
	a.mu.Lock()
	ln := a.listener
	a.mu.Unlock()
	if ln == nil {
		return nil
	}
	var result *multierror.Error
	if err := ln.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
