package bootstrap

import (
	"context"
	"log/slog"

	"github.com/joostvanzwieten/rhttp/internal/config"
	"github.com/joostvanzwieten/rhttp/internal/pipe"
	"golang.org/x/sync/errgroup"
)

// RunLocal implements §4.5's local deployment: both roles in one process,
// joined by an in-memory pipe pair. It returns when either role's task
// ends, cancelling the other via the errgroup's shared context.
func RunLocal(ctx context.Context, settings config.Settings, logger *slog.Logger) error {
	if err := validateSourceRoot(settings.SourceRoot); err != nil {
		return err
	}

	sourceSide, serverSide := pipe.NewLocalPair()

	g, gctx := errgroup.WithContext(ctx)
	// errgroup cancels gctx only on a non-nil error; a role that ends
	// cleanly must stop the other one too.
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()
	g.Go(func() error {
		defer cancel()
		return runRole(gctx, config.RoleSource, settings, sourceSide, logger)
	})
	g.Go(func() error {
		defer cancel()
		return runRole(gctx, config.RoleServer, settings, serverSide, logger)
	})
	g.Go(func() error {
		// The Source Worker has no ctx of its own to react to: if the
		// Acceptor's half ends first, close both pipe ends so its
		// blocking read unwedges instead of leaking the goroutine.
		<-gctx.Done()
		_ = sourceSide.Close()
		_ = serverSide.Close()
		return nil
	})
	return g.Wait()
}
