package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joostvanzwieten/rhttp/internal/config"
	"github.com/joostvanzwieten/rhttp/internal/httpd"
	"github.com/joostvanzwieten/rhttp/internal/pipe"
	"github.com/joostvanzwieten/rhttp/internal/source"
)

// runRole starts whichever of the two roles role names against p,
// blocking until it returns. The Source Worker runs to completion (or
// error) on its own; the Server role runs its Acceptor until ctx is
// cancelled.
func runRole(ctx context.Context, role config.Role, settings config.Settings, p *pipe.Pipe, logger *slog.Logger) error {
	switch role {
	case config.RoleSource:
		if err := validateSourceRoot(settings.SourceRoot); err != nil {
			return err
		}
		w := &source.Worker{Pipe: p, Root: settings.SourceRoot, Logger: logger}
		return w.Run()
	case config.RoleServer:
		a := &httpd.Acceptor{
			Host:         settings.HTTPHost,
			Port:         settings.HTTPPort,
			Pipe:         p,
			ServerPrefix: settings.ServerPrefix,
			Verbose:      settings.Verbose,
			Logger:       logger,
		}
		return a.Run(ctx)
	default:
		return fmt.Errorf("bootstrap: unknown role %v", role)
	}
}

// validateSourceRoot enforces §3's start-up invariant: source_root must
// resolve to an existing directory, fatally, before the Source Worker ever
// answers a command.
func validateSourceRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("bootstrap: source root %q: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bootstrap: source root %q is not a directory", root)
	}
	return nil
}

// opposite returns the role the local process must run when remoteRole is
// the role it bootstrapped onto the peer.
func opposite(remoteRole config.Role) config.Role {
	if remoteRole == config.RoleSource {
		return config.RoleServer
	}
	return config.RoleSource
}
