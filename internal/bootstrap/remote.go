package bootstrap

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/joostvanzwieten/rhttp/internal/config"
	"github.com/joostvanzwieten/rhttp/internal/pipe"
	"golang.org/x/sync/errgroup"
)

// RemoteOptions configures one remote-deployment bootstrap.
type RemoteOptions struct {
	// SSHCommand is the remote-shell command, already split into shell
	// words (e.g. {"ssh", "-p", "2222"}).
	SSHCommand []string
	// Host is the [user@]host the remote-shell command connects to.
	Host string
	// ProgramImage is S: the bytes of the running program, restaged
	// verbatim on the peer.
	ProgramImage []byte
	Settings     config.Settings
	// RemoteRole is the role the peer will run; the local process runs
	// the opposite role.
	RemoteRole config.Role
	Logger     *slog.Logger
}

// RunRemote implements §4.5's remote deployment and handshake. It invokes
// the remote-shell command with the shim, performs the identity exchange,
// and then runs the local process's own role against the resulting pipe
// until ctx is cancelled or either side ends.
func RunRemote(ctx context.Context, opts RemoteOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.SSHCommand) == 0 {
		return fmt.Errorf("bootstrap: empty remote-shell command")
	}
	if localRole := opposite(opts.RemoteRole); localRole == config.RoleSource {
		if err := validateSourceRoot(opts.Settings.SourceRoot); err != nil {
			return err
		}
	}

	setState := func(s State) {
		logger.Debug("bootstrap: state transition", "state", s)
	}
	setState(Spawned)

	m := magic(opts.ProgramImage)
	shimCmd := buildShimCommand(m, len(opts.ProgramImage), opts.RemoteRole)

	args := append(append([]string{}, opts.SSHCommand[1:]...), opts.Host, shimCmd)
	cmd := exec.CommandContext(ctx, opts.SSHCommand[0], args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("bootstrap: remote-shell stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("bootstrap: remote-shell stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		setState(Terminating)
		return fmt.Errorf("bootstrap: starting remote-shell: %w", err)
	}

	if _, err := stdin.Write(m[:]); err != nil {
		setState(Terminating)
		_ = cmd.Process.Kill()
		return fmt.Errorf("bootstrap: sending identity digest: %w", err)
	}
	if _, err := stdin.Write(opts.ProgramImage); err != nil {
		setState(Terminating)
		_ = cmd.Process.Kill()
		return fmt.Errorf("bootstrap: sending program image: %w", err)
	}
	if _, err := stdin.Write(opts.Settings.Encode()); err != nil {
		setState(Terminating)
		_ = cmd.Process.Kill()
		return fmt.Errorf("bootstrap: sending settings: %w", err)
	}
	setState(IdentitySent)

	echoed := make([]byte, magicLen)
	if _, err := io.ReadFull(stdout, echoed); err != nil {
		setState(Terminating)
		_ = cmd.Process.Kill()
		return fmt.Errorf("bootstrap: reading identity echo: %w", err)
	}
	if subtle.ConstantTimeCompare(echoed, m[:]) != 1 {
		setState(Terminating)
		_ = cmd.Process.Kill()
		return ErrIdentityMismatch
	}
	setState(IdentityVerified)

	p := pipe.New(stdout, stdin)
	localRole := opposite(opts.RemoteRole)

	g, gctx := errgroup.WithContext(ctx)
	// errgroup cancels gctx only on a non-nil error; a clean end of either
	// side must still stop the rest.
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()
	setState(Running)
	g.Go(func() error {
		defer cancel()
		return runRole(gctx, localRole, opts.Settings, p, logger)
	})
	g.Go(func() error {
		// A terminated remote-shell child is this role's cancellation
		// signal in the remote deployment, same way pipe hangup is in
		// the local one: unwedge anyone blocked on p and surface the
		// child's exit as the group's error.
		err := cmd.Wait()
		_ = p.Close()
		cancel()
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = cmd.Process.Kill()
		return nil
	})

	werr := g.Wait()
	setState(Terminating)
	if werr != nil {
		return fmt.Errorf("bootstrap: remote deployment: %w", werr)
	}
	return nil
}

// RunPeer is the shim's handoff target: invoked as `<image> --bootstrap-peer
// <role>` after the shim has echoed the magic and staged the rest of the
// settings/pipe traffic on its standard input. It decodes the settings
// payload and runs role against a pipe over (stdin, stdout) until it ends.
func RunPeer(ctx context.Context, role config.Role, logger *slog.Logger) error {
	settings, err := config.DecodeFrom(os.Stdin)
	if err != nil {
		return fmt.Errorf("bootstrap: peer: decoding settings: %w", err)
	}
	p := pipe.New(os.Stdin, os.Stdout)
	return runRole(ctx, role, settings, p, logger)
}
