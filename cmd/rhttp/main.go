// Command rhttp serves a directory tree over HTTP, optionally with the tree
// and the HTTP listener living on different hosts connected over a
// remote-shell pipe.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/joostvanzwieten/rhttp/internal/bootstrap"
	"github.com/joostvanzwieten/rhttp/internal/config"
)

var (
	flagHost       string
	flagPort       uint16
	flagSSHCommand string
	flagVerbose    bool
)

func main() {
	// The remote peer's shim hands off to us via a literal re-exec with
	// this argument pair; it is never part of the public CLI surface, so
	// it is intercepted ahead of cobra rather than registered as a flag.
	if len(os.Args) >= 3 && os.Args[1] == "--bootstrap-peer" {
		runPeer(os.Args[2])
		return
	}
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPeer(roleArg string) {
	role, err := config.ParseRole(roleArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := bootstrap.RunPeer(ctx, role, slog.Default()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rhttp [OPTIONS] [[USER1@]HOST1:]SOURCE [[[USER2@]HOST2]:[URL_PREFIX]]",
		Short: "Serve a directory tree over HTTP, possibly across a remote-shell pipe",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runServe,
	}
	flags := cmd.Flags()
	flags.StringVar(&flagHost, "host", "localhost", "HTTP listener host")
	flags.Uint16Var(&flagPort, "port", 8000, "HTTP listener port")
	flags.StringVar(&flagSSHCommand, "ssh-command", "ssh", "remote-shell command, split as shell words")
	flags.BoolVar(&flagVerbose, "verbose", false, "log each request's method, target, version and headers")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	sourceArg := args[0]
	var serverArg string
	if len(args) > 1 {
		serverArg = args[1]
	}

	source := config.ParseSourceArg(sourceArg)
	server := config.ParseServerArg(serverArg)
	if source.Remote() && server.Remote() {
		return fmt.Errorf("rhttp: exactly one of SOURCE or SERVER may name a remote host")
	}

	httpHost := flagHost
	if server.Host != "" {
		httpHost = server.Host
	}
	serverPrefix := server.Path
	if serverPrefix == "" {
		serverPrefix = "/"
	}

	sourceRoot := source.Path
	if !source.Remote() {
		abs, err := filepath.Abs(sourceRoot)
		if err != nil {
			return fmt.Errorf("rhttp: resolving SOURCE: %w", err)
		}
		sourceRoot = abs
	}

	settings := config.Settings{
		HTTPHost:     httpHost,
		HTTPPort:     flagPort,
		SourceRoot:   sourceRoot,
		ServerPrefix: serverPrefix,
		Verbose:      flagVerbose,
	}.Normalize()

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if !source.Remote() && !server.Remote() {
		return bootstrap.RunLocal(ctx, settings, logger)
	}

	remoteRole, remoteHost := config.RoleSource, source.Host
	if server.Remote() {
		remoteRole, remoteHost = config.RoleServer, server.Host
	}

	sshWords, err := shellwords.Parse(flagSSHCommand)
	if err != nil {
		return fmt.Errorf("rhttp: parsing --ssh-command: %w", err)
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("rhttp: locating own program image: %w", err)
	}
	image, err := os.ReadFile(exePath)
	if err != nil {
		return fmt.Errorf("rhttp: reading own program image: %w", err)
	}

	return bootstrap.RunRemote(ctx, bootstrap.RemoteOptions{
		SSHCommand:   sshWords,
		Host:         remoteHost,
		ProgramImage: image,
		Settings:     settings,
		RemoteRole:   remoteRole,
		Logger:       logger,
	})
}
