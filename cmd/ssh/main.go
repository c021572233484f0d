package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/decred/base58"
	"github.com/spf13/cobra"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/loop/client"
	"github.com/tomz197/furbo/internal/loop/server"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "furbo-ssh",
		Short:        "Serve furbo over SSH",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	d := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("host", d.Server.SSHHost, "listen host")
	flags.String("port", d.Server.SSHPort, "listen port")
	flags.String("host-key", d.Server.HostKeyPath, "SSH host key path (created when missing)")
	flags.String("relay", d.Relay.URL, "relay URL")
	flags.String("policy", string(d.Dispatch.Policy), "shot policy: optimistic or confirm_first")
	cobra.CheckErr(config.BindFlags(v, flags, map[string]string{
		"host":     "server.ssh_host",
		"port":     "server.ssh_port",
		"host-key": "server.host_key",
		"relay":    "relay.url",
		"policy":   "dispatch.policy",
	}))
	return cmd
}

// serve runs the shared hub and the SSH server until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "ssh"})
	workingDir, err := os.Getwd()
	if err != nil {
		logger.Warn("failed to get working directory", "err", err)
	}
	logger.Info("SSH config", "host", cfg.Server.SSHHost, "port", cfg.Server.SSHPort,
		"hostKey", cfg.Server.HostKeyPath, "workingDir", workingDir, "relay", cfg.Relay.URL)

	rc := relay.NewHTTPClient(cfg.Relay.URL, cfg.Relay.RequestTimeout, nil)
	hub := server.NewHub(rc, nil, logger.WithPrefix("hub"))

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.Server.SSHHost, cfg.Server.SSHPort)),
		wish.WithMiddleware(
			gameMiddleware(hub, cfg, rc, logger),
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
		// Accept any key; it only derives the player key.
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithKeyboardInteractiveAuth(func(ssh.Context, gossh.KeyboardInteractiveChallenge) bool { return true }),
	}
	if cfg.Server.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.Server.HostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(hubCtx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting SSH server", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("ssh server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// Notify players and wait for them to disconnect
		hub.Shutdown(15 * time.Second)
		stopHub()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// gameMiddleware runs one client with its own match per SSH session.
func gameMiddleware(hub *server.Hub, cfg config.Config, rc relay.Client, logger *log.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}
			id := sessionIdentity(sess)
			logger.Info("New game session", "user", sess.User(), "player", id.Short(),
				"term", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)

			// Create a terminal size tracker that updates on window changes
			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			c, err := client.NewClient(hub, bufio.NewReader(sess), sess, client.ClientOptions{
				Config:       cfg,
				Relay:        rc,
				Identity:     id,
				TermSizeFunc: sizeTracker.getSize,
			})
			if err != nil {
				logger.Error("Cannot start game", "user", sess.User(), "err", err)
				fmt.Fprintln(sess, "Error: could not start the game, please try again.")
				return
			}
			if err := c.Run(); err != nil {
				logger.Error("Game error", "user", sess.User(), "err", err)
			}

			logger.Info("Session ended", "user", sess.User())
			next(sess)
		}
	}
}

// sessionIdentity derives a stable player key from the client's public key
// and suggests the SSH user name as handle.
func sessionIdentity(sess ssh.Session) types.Identity {
	var id types.Identity
	if key := sess.PublicKey(); key != nil {
		sum := sha256.Sum256(key.Marshal())
		id.Player = base58.Encode(sum[:])
	}
	handle := []rune(sess.User())
	if len(handle) > types.MaxHandleLength {
		handle = handle[:types.MaxHandleLength]
	}
	id.Handle = string(handle)
	return id
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
