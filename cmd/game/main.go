package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/loop/client"
	"github.com/tomz197/furbo/internal/loop/server"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/relay/sim"
	"github.com/tomz197/furbo/internal/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var (
		cfgFile string
		id      types.Identity
		useSim  bool
	)

	cmd := &cobra.Command{
		Use:          "furbo",
		Short:        "Play furbo in this terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, id, useSim)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&id.Player, "player", "", "base58 player key (random when empty)")
	flags.StringVar(&id.Handle, "handle", "", "leaderboard handle")
	flags.BoolVar(&useSim, "sim", false, "play against an in-process relay simulator")
	flags.String("relay", config.Default().Relay.URL, "relay URL")
	flags.String("policy", string(config.Default().Dispatch.Policy), "shot policy: optimistic or confirm_first")
	flags.Int("max-pending", config.Default().Dispatch.MaxPending, "relay actions allowed in flight (1-20)")
	flags.Int64("seed", 0, "world seed (0 picks one)")
	cobra.CheckErr(config.BindFlags(v, flags, map[string]string{
		"relay":       "relay.url",
		"policy":      "dispatch.policy",
		"max-pending": "dispatch.max_pending",
		"seed":        "game.seed",
	}))
	return cmd
}

func run(ctx context.Context, cfg config.Config, id types.Identity, useSim bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quiet := log.New(io.Discard)
	if useSim {
		url, err := startSim(ctx, cfg.Sim, quiet)
		if err != nil {
			return err
		}
		cfg.Relay.URL = url
	}

	rc := relay.NewHTTPClient(cfg.Relay.URL, cfg.Relay.RequestTimeout, nil)
	hub := server.NewHub(rc, nil, quiet)
	go hub.Run(ctx)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	c, err := client.NewClient(hub, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Config:   cfg,
		Relay:    rc,
		Identity: id,
	})
	if err != nil {
		return err
	}
	return c.Run()
}

// startSim serves a relay simulator on a loopback port and returns its URL.
func startSim(ctx context.Context, cfg config.Sim, logger *log.Logger) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("listen for simulator: %w", err)
	}
	s := sim.New(sim.Options{Path: cfg.Path, Latency: cfg.Latency, FailureRate: cfg.FailureRate}, nil, logger)
	srv := &http.Server{Handler: s.Handler()}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("simulator stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	return "http://" + ln.Addr().String() + cfg.Path, nil
}
