package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/furbo/internal/config"
	loopconfig "github.com/tomz197/furbo/internal/loop/config"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/relay/sim"
)

//go:embed template
var templateFS embed.FS

var pageTmpl = template.Must(template.New("index.tpl").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(templateFS, "template/index.tpl"))

// page is the data rendered into index.tpl.
type page struct {
	SSHHost     string
	SSHPort     string
	RelayPath   string
	Leaderboard []relay.Entry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var (
		cfgFile     string
		displayHost string
	)

	cmd := &cobra.Command{
		Use:          "furbo-web",
		Short:        "Serve the landing page and a relay simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, displayHost)
		},
	}

	d := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&displayHost, "ssh-display-host", "your-server.com", "SSH host shown on the page")
	flags.String("host", d.Server.WebHost, "listen host")
	flags.String("port", d.Server.WebPort, "listen port")
	flags.Duration("latency", d.Sim.Latency, "simulated relay latency")
	flags.Float64("failure-rate", d.Sim.FailureRate, "fraction of relay actions answered with 503")
	cobra.CheckErr(config.BindFlags(v, flags, map[string]string{
		"host":         "server.web_host",
		"port":         "server.web_port",
		"latency":      "sim.latency",
		"failure-rate": "sim.failure_rate",
	}))
	return cmd
}

func newRouter(cfg config.Config, s *sim.Simulator, displayHost string) *mux.Router {
	r := mux.NewRouter()
	s.Register(r)
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := page{
			SSHHost:     displayHost,
			SSHPort:     cfg.Server.SSHPort,
			RelayPath:   cfg.Sim.Path,
			Leaderboard: s.Leaderboard(),
		}
		if err := pageTmpl.Execute(w, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}).Methods(http.MethodGet)
	return r
}

func serve(ctx context.Context, cfg config.Config, displayHost string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "web"})
	s := sim.New(sim.Options{
		Path:            cfg.Sim.Path,
		Latency:         cfg.Sim.Latency,
		FailureRate:     cfg.Sim.FailureRate,
		LeaderboardSize: loopconfig.LeaderboardSize,
	}, nil, logger.WithPrefix("sim"))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.WebHost, cfg.Server.WebPort),
		Handler:           newRouter(cfg, s, displayHost),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting web server", "addr", "http://"+srv.Addr, "relay", cfg.Sim.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
