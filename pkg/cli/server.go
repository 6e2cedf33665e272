package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mchmarny/scoreproxy/pkg/config"
	"github.com/mchmarny/scoreproxy/pkg/metrics"
	"github.com/mchmarny/scoreproxy/pkg/proxy"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWaitSeconds = 5
	serverMaxHeaderBytes      = 20
)

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the score proxy HTTP server",
		UsageText: `scoreproxy serve                                   # listen on 127.0.0.1:8080
   scoreproxy serve --address 0.0.0.0 --port 9000      # listen on all interfaces
   scoreproxy serve --retries 4 --cors-origin https://app.example.com`,
		Action: cmdStartServer,
		Flags: []cli.Flag{
			portFlag(),
			listenAddressFlag(),
			upstreamFlag(),
			retriesFlag(),
			corsOriginFlag(),
			upstreamTokenFlag(),
		},
	}
}

// applyServerFlags overlays explicitly set listener flags on the file config.
func applyServerFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(flagPort) {
		cfg.Server.Port = cmd.Int(flagPort)
	}
	if cmd.IsSet(flagAddress) {
		cfg.Server.Address = cmd.String(flagAddress)
	}
	if cmd.IsSet(flagCORSOrigin) {
		cfg.Server.CORSOrigins = cmd.StringSlice(flagCORSOrigin)
	}
	applyUpstreamFlags(cmd, cfg)
}

// applyUpstreamFlags overlays explicitly set upstream flags on the file config.
func applyUpstreamFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(flagUpstream) {
		cfg.Upstream.URL = cmd.String(flagUpstream)
	}
	if cmd.IsSet(flagRetries) {
		cfg.Upstream.Retries = cmd.Int(flagRetries)
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)
	cfg := *app.Config
	applyServerFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	scorer, err := newScanClient(ctx, &cfg, app.Tokens.Resolve(cmd.String(flagToken)))
	if err != nil {
		return err
	}

	metrics.RegisterMetrics()

	address := net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port))
	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(scorer, cfg.Server.CORSOrigins),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started",
			"address", fmt.Sprintf("http://%s", address),
			"upstream", cfg.Upstream.URL,
			"retries", cfg.Upstream.Retries,
			"query_mode", cfg.Upstream.QueryMode,
		)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()

		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func makeRouter(s proxy.Scorer, origins []string) *http.ServeMux {
	mux := http.NewServeMux()

	// Score API, any method so unsupported ones get the JSON 405
	mux.Handle("/score", proxy.RequestID(proxy.WithCORS(proxy.ScoreHandler(s), origins)))

	// Ops
	mux.HandleFunc("GET /healthz", proxy.HealthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}
