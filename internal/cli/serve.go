package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/aiproxy"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/fileutil"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/httpserver"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/procman"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/secrets"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/session"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/store"
	"github.com/NJUPT-SAST-CXX/sast-readium-web/internal/usage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backend API server",
	Long: `Start the HTTP API server the reader frontend talks to.

The server runs until interrupted. On shutdown all MCP sessions are
disconnected and managed processes are stopped.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if err := fileutil.EnsureDir(cfg.ResolveDataDir()); err != nil {
		return err
	}

	servers := store.New(cfg.ServersFile(), logger)
	keyring := secrets.Open(cfg.KeyringFile(), logger)
	recorder := usage.NewRecorder(cfg.UsageFile(), logger)

	proxy := aiproxy.NewProxy(keyring, recorder, logger)
	proxy.SetResilience(aiproxy.NewResilience(aiproxy.ResilienceConfig{
		RateLimitRPM:              cfg.AI.RateLimitRPM,
		RetryAttempts:             cfg.AI.RetryAttempts,
		RetryInitialWait:          200 * time.Millisecond,
		RetryMaxWait:              10 * time.Second,
		CircuitBreakerEnabled:     cfg.AI.CircuitBreakerEnabled,
		CircuitBreakerThreshold:   5,
		CircuitBreakerTimeout:     30 * time.Second,
		CircuitBreakerMaxRequests: 3,
	}))

	sessions := session.NewManager(&session.StdioConnector{
		ClientName:    cfg.MCP.ClientName,
		ClientVersion: cfg.MCP.ClientVersion,
	}, logger)

	processes := procman.NewManager(logger)

	server := httpserver.NewServer(cfg.Server, httpserver.Deps{
		Sessions:       sessions,
		Servers:        servers,
		Keyring:        keyring,
		AI:             proxy,
		Usage:          recorder,
		Processes:      processes,
		ConnectTimeout: cfg.MCP.ConnectTimeout,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gctx)
	})

	// External edits to the server registry are picked up so the next
	// read serves fresh records.
	g.Go(func() error {
		return servers.Watch(gctx, func() {
			logger.Info("server registry changed on disk")
		})
	})

	err := g.Wait()

	logger.Info("shutting down, closing sessions")
	sessions.DisconnectAll()
	processes.StopAll()

	if err != nil && !isCanceled(ctx, err) {
		return err
	}
	return nil
}

func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}
