// Package main provides the daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/ytbeats/internal/api/apiv1/apiv1connect"
	apiconnect "github.com/osa030/ytbeats/internal/api/connect"
	"github.com/osa030/ytbeats/internal/app/session"
	model "github.com/osa030/ytbeats/internal/domain/download"
	"github.com/osa030/ytbeats/internal/infra/config"
	"github.com/osa030/ytbeats/internal/infra/deps"
	"github.com/osa030/ytbeats/internal/infra/logger"
	"github.com/osa030/ytbeats/internal/infra/mpv"
	"github.com/osa030/ytbeats/internal/infra/ytdlp"
)

var (
	app        = kingpin.New("ytbeatsd", "ytbeats playback and download daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/ytbeatsd.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// deps command
	depsCmd = app.Command("deps", "Check external binaries and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the daemon (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Handle deps command
	if command == depsCmd.FullCommand() {
		if !printDeps(cfg) {
			os.Exit(1)
		}
		return
	}

	// Run daemon (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, s := range deps.Missing(deps.CheckBinaries(requirements(cfg))) {
		zlog.Warn().Msgf("Required binary missing: name=%s detail=%s", s.Name, s.Detail)
	}

	// Start the playback engine; failure degrades the session instead of aborting
	player, playerErr := mpv.New(ctx, mpv.Config{
		Binary:          cfg.Player.Binary,
		YtdlPath:        cfg.Player.YtdlPath,
		RuntimeDir:      cfg.Player.RuntimeDir,
		ConnectTimeout:  cfg.Player.ConnectTimeout(),
		ConnectInterval: cfg.Player.ConnectInterval(),
		GraceWindow:     cfg.Player.GraceWindow(),
		CallTimeout:     cfg.Player.CallTimeout(),
		InitialVolume:   cfg.Player.InitialVolume,
	})

	catalog := ytdlp.New(ytdlp.Config{
		Binary:       cfg.Downloads.Retriever,
		AudioFormat:  cfg.Downloads.AudioFormat,
		AudioQuality: cfg.Downloads.AudioQuality,
		MaxRetries:   cfg.Search.MaxRetries,
		Timeout:      cfg.Search.Timeout(),
	})

	sessionDeps := session.Deps{
		Catalog:        catalog,
		Fetcher:        catalog,
		ConverterProbe: deps.Probe(cfg.Downloads.ConversionTool),
	}
	if playerErr != nil {
		sessionDeps.PlayerErr = playerErr
	} else {
		sessionDeps.Player = player
	}

	// Create session manager
	sessionMgr, err := session.NewManager(cfg, sessionDeps)
	if err != nil {
		if player != nil {
			player.Quit()
		}
		return errors.Wrap(err, "failed to create session manager")
	}
	defer sessionMgr.Close()

	sessionMgr.OnDownloadCompleted(func(s model.Snapshot) {
		if s.Status != model.StatusCompleted {
			return
		}
		executeHooks(cfg.Server.Hooks.OnCompleted, "on_download_completed", downloadEnv(s))
	})

	if err := sessionMgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register services
	authInterceptor := connect.WithInterceptors(apiconnect.NewAuthInterceptor(cfg.Server.Token))
	mux.Handle(apiv1connect.NewPlayerServiceHandler(apiconnect.NewPlayerService(sessionMgr), authInterceptor))
	mux.Handle(apiv1connect.NewDownloadServiceHandler(apiconnect.NewDownloadService(sessionMgr), authInterceptor))

	// Create server with h2c (HTTP/2 cleartext) support
	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s phase=%s", serverAddr, sessionMgr.GetPhase())
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started", nil)

	// Wait for shutdown signal, session end, or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-sessionMgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Daemon stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped", nil)

	return nil
}

func requirements(cfg *config.Config) []deps.Requirement {
	return deps.Requirements(cfg.Player.Binary, cfg.Downloads.Retriever, cfg.Downloads.ConversionTool)
}

// printDeps prints the binary check table. Returns false if a required binary is missing.
func printDeps(cfg *config.Config) bool {
	statuses := deps.CheckBinaries(requirements(cfg))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Name", "Command", "Required", "Status", "Path"})
	for _, s := range statuses {
		state := "ok"
		if !s.Available {
			state = s.Detail
		}
		t.AppendRow(table.Row{s.Name, s.Command, !s.Optional, state, s.Path})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	return len(deps.Missing(statuses)) == 0
}
