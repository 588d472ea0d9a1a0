// Command sumstack starts the SumStack game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket push and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// A third command, "validate", checks the rule presets in the config directory.
// Flags control host/port, config directory, high-score store, debug logging
// and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sumstack/api"
	"github.com/wricardo/sumstack/game/config"
	"github.com/wricardo/sumstack/game/engine"
	"github.com/wricardo/sumstack/game/service"
	"github.com/wricardo/sumstack/game/session"
	"github.com/wricardo/sumstack/game/storage"
	"github.com/wricardo/sumstack/transport/mcp"
	"github.com/wricardo/sumstack/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "SumStack Game Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

var _ service.Notifier = (*websocket.Hub)(nil)

// app holds the wired services shared by every mode
type app struct {
	store    storage.Store
	sessions *session.Manager
	hub      *websocket.Hub
	service  service.GameService
}

// newApp wires storage, records, sessions, presets and the game service. The
// hub is created but not started.
func newApp(configDir, storeKind, storePath string) (*app, error) {
	configs, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	if storePath == "" {
		storePath = defaultStorePath(storeKind)
	}
	store, err := storage.Open(storeKind, storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", storeKind, err)
	}

	records := engine.NewRecordTracker(store)
	sessions := session.NewManager(session.WithRecords(records))
	hub := websocket.NewHub()

	return &app{
		store:    store,
		sessions: sessions,
		hub:      hub,
		service:  service.NewGameService(sessions, configs, service.WithNotifier(hub)),
	}, nil
}

func defaultStorePath(kind string) string {
	switch kind {
	case storage.KindFile:
		return "data"
	case storage.KindSQLite:
		return "sumstack.db"
	}
	return ""
}

// handler returns the REST API with the MCP endpoint mounted. MCP tools call
// back into the API at baseURL.
func (a *app) handler(baseURL string) http.Handler {
	apiServer := api.NewServer(a.service, a.hub)
	apiServer.Handle("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return apiServer
}

// cleanupLoop removes sessions idle for longer than sessionMaxAge until ctx is done
func (a *app) cleanupLoop(ctx context.Context) {
	t := time.NewTicker(cleanupInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if removed := a.sessions.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				zap.L().Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

func (a *app) Close() {
	a.sessions.CloseAll()
	if err := a.store.Close(); err != nil {
		zap.L().Warn("failed to close store", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "sumstack",
		Usage:   AppName,
		Version: Version,
		// Exit codes are handled by main
		ExitErrHandler: func(ctx context.Context, cmd *cli.Command, err error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing rule presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "store", Value: storage.KindFile, Usage: "high score store: memory, file or sqlite", Sources: cli.EnvVars("SUMSTACK_STORE")},
			&cli.StringFlag{Name: "store-path", Usage: "directory (file) or database (sqlite) for the high score", Sources: cli.EnvVars("SUMSTACK_STORE_PATH")},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger, err := newLogger(cmd.Bool("debug"))
			if err != nil {
				return ctx, err
			}
			zap.ReplaceGlobals(logger)
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			_ = zap.L().Sync()
			return nil
		},
		Action: runHTTPServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action:  runHTTPServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server backed by an external or internal HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "external API to reuse when it is healthy", Sources: cli.EnvVars("SUMSTACK_URL")},
				},
				Action: runStdioMCP,
			},
			{
				Name:      "validate",
				Usage:     "validate the rule presets",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runValidate(stdout, cmd)
				},
			},
		},
	}
}

func runValidate(stdout io.Writer, cmd *cli.Command) error {
	dir := cmd.String("config-dir")
	if cmd.Args().Present() {
		dir = cmd.Args().First()
	}

	results, err := config.ValidateDir(dir)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	fmt.Fprintf(stdout, "Validating presets in %s\n\n", dir)
	if invalid := config.WriteReport(stdout, results); invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d invalid preset(s)", invalid), 1)
	}
	return nil
}

// runHTTPServer serves the API until SIGINT/SIGTERM. If ngrok is enabled it
// also serves through a public tunnel.
func runHTTPServer(ctx context.Context, cmd *cli.Command) error {
	logger := zap.L()

	a, err := newApp(cmd.String("config-dir"), cmd.String("store"), cmd.String("store-path"))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go a.hub.Run(ctx)
	go a.cleanupLoop(ctx)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := a.handler("http://" + addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("starting server",
			zap.String("app", AppName),
			zap.String("version", Version),
			zap.String("addr", addr),
			zap.String("store", cmd.String("store")),
		)
		logger.Info("endpoints",
			zap.String("rest", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, handler, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"))
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	default:
		return nil
	}
}

// serveNgrok serves handler through an ngrok tunnel until ctx is done
func serveNgrok(ctx context.Context, handler http.Handler, authToken, domain string) {
	logger := zap.L()

	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Warn("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("rest", url+"/api"),
		zap.String("websocket", strings.Replace(url, "https://", "wss://", 1)+"/ws?session=<session_id>"),
		zap.String("mcp", url+"/mcp"),
	)

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// apiHealthy reports whether an API answers its health check at baseURL
func apiHealthy(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// it is healthy, otherwise it serves the API itself on a loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	logger := zap.L()
	baseURL := strings.TrimRight(cmd.String("api-url"), "/")

	if apiHealthy(ctx, baseURL) {
		logger.Info("using external API for MCP", zap.String("url", baseURL))
	} else {
		logger.Info("no external API found, starting internal HTTP server", zap.String("checked", baseURL))

		a, err := newApp(cmd.String("config-dir"), cmd.String("store"), cmd.String("store-path"))
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.hub.Run(ctx)
		go a.cleanupLoop(ctx)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		httpServer := &http.Server{Handler: a.handler(baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		logger.Info("internal HTTP server listening", zap.String("url", baseURL))
	}

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
