// Command klondike starts the Klondike solitaire server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, session storage (files or Redis),
// statistics storage (file or PostgreSQL), debug logging and optional ngrok
// tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/klondike/api"
	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/game/session"
	"github.com/wricardo/mcp-training/klondike/game/stats"
	"github.com/wricardo/mcp-training/klondike/transport/mcp"
	"github.com/wricardo/mcp-training/klondike/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Klondike Solitaire Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
)

// options holds the parsed command line
type options struct {
	host        string
	port        int
	configDir   string
	sessionsDir string
	redisAddr   string
	redisPrefix string
	sessionTTL  time.Duration
	databaseURL string
	statsFile   string
	debug       bool

	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host"},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for session files (ignored with --redis-addr)", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "redis-addr", Usage: "Store sessions in Redis at this address", Sources: cli.EnvVars("REDIS_ADDR")},
		&cli.StringFlag{Name: "redis-prefix", Value: session.DefaultRedisKeyPrefix, Usage: "Redis key prefix for sessions"},
		&cli.DurationFlag{Name: "session-ttl", Usage: "Expire idle sessions in Redis after this duration (0 keeps them)"},
		&cli.StringFlag{Name: "database-url", Usage: "Keep statistics in PostgreSQL", Sources: cli.EnvVars("DATABASE_URL")},
		&cli.StringFlag{Name: "stats-file", Value: "stats.json", Usage: "Statistics file when no database is configured (empty keeps them in memory)", Sources: cli.EnvVars("STATS_FILE")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:        cmd.String("host"),
		port:        cmd.Int("port"),
		configDir:   cmd.String("config-dir"),
		sessionsDir: cmd.String("sessions-dir"),
		redisAddr:   cmd.String("redis-addr"),
		redisPrefix: cmd.String("redis-prefix"),
		sessionTTL:  cmd.Duration("session-ttl"),
		databaseURL: cmd.String("database-url"),
		statsFile:   cmd.String("stats-file"),
		debug:       cmd.Bool("debug"),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "klondike",
		Usage:   AppName,
		Version: Version,
		Flags:   flags(),
		Action:  runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServerCommand,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runMCPCommand,
			},
		},
	}
}

// main loads .env and runs the selected command
func main() {
	logger := newLogger(false)

	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Warn("error loading .env file")
		}
	} else {
		logger.Info("loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logger.WithError(err).Fatal("klondike exited")
	}
}

func newLogger(debug bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log := newLogger(opts.debug)
	log.WithFields(logrus.Fields{"version": Version, "mode": "server"}).Infof("starting %s", AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, err := initializeServices(ctx, opts, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	return runHTTPServer(ctx, opts, svcs, log)
}

func runMCPCommand(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	log := newLogger(opts.debug)
	log.WithFields(logrus.Fields{"version": Version, "mode": "mcp"}).Infof("starting %s", AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, err := initializeServices(ctx, opts, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	return runStdioMCPWithInternalServer(ctx, opts, svcs, log)
}

// services bundles what the transports need
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
	hub         *websocket.Hub
	closers     []func()
}

// Close saves every session and releases storage connections
func (s *services) Close() {
	if s.sessions != nil {
		s.sessions.SaveAllSessions()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// initializeServices wires session/config managers, statistics and the game
// service. It also starts the background routines that keep sessions tidy;
// they stop when ctx is done.
func initializeServices(ctx context.Context, opts options, log logrus.FieldLogger) (*services, error) {
	svcs := &services{}

	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := newPersistence(ctx, opts, configManager, log, svcs)
	if err != nil {
		svcs.Close()
		return nil, err
	}
	svcs.persistence = persistence

	// Create session manager with persistence
	sessionManager := session.NewManagerWithPersistence(persistence)
	sessionManager.SetLogger(log)
	svcs.sessions = sessionManager

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("failed to load persisted sessions")
	}

	tracker, err := newTracker(ctx, opts, log, svcs)
	if err != nil {
		svcs.Close()
		return nil, err
	}

	svcs.game = service.NewGameService(sessionManager, configManager,
		service.WithLogger(log),
		service.WithStats(tracker),
	)

	svcs.hub = websocket.NewHub(log)
	go svcs.hub.Run(ctx)

	go sessionCleanupRoutine(ctx, sessionManager, log)
	if _, ok := persistence.(*session.FilePersistence); ok {
		go filesystemSyncRoutine(ctx, sessionManager, persistence, log)
	}

	return svcs, nil
}

// newPersistence selects Redis when an address is configured, files otherwise
func newPersistence(ctx context.Context, opts options, configs service.ConfigManager, log logrus.FieldLogger, svcs *services) (session.SessionPersistence, error) {
	if opts.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		rp, err := session.NewRedisPersistence(ctx, client, configs,
			session.WithKeyPrefix(opts.redisPrefix),
			session.WithTTL(opts.sessionTTL),
			session.WithLogger(log),
		)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create redis session persistence: %w", err)
		}
		svcs.closers = append(svcs.closers, func() { client.Close() })
		log.WithField("addr", opts.redisAddr).Info("storing sessions in redis")
		return rp, nil
	}

	fp, err := session.NewFilePersistence(opts.sessionsDir, configs)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}
	fp.SetLogger(log)
	log.WithField("dir", opts.sessionsDir).Info("storing sessions on disk")
	return fp, nil
}

// newTracker selects PostgreSQL, a stats file, or memory for statistics
func newTracker(ctx context.Context, opts options, log logrus.FieldLogger, svcs *services) (*stats.Tracker, error) {
	var store stats.Store
	switch {
	case opts.databaseURL != "":
		pg, err := stats.NewPostgresStore(ctx, opts.databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect statistics database: %w", err)
		}
		svcs.closers = append(svcs.closers, pg.Close)
		store = pg
		log.Info("keeping statistics in postgres")
	case opts.statsFile != "":
		fs, err := stats.NewFileStore(opts.statsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open statistics file: %w", err)
		}
		store = fs
		log.WithField("file", opts.statsFile).Info("keeping statistics on disk")
	default:
		log.Info("keeping statistics in memory")
	}

	return stats.NewTracker(ctx, store, log)
}

// newMCPHandler forwards POSTed JSON-RPC messages to the MCP server
func newMCPHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter combines the REST API, WebSocket and the /mcp endpoint
func newRouter(svcs *services, baseURL string, log logrus.FieldLogger) *http.ServeMux {
	apiServer := api.NewServer(svcs.game, svcs.hub, log)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", newMCPHandler(mcpClient))
	return mainRouter
}

// runHTTPServer serves until ctx is done. If ngrok is enabled it also
// provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options, svcs *services, log logrus.FieldLogger) error {
	addr := opts.addr()
	mainRouter := newRouter(svcs, "http://"+addr, log)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(logrus.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, mainRouter, log)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-serveErr:
		log.WithError(err).Error("HTTP server failed")
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler, log logrus.FieldLogger) {
	if opts.ngrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.WithField("domain", opts.ngrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.WithFields(logrus.Fields{
		"rest":      ngrokURL + "/api",
		"websocket": ngrokURL + "/ws?session=<session_id>",
		"mcp":       ngrokURL + "/mcp",
	}).Infof("ngrok tunnel established: %s", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, log logrus.FieldLogger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.WithField("removed", removed).Info("cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory when their files are
// deleted from disk
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, log logrus.FieldLogger) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphans(manager, persistence, log)
		}
	}
}

func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, log logrus.FieldLogger) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.WithField("session_id", s.ID).Info("pruned session from memory (file deleted)")
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// already listening on the configured address; otherwise it serves the API
// on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts options, svcs *services, log logrus.FieldLogger) error {
	externalURL := "http://" + opts.addr()
	log.WithField("url", externalURL).Info("checking for external API server")

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		baseURL = "http://" + listener.Addr().String()
		httpServer := &http.Server{Handler: api.NewServer(svcs.game, svcs.hub, log)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.WithField("url", baseURL).Info("started internal HTTP server for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
