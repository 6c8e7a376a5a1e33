// Command codeshare starts the CodeShare collaboration server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the
//     collaboration WebSocket, Prometheus metrics, and an /mcp HTTP endpoint
//  2. "mcp-stdio" – runs an MCP stdio server and spins up an internal HTTP
//     API if none is available
//
// Flags control host/port, the session grace period, share-link base URL,
// debug logging, and optional ngrok tunneling so a session link can be
// handed to collaborators outside the local network.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/codeshare/server/api"
	"github.com/codeshare/server/editor/service"
	"github.com/codeshare/server/editor/session"
	"github.com/codeshare/server/transport/mcp"
	"github.com/codeshare/server/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "CodeShare Collaboration Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := newRootCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newRootCommand builds the CLI. The default action runs the HTTP server;
// "mcp-stdio" runs the MCP interface over stdio.
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "codeshare",
		Usage:   "realtime collaborative code editing server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("CODESHARE_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("CODESHARE_PORT"),
			},
			&cli.DurationFlag{
				Name:    "session-grace",
				Value:   session.DefaultGracePeriod,
				Usage:   "how long an abandoned session survives before deletion",
				Sources: cli.EnvVars("CODESHARE_SESSION_GRACE"),
			},
			&cli.StringFlag{
				Name:    "share-base-url",
				Usage:   "base URL used in share links (defaults to the server address)",
				Sources: cli.EnvVars("CODESHARE_SHARE_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Usage:   "directory for session snapshots so documents survive restarts (empty disables persistence)",
				Sources: cli.EnvVars("CODESHARE_SESSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Action: runServer,
			},
			{
				Name:    "mcp-stdio",
				Aliases: []string{"mcp"},
				Usage:   "run the MCP stdio server",
				Action:  runMCPStdio,
			},
		},
	}
}

// initializeServices wires the session store, reaper, hub, and editor
// service together. If sessionsDir is non-empty, previously persisted
// sessions are restored and future mutations are mirrored to disk.
func initializeServices(grace time.Duration, shareBase, sessionsDir string) (service.EditorService, *websocket.Hub, error) {
	store := session.NewStore()
	hub := websocket.NewHub(store)
	reaper := session.NewReaper(store, grace, hub)
	hub.SetReaper(reaper)

	if sessionsDir != "" {
		persistence, err := session.NewFilePersistence(sessionsDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up session persistence: %w", err)
		}
		store.SetPersistence(persistence)

		restored, err := store.Restore()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to restore sessions: %w", err)
		}
		if restored > 0 {
			log.Printf("Restored %d persisted sessions from %s", restored, sessionsDir)
		}

		// Restored sessions have no participants yet; give each the normal
		// grace period before it is reclaimed.
		for _, sum := range store.List() {
			reaper.Schedule(sum.ID)
		}
	}

	return service.NewEditorService(store, hub, reaper, shareBase), hub, nil
}

// runServer starts the HTTP server with the REST API, the collaboration
// WebSocket, and an /mcp proxy endpoint. If ngrok is enabled it also
// provisions a public tunnel and rewrites the share-link base to the tunnel
// URL.
func runServer(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	baseURL := fmt.Sprintf("http://%s", addr)

	shareBase := cmd.String("share-base-url")
	if shareBase == "" {
		shareBase = baseURL
	}

	log.Printf("Starting %s v%s", AppName, Version)

	editorService, hub, err := initializeServices(cmd.Duration("session-grace"), shareBase, cmd.String("sessions-dir"))
	if err != nil {
		return err
	}
	apiServer := api.NewServer(editorService, hub)

	// Create MCP client for the /mcp endpoint
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("Metrics: http://%s/metrics", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()

			authToken := cmd.String("ngrok-auth")
			if authToken == "" {
				log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
				return
			}

			log.Println("Starting ngrok tunnel...")

			var tunnel ngrokConfig.Tunnel
			if domain := cmd.String("ngrok-domain"); domain != "" {
				tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
				log.Printf("Using custom ngrok domain: %s", domain)
			} else {
				tunnel = ngrokConfig.HTTPEndpoint()
			}

			tun, err := ngrok.Listen(serverCtx,
				tunnel,
				ngrok.WithAuthtoken(authToken),
			)
			if err != nil {
				log.Printf("Failed to start ngrok tunnel: %v", err)
				return
			}
			defer func() {
				if err := tun.Close(); err != nil {
					log.Printf("Failed to close ngrok tunnel: %v", err)
				}
			}()

			ngrokURL := tun.URL()
			log.Printf("Ngrok tunnel established: %s", ngrokURL)
			log.Printf("  Share links now use %s", ngrokURL)

			// Hand out tunnel URLs so collaborators outside the local
			// network can join.
			service.SetShareBaseURL(editorService, ngrokURL)

			if err := http.Serve(tun, mainRouter); err != nil && err != http.ErrServerClosed {
				log.Printf("Ngrok server error: %v", err)
			}
			log.Println("Ngrok tunnel closed")
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runMCPStdio runs an MCP stdio server. It tries to reuse an external API at
// http://localhost:8080; if unavailable, it starts a minimal internal HTTP
// API bound to a random loopback port and targets that.
func runMCPStdio(ctx context.Context, cmd *cli.Command) error {
	var baseURL string

	externalURL := fmt.Sprintf("http://localhost:%d", int(cmd.Int("port")))
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/healthz")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		editorService, hub, err := initializeServices(cmd.Duration("session-grace"), fmt.Sprintf("http://%s", internalAddr), cmd.String("sessions-dir"))
		if err != nil {
			return err
		}
		apiServer := api.NewServer(editorService, hub)

		httpServer := &http.Server{Handler: apiServer}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		// Wait a moment for the server to be ready
		time.Sleep(100 * time.Millisecond)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	log.Println("MCP stdio server ready")
	if err := mcpserver.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
