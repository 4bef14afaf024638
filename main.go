// Command darkwire runs the whole stack in one process: router hub, session
// engine, websocket gateway, and the ops API with its /mcp endpoint. This is
// the development mode; production deployments run the cmd/ binaries as
// separate processes.
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
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/darkwire-games/darkwire/api"
	"github.com/darkwire-games/darkwire/config"
	"github.com/darkwire-games/darkwire/game/content"
	"github.com/darkwire-games/darkwire/game/service"
	"github.com/darkwire-games/darkwire/game/session"
	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/router"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/transport/mcp"
	"github.com/darkwire-games/darkwire/transport/websocket"
)

const (
	Version = "1.0.0"
	AppName = "Darkwire Server"
)

func main() {
	cmd := &cli.Command{
		Name:    "darkwire",
		Usage:   "run router, engine, gateway and ops API in one process",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "content-dir",
				Usage: "catalog directory (empty uses the built-in catalog)",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "catalog name to load from the content directory",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dir := cmd.String("content-dir"); dir != "" {
		cfg.ContentDir = dir
	}
	if name := cmd.String("catalog"); name != "" {
		cfg.Catalog = name
	}

	log.Printf("starting %s v%s", AppName, Version)
	s, err := startStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	log.Printf("router on %s", s.RouterAddr())
	log.Printf("ops API on http://%s", s.OpsAddr())
	log.Printf("websocket clients on ws://%s/ws", s.GatewayAddr())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("received %v, shutting down", sig)
	case <-s.engineClient.Done():
		log.Printf("engine lost its router connection")
	case <-s.engineClient.ShutdownRequested():
		log.Printf("shutdown requested over the wire")
	}
	return nil
}

// stack is every service of a single-process deployment, wired over
// loopback TCP exactly as the split binaries would be.
type stack struct {
	hub           *router.Hub
	routerL       net.Listener
	sessions      *session.Manager
	engineClient  *transport.Client
	gatewayClient *transport.Client
	gw            *websocket.Gateway
	opsServer     *http.Server
	opsL          net.Listener
	wsServer      *http.Server
	wsL           net.Listener
}

// startStack brings up the router first, then connects the engine and the
// gateway to it, then exposes the HTTP surfaces.
func startStack(ctx context.Context, cfg config.Config) (*stack, error) {
	catalog, err := content.Resolve(cfg.ContentDir, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	s := &stack{}

	s.routerL, err = net.Listen("tcp", cfg.RouterBind)
	if err != nil {
		return nil, fmt.Errorf("listen router: %w", err)
	}
	reg := prometheus.NewRegistry()
	s.hub = router.NewHub(router.WithMetrics(router.NewMetrics(reg)))
	go s.hub.Serve(s.routerL)

	routerAddr := s.routerL.Addr().String()

	s.sessions = session.NewManager(catalog)
	svc := service.New(s.sessions)
	s.engineClient, err = transport.Dial(ctx, routerAddr, protocol.FlavorGame, svc.Handle)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("dial router (engine): %w", err)
	}
	svc.Bind(s.engineClient)

	s.gw = websocket.NewGateway()
	s.gatewayClient, err = transport.Dial(ctx, routerAddr, protocol.FlavorGateway, s.gw.HandleFrame)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("dial router (gateway): %w", err)
	}
	s.gw.Bind(s.gatewayClient)

	s.opsL, err = net.Listen("tcp", cfg.OpsBind)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen ops: %w", err)
	}
	s.opsServer = &http.Server{
		Handler:      opsHandler(s.sessions, reg, s.opsL.Addr().String()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go s.opsServer.Serve(s.opsL)

	s.wsL, err = net.Listen("tcp", cfg.GatewayBind)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen gateway: %w", err)
	}
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", s.gw.ServeWS)
	s.wsServer = &http.Server{
		Handler:     wsMux,
		IdleTimeout: 60 * time.Second,
	}
	go s.wsServer.Serve(s.wsL)

	return s, nil
}

func (s *stack) RouterAddr() string  { return s.routerL.Addr().String() }
func (s *stack) OpsAddr() string     { return s.opsL.Addr().String() }
func (s *stack) GatewayAddr() string { return s.wsL.Addr().String() }

// Close tears the stack down from the outside in.
func (s *stack) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.wsServer != nil {
		s.wsServer.Shutdown(shutdownCtx)
	}
	if s.opsServer != nil {
		s.opsServer.Shutdown(shutdownCtx)
	}
	if s.gw != nil {
		s.gw.Close()
	}
	if s.gatewayClient != nil {
		s.gatewayClient.Close()
	}
	if s.engineClient != nil {
		s.engineClient.Close()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.routerL != nil {
		s.routerL.Close()
	}
}

// opsHandler mounts the ops API at the root and an MCP endpoint at /mcp.
// The MCP client proxies back into this same server over loopback HTTP.
func opsHandler(sessions *session.Manager, reg *prometheus.Registry, opsAddr string) http.Handler {
	apiServer := api.NewServer(sessions, reg)
	mcpClient := mcp.NewClient("http://" + opsAddr)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(data)
	})
	return mux
}
