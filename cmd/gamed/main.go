// Command gamed runs the authoritative session engine. It dials the router,
// announces itself as the game service, and serves the read-only ops API
// (with an /mcp endpoint) on the side.
//
// A dropped router connection is fatal to the process; the supervisor is
// expected to restart it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
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
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/transport/mcp"
)

func main() {
	cmd := &cli.Command{
		Name:      "gamed",
		Usage:     "run the session engine service",
		ArgsUsage: "[router-addr] [ops-bind]",
		Action:    run,
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
	routerAddr := cfg.RouterAddr
	if addr := cmd.Args().Get(0); addr != "" {
		routerAddr = addr
	}
	opsBind := cfg.OpsBind
	if addr := cmd.Args().Get(1); addr != "" {
		opsBind = addr
	}

	catalog, err := content.Resolve(cfg.ContentDir, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	sessions := session.NewManager(catalog)
	svc := service.New(sessions)

	client, err := transport.Dial(ctx, routerAddr, protocol.FlavorGame, svc.Handle)
	if err != nil {
		return fmt.Errorf("dial router: %w", err)
	}
	svc.Bind(client)
	log.Printf("gamed connected to router at %s", routerAddr)

	opsServer := &http.Server{
		Addr:         opsBind,
		Handler:      opsHandler(sessions, opsBind),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("ops API on http://%s", opsBind)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ops server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("received %v, shutting down", sig)
	case <-client.Done():
		log.Printf("router connection lost")
	case <-client.ShutdownRequested():
		log.Printf("shutdown requested over the wire")
	}

	client.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opsServer.Shutdown(shutdownCtx)
	return nil
}

// opsHandler mounts the ops API at the root and an MCP endpoint at /mcp.
// The MCP client proxies back into this same server over loopback HTTP.
func opsHandler(sessions *session.Manager, opsBind string) http.Handler {
	reg := prometheus.NewRegistry()
	apiServer := api.NewServer(sessions, reg)
	mcpClient := mcp.NewClient("http://" + opsBind)

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
