// Command gateway runs the websocket gateway. Browser clients connect to
// /ws; the gateway stamps each with a local identity and fans their
// commands onto one router connection.
//
// A dropped router connection is fatal to the process; the supervisor is
// expected to restart it.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/darkwire-games/darkwire/config"
	"github.com/darkwire-games/darkwire/protocol"
	"github.com/darkwire-games/darkwire/transport"
	"github.com/darkwire-games/darkwire/transport/websocket"
)

func main() {
	cmd := &cli.Command{
		Name:      "gateway",
		Usage:     "run the websocket gateway",
		ArgsUsage: "[router-addr] [ws-bind]",
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
	wsBind := cfg.GatewayBind
	if addr := cmd.Args().Get(1); addr != "" {
		wsBind = addr
	}

	gw := websocket.NewGateway()

	client, err := transport.Dial(ctx, routerAddr, protocol.FlavorGateway, gw.HandleFrame)
	if err != nil {
		return fmt.Errorf("dial router: %w", err)
	}
	gw.Bind(client)
	log.Printf("gateway connected to router at %s", routerAddr)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.ServeWS)
	wsServer := &http.Server{
		Addr:        wsBind,
		Handler:     mux,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		log.Printf("websocket clients on ws://%s/ws", wsBind)
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("websocket server: %v", err)
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

	gw.Close()
	client.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsServer.Shutdown(shutdownCtx)
	return nil
}
