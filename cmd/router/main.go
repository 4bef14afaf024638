// Command router runs the standalone frame router hub. Services and
// gateways dial it, announce their flavor, and exchange routed frames; the
// hub itself carries no game logic.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/darkwire-games/darkwire/config"
	"github.com/darkwire-games/darkwire/router"
)

func main() {
	cmd := &cli.Command{
		Name:      "router",
		Usage:     "run the frame router hub",
		ArgsUsage: "[bind-addr]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "serve Prometheus metrics on this address (empty disables)",
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
	bind := cfg.RouterBind
	if addr := cmd.Args().First(); addr != "" {
		bind = addr
	}

	reg := prometheus.NewRegistry()
	hub := router.NewHub(router.WithMetrics(router.NewMetrics(reg)))

	l, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", bind, err)
	}
	log.Printf("router listening on %s", bind)

	if metricsAddr := cmd.String("metrics"); metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Printf("metrics on http://%s/metrics", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Printf("received %v, shutting down", sig)
		hub.Close()
		l.Close()
	}()

	if err := hub.Serve(l); err != nil {
		log.Printf("router stopped: %v", err)
	}
	return nil
}
