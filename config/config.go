// Package config loads service configuration from the environment.
//
// Every service binary reads the same Config struct; unused fields cost
// nothing. A .env file in the working directory is honored when present so
// development setups need no exported variables. Positional command-line
// addresses override whatever the environment provides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries the addresses and content settings shared by the service
// binaries.
type Config struct {
	// RouterBind is the address the router hub listens on.
	RouterBind string `env:"DARKWIRE_ROUTER_BIND" envDefault:"127.0.0.1:7310"`

	// RouterAddr is the address services dial to reach the router.
	RouterAddr string `env:"DARKWIRE_ROUTER_ADDR" envDefault:"127.0.0.1:7310"`

	// OpsBind is the address the ops HTTP server listens on.
	OpsBind string `env:"DARKWIRE_OPS_BIND" envDefault:"127.0.0.1:7311"`

	// GatewayBind is the address the websocket gateway listens on.
	GatewayBind string `env:"DARKWIRE_GATEWAY_BIND" envDefault:"127.0.0.1:7312"`

	// ContentDir is the directory holding catalog JSON files. Empty means
	// the built-in catalog.
	ContentDir string `env:"DARKWIRE_CONTENT_DIR"`

	// Catalog names the catalog file (without extension) to load from
	// ContentDir.
	Catalog string `env:"DARKWIRE_CATALOG" envDefault:"catalog"`
}

// Load reads a .env file when one exists, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}
