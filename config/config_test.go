package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7310", cfg.RouterBind)
	assert.Equal(t, "127.0.0.1:7310", cfg.RouterAddr)
	assert.Equal(t, "127.0.0.1:7311", cfg.OpsBind)
	assert.Equal(t, "127.0.0.1:7312", cfg.GatewayBind)
	assert.Equal(t, "", cfg.ContentDir)
	assert.Equal(t, "catalog", cfg.Catalog)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DARKWIRE_ROUTER_ADDR", "10.0.0.5:9000")
	t.Setenv("DARKWIRE_CONTENT_DIR", "/srv/content")
	t.Setenv("DARKWIRE_CATALOG", "season2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:9000", cfg.RouterAddr)
	assert.Equal(t, "/srv/content", cfg.ContentDir)
	assert.Equal(t, "season2", cfg.Catalog)
	assert.Equal(t, "127.0.0.1:7310", cfg.RouterBind, "untouched fields keep defaults")
}
