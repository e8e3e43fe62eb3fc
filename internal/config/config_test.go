package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "wss://asset-hub-paseo.dotters.network", cfg.Chain.WSURL)
	assert.Equal(t, 15*time.Second, cfg.Chain.ConnectTimeout)
	assert.Equal(t, time.Minute, cfg.Chain.SubmitTimeout)
	assert.Equal(t, uint16(42), cfg.Chain.SS58Format)
	assert.Equal(t, int32(10), cfg.Chain.TokenDecimals)
	assert.Equal(t, 5, cfg.Chain.CollectionMaxAttempt)
	assert.Equal(t, 100, cfg.Chain.TokenMaxAttempt)
	assert.Equal(t, "pinata", cfg.Pinning.Provider)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "8080"
  mode: release
jwt:
  secret: "0123456789abcdef0123456789abcdef"
  expire_hours: 2
chain:
  collection_id: 4242
  collection_settle: 500ms
pinning:
  provider: none
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("NFT_ADMIN_MNEMONIC", "bottom drive obey lake curtain smoke basket hold race lonely fit walk")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, uint32(4242), cfg.Chain.CollectionID)
	assert.Equal(t, 500*time.Millisecond, cfg.Chain.CollectionSettle)
	assert.Equal(t, "none", cfg.Pinning.Provider)
	assert.Contains(t, cfg.Chain.AdminMnemonic, "bottom drive")
	assert.Equal(t, dir, cfg.Dir)
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"mysql without dsn", "database:\n  driver: mysql\n"},
		{"unknown pinning provider", "pinning:\n  provider: s3\n"},
		{"short secret in release", "server:\n  mode: release\njwt:\n  secret: short\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.yaml), 0o644))

			_, err := LoadConfig(dir)
			assert.Error(t, err)
		})
	}
}
