package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHAT_STORE_CONFIG", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "./data/chat.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, "8083", cfg.Server.Port)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat-store.yaml")
	content := `
server:
  port: "9000"
  cors_allowed_origins: ["tauri://localhost"]
database:
  driver: postgres
  dsn: ${TEST_PG_DSN}
audit:
  exchange: audit.x
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CHAT_STORE_CONFIG", path)
	t.Setenv("TEST_PG_DSN", "postgres://u:p@localhost/chat?sslmode=disable")
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost/chat?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"tauri://localhost"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "audit.x", cfg.Audit.Exchange)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "  "
	require.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
