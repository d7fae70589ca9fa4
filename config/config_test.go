package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cropadvisor/logger"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
database:
  driver: sqlite
  dsn: ":memory:"
model:
  path: ml/testdata/crop_model.json
cache:
  news_ttl: 5m
`), 0o644))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("NEWS_API_KEY", "news-key")
	t.Setenv("ASSISTANT_PROVIDER", "openai")
	t.Setenv("ASSISTANT_API_KEY", "llm-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "news-key", cfg.News.APIKey)
	assert.Equal(t, 5*time.Minute, cfg.Cache.NewsTTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.WeatherTTL)
	assert.Equal(t, AssistantOpenAI, cfg.Assistant.Provider)
	assert.Equal(t, "llm-key", cfg.Assistant.APIKey)
	assert.Equal(t, 512, cfg.Assistant.MaxTokens)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "root:root@tcp(127.0.0.1:3306)/cropadvisor?parseTime=true&charset=utf8mb4", cfg.Database.DataSourceName())
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Mode = "release"
	assert.ErrorContains(t, cfg.Validate(), "jwt_secret")

	cfg = Default()
	cfg.Server.Mode = "staging"
	assert.ErrorContains(t, cfg.Validate(), "server mode")

	cfg = Default()
	cfg.Database = DatabaseConfig{Driver: DriverSQLite}
	assert.ErrorContains(t, cfg.Validate(), "dsn")

	cfg = Default()
	cfg.Assistant.Provider = "gemini"
	assert.ErrorContains(t, cfg.Validate(), "assistant provider")
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := InitDB(DatabaseConfig{Driver: DriverSQLite, DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, DriverSQLite, logger.Nop()))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM migrations"))
	assert.Equal(t, len(getMigrations()), count)
}
