package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-sufficiently-long-secret"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, int64(64<<10), config.Server.MaxBodyBytes)
	assert.Equal(t, 5*time.Second, config.Sandbox.StatementTimeout)
	assert.Equal(t, 100, config.Sandbox.PreviewRowLimit)
	assert.Equal(t, "solutions", config.Solutions.Schema)
	assert.Equal(t, 10, config.Solutions.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, config.Solutions.ConnMaxLifetime)
	assert.Equal(t, 10, config.Leaderboard.CacheSize)
	assert.Equal(t, 3*time.Second, config.Leaderboard.CacheTTL)
	assert.Equal(t, 25, config.Leaderboard.FeedLimit)
	assert.Equal(t, time.Hour, config.Leaderboard.MaxSolveTime)
	assert.Equal(t, 5*time.Minute, config.Leaderboard.IncorrectPenalty)
	assert.False(t, config.Seed.DemoData)
	assert.Equal(t, config.Server.Environment, config.Telemetry.Environment)
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090
allowed_origins = ["https://dojo.example"]

[jwt]
secret = "file-secret-that-is-long"

[solutions]
max_open_conns = 4
max_idle_conns = 1
conn_max_lifetime_secs = 60

[leaderboard]
feed_limit = 50
cache_ttl_secs = 10

[seed]
demo_data = true
`), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SOLUTIONS_MAX_IDLE_CONNS", "3")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, []string{"https://dojo.example"}, config.Server.AllowedOrigins)
	assert.Equal(t, "file-secret-that-is-long", config.JWT.SecretKey)
	assert.Equal(t, 50, config.Leaderboard.FeedLimit)
	assert.Equal(t, 10*time.Second, config.Leaderboard.CacheTTL)
	assert.True(t, config.Seed.DemoData)
	assert.Equal(t, 4, config.Solutions.MaxOpenConns)
	assert.Equal(t, 3, config.Solutions.MaxIdleConns)
	assert.Equal(t, time.Minute, config.Solutions.ConnMaxLifetime)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "short secret", env: map[string]string{"JWT_SECRET": "short"}},
		{name: "port out of range", env: map[string]string{"JWT_SECRET": testSecret, "SERVER_PORT": "70000"}},
		{name: "tiny statement timeout", env: map[string]string{"JWT_SECRET": testSecret, "CONTESTANT_STATEMENT_TIMEOUT_MS": "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestSandboxDSN(t *testing.T) {
	config := SandboxConfig{
		Host:             "db",
		Port:             5432,
		User:             "contestant",
		SSLMode:          "disable",
		StatementTimeout: 5 * time.Second,
	}
	assert.Equal(t,
		"host=db port=5432 user=contestant password='' dbname='employees' sslmode=disable statement_timeout=5000",
		config.DSN("employees"),
	)

	config.Password = `it's a \secret`
	assert.Contains(t, config.DSN("employees"), `password='it\'s a \\secret'`)
}
