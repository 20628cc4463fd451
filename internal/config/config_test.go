package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.True(t, cfg.DatabaseEnabled)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 6, cfg.Patrol.CutoverHour)
	assert.Equal(t, 420, cfg.Patrol.UTCOffsetMinutes)
	assert.Equal(t, "patrol:inspections", cfg.Patrol.EventStream)
	assert.False(t, cfg.Patrol.NotifyEnabled)
	assert.Equal(t, "satpam", cfg.Patrol.TopicPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PATROL_CUTOVER_HOUR", "7")
	t.Setenv("PATROL_UTC_OFFSET_MINUTES", "480")
	t.Setenv("PATROL_NOTIFY_ENABLED", "true")
	t.Setenv("IDENTITY_BASE_URL", "http://identity:8080")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.False(t, cfg.DatabaseEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 7, cfg.Patrol.CutoverHour)
	assert.Equal(t, 480, cfg.Patrol.UTCOffsetMinutes)
	assert.True(t, cfg.Patrol.NotifyEnabled)
	assert.Equal(t, "http://identity:8080", cfg.Identity.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patrol.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7000"
database_enabled: false
patrol:
  cutover_hour: 5
  topic_prefix: "site-a"
log:
  format: console
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PATROL_CUTOVER_HOUR", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.False(t, cfg.DatabaseEnabled)
	// 环境变量覆盖文件
	assert.Equal(t, 8, cfg.Patrol.CutoverHour)
	assert.Equal(t, "site-a", cfg.Patrol.TopicPrefix)
	assert.Equal(t, "console", cfg.Log.Format)
	// 文件未设置的字段保留默认值
	assert.Equal(t, 420, cfg.Patrol.UTCOffsetMinutes)
}

func TestLoad_FileErrors(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patrol: [1, 2"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Patrol.CutoverHour = 24
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Patrol.UTCOffsetMinutes = -900
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Patrol.NotifyEnabled = true
	cfg.Patrol.EventStream = ""
	assert.Error(t, cfg.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_BOOL", "1")

	assert.Equal(t, "test-value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default-value", getEnv("NON_EXISTENT_VAR", "default-value"))
	assert.Equal(t, 3, getEnvInt("TEST_INT", 3))
	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.False(t, getEnvBool("NON_EXISTENT_VAR", false))
}
