package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "admin-user")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.RestPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, "admin-user", cfg.AdminID)
	assert.Equal(t, AuditNone, cfg.AuditBackend)
	assert.Equal(t, "localhost", cfg.Tarantool.Host)
	assert.Equal(t, "3301", cfg.Tarantool.Port)
	assert.Equal(t, 3*time.Second, cfg.Tarantool.Timeout)
}

func TestNewReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("AUDIT_BACKEND=bolt\nAUDIT_BOLT_DIR=/var/lib/election\nCHANNEL_ID=town-square\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv("AUDIT_BACKEND")
		os.Unsetenv("AUDIT_BOLT_DIR")
		os.Unsetenv("CHANNEL_ID")
	})

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, AuditBolt, cfg.AuditBackend)
	assert.Equal(t, "/var/lib/election", cfg.AuditBoltDir)
	assert.Equal(t, "town-square", cfg.ChannelID)
}

func TestValidate(t *testing.T) {
	cfg := Config{AuditBackend: "kafka"}
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownAuditBackend)

	cfg.AuditBackend = AuditTarantool
	assert.NoError(t, cfg.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
