package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"-config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "kanbanlite_sess", cfg.SessionCookie)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "lax", cfg.CookieSameSite)
}

func TestLoadConfigYAMLThenEnvThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kanbanlite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":9000\"\nsession_ttl: 1h\ninvite_secret: yaml-secret\n"), 0o600))

	t.Setenv("INVITE_SECRET", "env-secret")

	cfg, err := LoadConfig([]string{"-config", path, "-a", ":7777"})
	require.NoError(t, err)
	// flag beats yaml, env beats yaml, untouched yaml values survive
	assert.Equal(t, ":7777", cfg.Addr)
	assert.Equal(t, "env-secret", cfg.InviteSecret)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoadConfigBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kanbanlite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o600))

	_, err := LoadConfig([]string{"-config", path})
	assert.Error(t, err)
}
