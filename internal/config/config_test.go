package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv deja vacías las variables que Load lee; t.Setenv restaura al final.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "MANIFEST_BASE_URL", "MANIFEST_TIMEOUT",
		"CACHE_KIND", "CACHE_TTL", "REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "REDIS_PREFIX",
		"SERVER_ADDR", "MANIFEST_DIR", "SERVER_TLS_CERT", "SERVER_TLS_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, 30*time.Second, c.Manifest.Timeout)
	require.Equal(t, "none", c.Cache.Kind)
	require.Equal(t, 5*time.Minute, c.Cache.TTL)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "./manifests", c.Server.ManifestDir)
	require.Empty(t, c.Server.TLSCert)
	require.Empty(t, c.Manifest.BaseURL)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
log:
  level: debug
manifest:
  base_url: https://peers.example.com/manifests
  timeout: 10s
cache:
  kind: memory
  ttl: 1m
  redis:
    addr: redis:6379
    db: 2
server:
  addr: ":9090"
  manifest_dir: published
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", c.App.Env)
	require.Equal(t, "debug", c.Log.Level)
	require.Equal(t, "https://peers.example.com/manifests", c.Manifest.BaseURL)
	require.Equal(t, 10*time.Second, c.Manifest.Timeout)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, time.Minute, c.Cache.TTL)
	require.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	require.Equal(t, 2, c.Cache.Redis.DB)
	require.Equal(t, filepath.Join(dir, "published"), c.Server.ManifestDir)

	t.Setenv("CACHE_KIND", "REDIS")
	t.Setenv("MANIFEST_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("MANIFEST_BASE_URL", "https://other.example.com")
	c, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "redis", c.Cache.Kind)
	require.Equal(t, 3*time.Second, c.Manifest.Timeout)
	require.Equal(t, 5, c.Cache.Redis.DB)
	require.Equal(t, "https://other.example.com", c.Manifest.BaseURL)
}

func TestLoad_RelativePathsOnlyRebasedFromYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  manifest_dir: published
  tls_cert: tls/cert.pem
  tls_key: /etc/peermanifest/key.pem
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "published"), c.Server.ManifestDir)
	require.Equal(t, filepath.Join(dir, "tls", "cert.pem"), c.Server.TLSCert)
	require.Equal(t, "/etc/peermanifest/key.pem", c.Server.TLSKey)

	// Entorno: relativo al cwd, no al YAML.
	t.Setenv("MANIFEST_DIR", "from-env")
	c, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", c.Server.ManifestDir)

	// Default: también relativo al cwd.
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("log:\n  level: warn\n"), 0o600))
	clearEnv(t)
	c, err = Load(empty)
	require.NoError(t, err)
	require.Equal(t, "./manifests", c.Server.ManifestDir)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("CACHE_KIND", "memcached")
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache.kind")
	require.Contains(t, err.Error(), "log.level")

	clearEnv(t)
	t.Setenv("MANIFEST_BASE_URL", "not a url")
	_, err = Load("")
	require.ErrorContains(t, err, "manifest.base_url")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	clearEnv(t)
	t.Setenv("SERVER_TLS_CERT", "cert.pem")
	_, err = Load("")
	require.ErrorContains(t, err, "server.tls_cert")
	clearEnv(t)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("manifest: [unclosed"), 0o600))
	_, err = Load(bad)
	require.ErrorContains(t, err, "config: parse")
}
