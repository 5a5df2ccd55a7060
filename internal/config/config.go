package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		// debug | info | warn | error
		Level string `yaml:"level"`
	} `yaml:"log"`

	Manifest struct {
		// Base de las direcciones de peers: <base_url>/<peer>/specific-manifest.json
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"manifest"`

	Cache struct {
		Kind  string        `yaml:"kind"` // none | memory | redis
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Server struct {
		Addr string `yaml:"addr"`
		// Directorio con <peer>/specific-manifest.json a publicar.
		ManifestDir string `yaml:"manifest_dir"`
		// Certificado y clave PEM; ambos o ninguno. Sin ellos se sirve HTTP
		// plano y hace falta un proxy que termine TLS delante.
		TLSCert string `yaml:"tls_cert"`
		TLSKey  string `yaml:"tls_key"`
	} `yaml:"server"`
}

// Load lee path (si no es vacío), aplica overrides de entorno, defaults y valida.
// Load("") retorna defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		// Paths relativos del YAML son relativos al directorio del YAML;
		// los de entorno y defaults quedan relativos al cwd.
		base := filepath.Dir(path)
		c.Server.ManifestDir = rebase(base, c.Server.ManifestDir)
		c.Server.TLSCert = rebase(base, c.Server.TLSCert)
		c.Server.TLSKey = rebase(base, c.Server.TLSKey)
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	// Validation
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func rebase(dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(dir, p))
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Manifest.Timeout == 0 {
		c.Manifest.Timeout = 30 * time.Second
	}
	if c.Manifest.UserAgent == "" {
		c.Manifest.UserAgent = "peermanifest/1"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "none"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "peermanifest"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ManifestDir == "" {
		c.Server.ManifestDir = "./manifests"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// MANIFEST
	if v, ok := getEnvStr("MANIFEST_BASE_URL"); ok {
		c.Manifest.BaseURL = v
	}
	if v, ok := getEnvDur("MANIFEST_TIMEOUT"); ok {
		c.Manifest.Timeout = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvDur("CACHE_TTL"); ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("MANIFEST_DIR"); ok {
		c.Server.ManifestDir = v
	}
	if v, ok := getEnvStr("SERVER_TLS_CERT"); ok {
		c.Server.TLSCert = v
	}
	if v, ok := getEnvStr("SERVER_TLS_KEY"); ok {
		c.Server.TLSKey = v
	}
}

// Validate junta todos los problemas en un único error.
func (c *Config) Validate() error {
	var errs []error

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	if b := strings.TrimSpace(c.Manifest.BaseURL); b != "" {
		u, err := url.Parse(b)
		if err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("manifest.base_url: %q is not an absolute URL", b))
		}
	}
	if c.Manifest.Timeout < 0 {
		errs = append(errs, errors.New("manifest.timeout: must be >= 0"))
	}

	switch c.Cache.Kind {
	case "none", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind: unknown kind %q (none|memory|redis)", c.Cache.Kind))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl: must be >= 0"))
	}
	if c.Cache.Redis.DB < 0 {
		errs = append(errs, errors.New("cache.redis.db: must be >= 0"))
	}

	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, errors.New("server.tls_cert/server.tls_key: set both or neither"))
	}

	return errors.Join(errs...)
}
