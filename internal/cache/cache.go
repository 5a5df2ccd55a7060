// Package cache provee un cache de bytes con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, go-cache)
//   - Redis (compartido entre réplicas)
//
// Lo usa peers.Directory para guardar documentos de manifest ya validados.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, se usa el TTL por defecto del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error
}

// Backends soportados.
const (
	KindNone   = "none"
	KindMemory = "memory"
	KindRedis  = "redis"
)

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind string        // "none" | "memory" | "redis"
	TTL  time.Duration // TTL por defecto

	Redis RedisConfig
}

// RedisConfig se ignora salvo Kind == "redis".
type RedisConfig struct {
	Addr     string
	DB       int
	Password string
	Prefix   string // Prefijo para todas las keys
}

// ErrNotFound se retorna cuando la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
// Kind "none" (o vacío) retorna (nil, nil): los callers tratan nil como "sin cache".
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case KindNone, "":
		return nil, nil
	case KindMemory:
		return NewMemory(cfg.TTL), nil
	case KindRedis:
		return NewRedis(cfg.Redis, cfg.TTL)
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Kind)
	}
}
