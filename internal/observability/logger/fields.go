package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración de una operación.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes crea un campo para un tamaño en bytes.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - MANIFESTS
// =================================================================================

// Peer crea un campo para el nombre del peer.
func Peer(v string) zap.Field {
	return zap.String("peer", v)
}

// URL crea un campo para la dirección de un manifest.
func URL(v string) zap.Field {
	return zap.String("url", v)
}

// File crea un campo para la ruta de un manifest local.
func File(v string) zap.Field {
	return zap.String("file", v)
}

// Source crea un campo para el origen de un manifest ("https" | "file" | "reader").
func Source(v string) zap.Field {
	return zap.String("source", v)
}

// KeyID crea un campo para el identificador de una clave dentro del manifest.
func KeyID(v string) zap.Field {
	return zap.String("key_id", v)
}

// Fingerprint crea un campo para el SHA-256 de una clave (nunca la clave en sí).
func Fingerprint(v string) zap.Field {
	return zap.String("key_fingerprint", v)
}

// Format crea un campo para la versión de formato de un manifest.
func Format(v uint32) zap.Field {
	return zap.Uint32("format", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
