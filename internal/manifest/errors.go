package manifest

import (
	"errors"
	"fmt"
)

// Kind es la categoría estable de un error de carga o resolución.
// Los callers deberían ramificar por Kind, no por el texto del error.
type Kind string

const (
	KindRetrieval           Kind = "retrieval"             // red o archivo inaccesible
	KindAddress             Kind = "address"               // base/peer/esquema inválidos
	KindSchema              Kind = "schema"                // el JSON no tiene la forma esperada
	KindUnsupportedFormat   Kind = "unsupported_format"    // forma válida, format != 0
	KindUnknownKey          Kind = "unknown_key"           // identificador ausente
	KindPEMParse            Kind = "pem_parse"             // armadura PEM mal formada
	KindWrongPEMTag         Kind = "wrong_pem_tag"         // etiqueta distinta de PUBLIC KEY
	KindTruncatedKey        Kind = "truncated_key"         // menos bytes que el prefijo SPKI
	KindUnrecognizedKeyType Kind = "unrecognized_key_type" // prefijo SPKI distinto de P-256
)

// Error es el error estructurado del paquete.
// Message es para humanos y nunca incluye bytes de claves.
type Error struct {
	Kind    Kind
	KeyID   string // vacío si el error no es de una clave
	Format  uint32 // sólo KindUnsupportedFormat: la versión recibida
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest: %s: %v", e.Message, e.Err)
	}
	return "manifest: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, keyID string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, KeyID: keyID, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf retorna el Kind de err, o "" si no es (ni envuelve) un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reporta si err es (o envuelve) un *Error del kind dado.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
