// Package pemkey decodifica claves públicas en armadura PEM y valida el
// contenedor SubjectPublicKeyInfo (PKIX) de una clave ECDSA P-256.
//
// Todas las funciones son puras: no hacen I/O y para la misma entrada
// devuelven siempre el mismo resultado o el mismo tipo de error.
package pemkey

import (
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// PublicKeyTag es la etiqueta PEM del contenedor SPKI genérico.
const PublicKeyTag = "PUBLIC KEY"

// ErrPEMParse indica que la armadura PEM está mal formada.
var ErrPEMParse = errors.New("pemkey: malformed PEM")

// Block es el resultado de quitar la armadura PEM: la etiqueta y el payload binario.
type Block struct {
	Tag      string
	Contents []byte
}

// Decode quita la armadura PEM de s.
// Se exige exactamente un bloque, sin headers y sin texto fuera del bloque.
func Decode(s string) (Block, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "-----BEGIN ") {
		return Block{}, fmt.Errorf("%w: missing BEGIN line", ErrPEMParse)
	}

	block, rest := pem.Decode([]byte(trimmed))
	if block == nil {
		// pem.Decode no distingue entre base64 inválido, END faltante o etiquetas distintas.
		return Block{}, fmt.Errorf("%w: no decodable block", ErrPEMParse)
	}
	if len(strings.TrimSpace(string(rest))) > 0 {
		return Block{}, fmt.Errorf("%w: trailing data after END line", ErrPEMParse)
	}
	if len(block.Headers) > 0 {
		return Block{}, fmt.Errorf("%w: unexpected headers in %q block", ErrPEMParse, block.Type)
	}

	return Block{Tag: block.Type, Contents: block.Bytes}, nil
}

// Encode arma un bloque PEM. Se usa para publicar y testear manifests.
func Encode(tag string, contents []byte) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: tag, Bytes: contents}))
}
