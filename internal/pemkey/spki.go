package pemkey

import (
	"bytes"
	"errors"
	"fmt"
)

// P256PrefixLen es el largo del prefijo ASN.1 fijo de un SPKI ECDSA P-256.
const P256PrefixLen = 26

// P256SPKILen es el largo total esperado: prefijo + punto sin comprimir de 65 bytes.
const P256SPKILen = P256PrefixLen + 65

// p256SPKIPrefix es el DER de:
//
//	SEQUENCE {
//	  SEQUENCE { OID ecPublicKey (1.2.840.10045.2.1), OID prime256v1 (1.2.840.10045.3.1.7) }
//	  BIT STRING (66 bytes, 0 unused bits) ...
//	}
//
// Cualquier SPKI P-256 con punto sin comprimir empieza exactamente con estos bytes.
var p256SPKIPrefix = [P256PrefixLen]byte{
	0x30, 0x59, 0x30, 0x13, 0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02, 0x01, 0x06, 0x08, 0x2a,
	0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07, 0x03, 0x42, 0x00,
}

var (
	// ErrTruncated indica que el contenido no alcanza para el prefijo.
	ErrTruncated = errors.New("pemkey: contents too short for ECDSA P-256 SubjectPublicKeyInfo")
	// ErrUnrecognizedKeyType indica que el prefijo no corresponde a ECDSA P-256.
	ErrUnrecognizedKeyType = errors.New("pemkey: contents are not an ECDSA P-256 SubjectPublicKeyInfo")
)

// P256Prefix devuelve una copia del prefijo.
func P256Prefix() []byte {
	out := make([]byte, P256PrefixLen)
	copy(out, p256SPKIPrefix[:])
	return out
}

// P256Point valida que contents sea un SPKI ECDSA P-256 comparando el prefijo
// byte a byte, y devuelve una copia de los bytes que siguen (el punto EC).
//
// No se hace un parseo DER general: todo lo que coincide con el prefijo se
// acepta, y la validez del punto se comprueba recién al verificar.
func P256Point(contents []byte) ([]byte, error) {
	if len(contents) < P256PrefixLen {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrTruncated, len(contents), P256PrefixLen)
	}
	if !bytes.Equal(contents[:P256PrefixLen], p256SPKIPrefix[:]) {
		return nil, ErrUnrecognizedKeyType
	}
	point := make([]byte, len(contents)-P256PrefixLen)
	copy(point, contents[P256PrefixLen:])
	return point, nil
}
