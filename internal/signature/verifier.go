// Package signature expone el handle de verificación que produce la resolución
// de claves de un manifest: ECDSA P-256 con SHA-256 y firmas de largo fijo (r||s),
// el mismo formato que ES256 en JWS.
package signature

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// AlgorithmP256SHA256Fixed identifica el único algoritmo soportado.
const AlgorithmP256SHA256Fixed = "ECDSA_P256_SHA256_FIXED"

// SignatureSize es el largo de una firma r||s para P-256.
const SignatureSize = 64

var (
	// ErrInvalidKey indica que los bytes de la clave no son un punto P-256 válido.
	ErrInvalidKey = errors.New("signature: invalid ECDSA P-256 public key")
	// ErrVerification indica que la firma no corresponde al mensaje y la clave.
	ErrVerification = errors.New("signature: verification failed")
)

// Verifier verifica firmas ES256 contra una clave pública cruda.
// No comparte estado con el manifest del que salió; es seguro usarlo desde
// varias goroutines.
type Verifier struct {
	raw []byte
}

// NewP256Verifier construye un Verifier sobre una copia de raw (punto sin comprimir).
// La validez del punto se comprueba en Verify.
func NewP256Verifier(raw []byte) *Verifier {
	k := make([]byte, len(raw))
	copy(k, raw)
	return &Verifier{raw: k}
}

// Algorithm retorna el identificador del algoritmo ligado al handle.
func (v *Verifier) Algorithm() string { return AlgorithmP256SHA256Fixed }

// RawKey retorna una copia de los bytes de la clave.
func (v *Verifier) RawKey() []byte {
	out := make([]byte, len(v.raw))
	copy(out, v.raw)
	return out
}

// Fingerprint es el SHA-256 hex de la clave cruda. Sirve para logs y CLI sin
// exponer el material de la clave.
func (v *Verifier) Fingerprint() string {
	sum := sha256.Sum256(v.raw)
	return hex.EncodeToString(sum[:])
}

// PublicKey convierte la clave cruda a *ecdsa.PublicKey, validando que el
// punto esté en la curva.
func (v *Verifier) PublicKey() (*ecdsa.PublicKey, error) {
	if _, err := ecdh.P256().NewPublicKey(v.raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	// NewPublicKey ya garantizó 0x04 || X(32) || Y(32).
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(v.raw[1:33]),
		Y:     new(big.Int).SetBytes(v.raw[33:65]),
	}, nil
}

// Verify chequea sig (r||s, 64 bytes) sobre message.
func (v *Verifier) Verify(message, sig []byte) error {
	pub, err := v.PublicKey()
	if err != nil {
		return err
	}
	if len(sig) != SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d", ErrVerification, len(sig), SignatureSize)
	}
	if err := jwtv5.SigningMethodES256.Verify(string(message), sig, pub); err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return nil
}
