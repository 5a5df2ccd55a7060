package manifest

import (
	"errors"
	"sort"

	"github.com/dropDatabas3/peermanifest/internal/metrics"
	"github.com/dropDatabas3/peermanifest/internal/pemkey"
	"github.com/dropDatabas3/peermanifest/internal/signature"
)

// ResolveBatchSigningKey busca identifier en m.BatchSigningPublicKeys y lo lleva
// por PEM → etiqueta → SPKI P-256 hasta un Verifier listo para usar.
//
// No hay cache: cada llamada decodifica de nuevo el PEM guardado en el record.
func ResolveBatchSigningKey(m *SpecificManifest, identifier string) (*signature.Verifier, error) {
	v, err := resolveBatchSigningKey(m, identifier)
	result := metrics.ResultOK
	if err != nil {
		result = string(KindOf(err))
	}
	metrics.KeyResolutions.WithLabelValues(result).Inc()
	return v, err
}

// BatchSigningPublicKey es ResolveBatchSigningKey como método.
func (m *SpecificManifest) BatchSigningPublicKey(identifier string) (*signature.Verifier, error) {
	return ResolveBatchSigningKey(m, identifier)
}

func resolveBatchSigningKey(m *SpecificManifest, identifier string) (*signature.Verifier, error) {
	var (
		key BatchSigningPublicKey
		ok  bool
	)
	if m != nil {
		key, ok = m.BatchSigningPublicKeys[identifier]
	}
	if !ok {
		return nil, newError(KindUnknownKey, identifier, nil, "no value for key %q", identifier)
	}

	blk, err := pemkey.Decode(key.PublicKey)
	if err != nil {
		return nil, newError(KindPEMParse, identifier, err, "failed to parse key entry %q as PEM", identifier)
	}
	if blk.Tag != pemkey.PublicKeyTag {
		return nil, newError(KindWrongPEMTag, identifier, nil,
			"key for identifier %q is not a PEM encoded public key: tag %q, want %q",
			identifier, blk.Tag, pemkey.PublicKeyTag)
	}

	point, err := pemkey.P256Point(blk.Contents)
	switch {
	case errors.Is(err, pemkey.ErrTruncated):
		return nil, newError(KindTruncatedKey, identifier, err,
			"PEM contents for key %q are %d bytes, not long enough to contain an ECDSA P-256 SubjectPublicKeyInfo (%d byte prefix)",
			identifier, len(blk.Contents), pemkey.P256PrefixLen)
	case errors.Is(err, pemkey.ErrUnrecognizedKeyType):
		return nil, newError(KindUnrecognizedKeyType, identifier, err,
			"PEM contents for key %q are not an ASN.1 encoded ECDSA P-256 SubjectPublicKeyInfo", identifier)
	case err != nil:
		return nil, newError(KindUnrecognizedKeyType, identifier, err, "invalid key %q", identifier)
	}

	return signature.NewP256Verifier(point), nil
}

// PacketEncryptionCertificate retorna el certificado PEM guardado bajo identifier,
// tal cual está en el manifest (no se parsea ni se valida).
func (m *SpecificManifest) PacketEncryptionCertificate(identifier string) (string, error) {
	if m != nil {
		if c, ok := m.PacketEncryptionCertificates[identifier]; ok {
			return c.Certificate, nil
		}
	}
	return "", newError(KindUnknownKey, identifier, nil, "no packet encryption certificate for key %q", identifier)
}

// KeyIDs retorna los identificadores de batch signing keys, ordenados.
func (m *SpecificManifest) KeyIDs() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.BatchSigningPublicKeys))
	for id := range m.BatchSigningPublicKeys {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
