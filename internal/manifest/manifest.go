// Package manifest carga el specific manifest que publica un peer (buckets y
// claves) y resuelve sus batch signing keys a verificadores ECDSA P-256.
//
// Un SpecificManifest se construye una vez por carga y no se modifica después;
// se puede resolver desde varias goroutines sin locks.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// SupportedFormat es la única versión de formato aceptada.
const SupportedFormat uint32 = 0

// BatchSigningPublicKey describe una clave de firma de batches.
type BatchSigningPublicKey struct {
	// PublicKey es el SPKI ECDSA P-256 en armadura PEM ("PUBLIC KEY").
	PublicKey string `json:"public-key"`
	// Expiration es una fecha ISO-8601 UTC. Se pasa tal cual, no se valida.
	Expiration string `json:"expiration"`
}

// PacketEncryptionCertificate es un certificado X.509 en PEM. No se parsea.
type PacketEncryptionCertificate struct {
	Certificate string `json:"certificate"`
}

// SpecificManifest es el documento de configuración que un peer expone.
// Tratarlo como inmutable: ni este paquete ni sus callers deben mutar los maps.
type SpecificManifest struct {
	Format                       uint32                                 `json:"format"`
	IngestionBucket              string                                 `json:"ingestion-bucket"`
	PeerValidationBucket         string                                 `json:"peer-validation-bucket"`
	BatchSigningPublicKeys       map[string]BatchSigningPublicKey       `json:"batch-signing-public-keys"`
	PacketEncryptionCertificates map[string]PacketEncryptionCertificate `json:"packet-encryption-certificates"`
}

// wire* reflejan el JSON con punteros para distinguir "ausente/null" de "vacío".
type wireManifest struct {
	Format                       *uint32                     `json:"format"`
	IngestionBucket              *string                     `json:"ingestion-bucket"`
	PeerValidationBucket         *string                     `json:"peer-validation-bucket"`
	BatchSigningPublicKeys       map[string]*wireSigningKey  `json:"batch-signing-public-keys"`
	PacketEncryptionCertificates map[string]*wireCertificate `json:"packet-encryption-certificates"`
}

type wireSigningKey struct {
	PublicKey  *string `json:"public-key"`
	Expiration *string `json:"expiration"`
}

type wireCertificate struct {
	Certificate *string `json:"certificate"`
}

// FromReader decodifica un manifest desde r y aplica el gate de formato.
func FromReader(r io.Reader) (*SpecificManifest, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindRetrieval, "", err, "read manifest")
	}
	return FromBytes(b)
}

// FromBytes es el único paso de decodificación: schema primero, formato después.
func FromBytes(b []byte) (*SpecificManifest, error) {
	m, err := decode(b)
	if err != nil {
		return nil, newError(KindSchema, "", err, "failed to decode JSON specific manifest")
	}
	if m.Format != SupportedFormat {
		merr := newError(KindUnsupportedFormat, "", nil,
			"unsupported manifest format %d (want %d)", m.Format, SupportedFormat)
		merr.Format = m.Format
		return nil, merr
	}
	return m, nil
}

func decode(b []byte) (*SpecificManifest, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var w wireManifest
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	// Un único documento: cualquier cosa después (salvo espacios) es error.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after manifest document")
	}
	// encoding/json acepta "Format" por "format" y se queda con la última
	// repetición de una key; los nombres del wire son exactos.
	if err := checkWireKeys(b); err != nil {
		return nil, err
	}
	return w.toRecord()
}

func (w *wireManifest) toRecord() (*SpecificManifest, error) {
	switch {
	case w.Format == nil:
		return nil, missing("format")
	case w.IngestionBucket == nil:
		return nil, missing("ingestion-bucket")
	case w.PeerValidationBucket == nil:
		return nil, missing("peer-validation-bucket")
	case w.BatchSigningPublicKeys == nil:
		return nil, missing("batch-signing-public-keys")
	case w.PacketEncryptionCertificates == nil:
		return nil, missing("packet-encryption-certificates")
	}

	keys := make(map[string]BatchSigningPublicKey, len(w.BatchSigningPublicKeys))
	for id, k := range w.BatchSigningPublicKeys {
		switch {
		case k == nil:
			return nil, fmt.Errorf("batch-signing-public-keys[%q]: null entry", id)
		case k.PublicKey == nil:
			return nil, missing(fmt.Sprintf("batch-signing-public-keys[%q].public-key", id))
		case k.Expiration == nil:
			return nil, missing(fmt.Sprintf("batch-signing-public-keys[%q].expiration", id))
		}
		keys[id] = BatchSigningPublicKey{PublicKey: *k.PublicKey, Expiration: *k.Expiration}
	}

	certs := make(map[string]PacketEncryptionCertificate, len(w.PacketEncryptionCertificates))
	for id, c := range w.PacketEncryptionCertificates {
		switch {
		case c == nil:
			return nil, fmt.Errorf("packet-encryption-certificates[%q]: null entry", id)
		case c.Certificate == nil:
			return nil, missing(fmt.Sprintf("packet-encryption-certificates[%q].certificate", id))
		}
		certs[id] = PacketEncryptionCertificate{Certificate: *c.Certificate}
	}

	return &SpecificManifest{
		Format:                       *w.Format,
		IngestionBucket:              *w.IngestionBucket,
		PeerValidationBucket:         *w.PeerValidationBucket,
		BatchSigningPublicKeys:       keys,
		PacketEncryptionCertificates: certs,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("missing field %q", field)
}

// Marshal serializa el manifest con los nombres de campo del wire.
// Maps nil se emiten como {} para que el documento vuelva a cargar.
func (m *SpecificManifest) Marshal() ([]byte, error) {
	out := *m
	if out.BatchSigningPublicKeys == nil {
		out.BatchSigningPublicKeys = map[string]BatchSigningPublicKey{}
	}
	if out.PacketEncryptionCertificates == nil {
		out.PacketEncryptionCertificates = map[string]PacketEncryptionCertificate{}
	}
	return json.MarshalIndent(&out, "", "  ")
}
