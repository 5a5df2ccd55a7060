package manifest

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/peermanifest/internal/pemkey"
)

// Documento con la forma publicada por los peers. %s es el valor de "public-key".
const manifestTemplate = `
{
    "format": 0,
    "packet-encryption-certificates": {
        "fake-key-1": {
            "certificate": "who cares"
        }
    },
    "batch-signing-public-keys": {
        "fake-key-2": {
        "expiration": "",
        "public-key": %q
      }
    },
    "ingestion-bucket": "us-west-1/ingestion",
    "peer-validation-bucket": "us-west-1/validation"
}
`

func newP256(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, pemkey.Encode(pemkey.PublicKeyTag, der)
}

func sign(t *testing.T, priv *ecdsa.PrivateKey, msg []byte) []byte {
	t.Helper()
	sig, err := jwtv5.SigningMethodES256.Sign(string(msg), priv)
	require.NoError(t, err)
	return sig
}

func docWithKey(publicKeyPEM string) string {
	return fmt.Sprintf(manifestTemplate, publicKeyPEM)
}

func TestLoadManifest(t *testing.T) {
	priv, pubPEM := newP256(t)

	m, err := FromReader(strings.NewReader(docWithKey(pubPEM)))
	require.NoError(t, err)

	want := &SpecificManifest{
		Format:               0,
		IngestionBucket:      "us-west-1/ingestion",
		PeerValidationBucket: "us-west-1/validation",
		BatchSigningPublicKeys: map[string]BatchSigningPublicKey{
			"fake-key-2": {PublicKey: pubPEM, Expiration: ""},
		},
		PacketEncryptionCertificates: map[string]PacketEncryptionCertificate{
			"fake-key-1": {Certificate: "who cares"},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}

	v, err := m.BatchSigningPublicKey("fake-key-2")
	require.NoError(t, err)
	content := []byte("some content")
	require.NoError(t, v.Verify(content, sign(t, priv, content)))

	cert, err := m.PacketEncryptionCertificate("fake-key-1")
	require.NoError(t, err)
	require.Equal(t, "who cares", cert)
}

func TestRoundTrip(t *testing.T) {
	_, pemA := newP256(t)
	_, pemB := newP256(t)
	records := []*SpecificManifest{
		{
			IngestionBucket:      "us-west-1/ingestion",
			PeerValidationBucket: "us-west-1/validation",
			BatchSigningPublicKeys: map[string]BatchSigningPublicKey{
				"a": {PublicKey: pemA, Expiration: "2030-01-01T00:00:00Z"},
				"b": {PublicKey: pemB, Expiration: "2031-06-30T12:00:00Z"},
			},
			PacketEncryptionCertificates: map[string]PacketEncryptionCertificate{
				"c": {Certificate: "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"},
			},
		},
		{
			BatchSigningPublicKeys:       map[string]BatchSigningPublicKey{},
			PacketEncryptionCertificates: map[string]PacketEncryptionCertificate{},
		},
	}
	for i, rec := range records {
		b, err := rec.Marshal()
		require.NoError(t, err)
		got, err := FromBytes(b)
		require.NoError(t, err, "record %d", i)
		if diff := cmp.Diff(rec, got); diff != "" {
			t.Fatalf("record %d round trip (-want +got):\n%s", i, diff)
		}
	}
}

func TestLoadManifest_UnknownFieldsIgnored(t *testing.T) {
	_, pubPEM := newP256(t)
	doc := `{"x-extra": {"Format": 1, "format": 2}, "Comment": "ok",` + strings.TrimPrefix(strings.TrimSpace(docWithKey(pubPEM)), "{")
	m, err := FromBytes([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, uint32(0), m.Format)
}

func TestMarshal_NilMapsStillLoad(t *testing.T) {
	b, err := (&SpecificManifest{}).Marshal()
	require.NoError(t, err)
	m, err := FromBytes(b)
	require.NoError(t, err)
	require.Empty(t, m.BatchSigningPublicKeys)
}

func TestInvalidManifest(t *testing.T) {
	base := map[string]string{
		"format":                         `0`,
		"ingestion-bucket":               `"us-west-1/ingestion"`,
		"peer-validation-bucket":         `"us-west-1/validation"`,
		"batch-signing-public-keys":      `{"fake-key-2": {"expiration": "", "public-key": "-----BEGIN PUBLIC KEY-----\nfoo\n-----END PUBLIC KEY-----"}}`,
		"packet-encryption-certificates": `{"fake-key-1": {"certificate": "who cares"}}`,
	}
	build := func(override map[string]string, drop ...string) string {
		fields := make(map[string]string, len(base))
		for k, v := range base {
			fields[k] = v
		}
		for k, v := range override {
			fields[k] = v
		}
		for _, k := range drop {
			delete(fields, k)
		}
		var buf bytes.Buffer
		buf.WriteString("{")
		first := true
		for k, v := range fields {
			if !first {
				buf.WriteString(",")
			}
			first = false
			fmt.Fprintf(&buf, "%q: %s", k, v)
		}
		buf.WriteString("}")
		return buf.String()
	}

	schema := map[string]string{
		"not json":              "not-json",
		"empty":                 "",
		"array":                 "[]",
		"null document":         "null",
		"missing keys":          `{ "missing": "keys"}`,
		"no format":             build(nil, "format"),
		"format string":         build(map[string]string{"format": `"zero"`}),
		"format null":           build(map[string]string{"format": `null`}),
		"format negative":       build(map[string]string{"format": `-1`}),
		"format fractional":     build(map[string]string{"format": `0.5`}),
		"format overflow":       build(map[string]string{"format": `4294967296`}),
		"bucket number":         build(map[string]string{"ingestion-bucket": `7`}),
		"no ingestion bucket":   build(nil, "ingestion-bucket"),
		"no validation bucket":  build(nil, "peer-validation-bucket"),
		"no signing keys":       build(nil, "batch-signing-public-keys"),
		"no certificates":       build(nil, "packet-encryption-certificates"),
		"signing keys array":    build(map[string]string{"batch-signing-public-keys": `[]`}),
		"key missing pem":       build(map[string]string{"batch-signing-public-keys": `{"k": {"expiration": ""}}`}),
		"key missing exp":       build(map[string]string{"batch-signing-public-keys": `{"k": {"public-key": ""}}`}),
		"key null":              build(map[string]string{"batch-signing-public-keys": `{"k": null}`}),
		"cert missing":          build(map[string]string{"packet-encryption-certificates": `{"c": {}}`}),
		"trailing document":     build(nil) + ` {}`,
		"trailing garbage":      build(nil) + ` xyz`,
	}
	// Los nombres del wire son exactos: ni variantes de mayúsculas ni repeticiones.
	lead := func(first string, drop ...string) string {
		return "{" + first + "," + strings.TrimPrefix(build(nil, drop...), "{")
	}
	for name, doc := range map[string]string{
		"format case variant":   lead(`"format": 1, "Format": 0`, "format"),
		"format repeated":       lead(`"format": 1, "format": 0`, "format"),
		"format repeated later": lead(`"format": 0, "format": 1`, "format"),
		"bucket case variant":   lead(`"Ingestion-Bucket": "us-west-1/other"`),
		"all keys case variant": `{"FORMAT": 0, "Ingestion-Bucket": "a", "Peer-Validation-Bucket": "b",
			"Batch-Signing-Public-Keys": {}, "Packet-Encryption-Certificates": {}}`,
		"nested case variant": build(map[string]string{
			"batch-signing-public-keys": `{"k": {"expiration": "", "public-key": "x", "Public-Key": "y"}}`,
		}),
		"nested repeated": build(map[string]string{
			"packet-encryption-certificates": `{"c": {"certificate": "a", "certificate": "b"}}`,
		}),
		"key id repeated": build(map[string]string{
			"batch-signing-public-keys": `{"k": {"expiration": "", "public-key": "x"}, "k": {"expiration": "", "public-key": "y"}}`,
		}),
	} {
		schema[name] = doc
	}

	for name, doc := range schema {
		t.Run(name, func(t *testing.T) {
			m, err := FromBytes([]byte(doc))
			require.Nil(t, m)
			require.True(t, IsKind(err, KindSchema), "got %v", err)
		})
	}

	for _, format := range []string{"1", "2", "42"} {
		m, err := FromBytes([]byte(build(map[string]string{"format": format})))
		require.Nil(t, m)
		require.True(t, IsKind(err, KindUnsupportedFormat), "format %s: got %v", format, err)
		require.Contains(t, err.Error(), "unsupported manifest format "+format)
	}

	m, err := FromBytes([]byte(build(nil)))
	require.NoError(t, err)
	require.Equal(t, SupportedFormat, m.Format)

	// Campos desconocidos se ignoran.
	m, err = FromBytes([]byte(build(map[string]string{"future-field": `{"x": 1}`})))
	require.NoError(t, err)
	require.NotNil(t, m)
}
