package manifest

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/peermanifest/internal/pemkey"
	"github.com/dropDatabas3/peermanifest/internal/signature"
)

const (
	spkiB64      = "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAEIKh3MccE1cdSF4pnEb+U0MmGYfkoQzOl2aiaJ6D9ZudqDdGiyA9YSUq3yia56nYJh5mk+HlzTX+AufoNR2bfrg=="
	barePointB64 = "BIl6j+J6dYttxALdjISDv6ZI4/VWVEhUzaS05LgrsfswmbLOgNt9HUC2E0w+9RqZx3XMkdEHBHfNuCSMpOwofVSq3TfyKwn0NrftKisKKVSaTOt5seJ67P5QL4hxgPWvxw=="
	tooShortB64  = "dG9vIHNob3J0Cg=="
)

func armored(tag, b64 string) string {
	return "-----BEGIN " + tag + "-----\n" + b64 + "\n-----END " + tag + "-----"
}

func withKey(id, pem string) *SpecificManifest {
	return &SpecificManifest{
		BatchSigningPublicKeys: map[string]BatchSigningPublicKey{
			id: {PublicKey: pem, Expiration: ""},
		},
		PacketEncryptionCertificates: map[string]PacketEncryptionCertificate{},
	}
}

func TestResolveBatchSigningKey_Errors(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	p384DER, err := x509.MarshalPKIXPublicKey(&p384.PublicKey)
	require.NoError(t, err)

	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	edDER, err := x509.MarshalPKIXPublicKey(edPub)
	require.NoError(t, err)

	cases := []struct {
		name string
		pem  string
		kind Kind
	}{
		{"ec public key tag", armored("EC PUBLIC KEY", spkiB64), KindWrongPEMTag},
		{"private key tag", armored("PRIVATE KEY", spkiB64), KindWrongPEMTag},
		{"bare point", armored("PUBLIC KEY", barePointB64), KindUnrecognizedKeyType},
		{"too short", armored("PUBLIC KEY", tooShortB64), KindTruncatedKey},
		{"empty contents", "-----BEGIN PUBLIC KEY-----\n-----END PUBLIC KEY-----", KindTruncatedKey},
		{"not pem", "not a pem", KindPEMParse},
		{"empty string", "", KindPEMParse},
		{"bad base64", armored("PUBLIC KEY", "!!!!"), KindPEMParse},
		{"p384", pemkey.Encode(pemkey.PublicKeyTag, p384DER), KindUnrecognizedKeyType},
		{"ed25519", pemkey.Encode(pemkey.PublicKeyTag, edDER), KindUnrecognizedKeyType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ResolveBatchSigningKey(withKey("k", tc.pem), "k")
			require.Nil(t, v)
			require.Equal(t, tc.kind, KindOf(err), "err: %v", err)

			var merr *Error
			require.True(t, errors.As(err, &merr))
			require.Equal(t, "k", merr.KeyID)
		})
	}
}

func TestResolveBatchSigningKey_WrongTagMessage(t *testing.T) {
	_, err := ResolveBatchSigningKey(withKey("fake-key-2", armored("EC PUBLIC KEY", spkiB64)), "fake-key-2")
	require.True(t, IsKind(err, KindWrongPEMTag))
	require.Contains(t, err.Error(), `"fake-key-2"`)
	require.Contains(t, err.Error(), `"EC PUBLIC KEY"`)
	require.Contains(t, err.Error(), `"PUBLIC KEY"`)
}

func TestResolveBatchSigningKey_UnknownKey(t *testing.T) {
	_, pubPEM := newP256(t)
	m := withKey("present", pubPEM)

	_, err := m.BatchSigningPublicKey("absent")
	require.True(t, IsKind(err, KindUnknownKey))

	_, err = ResolveBatchSigningKey(nil, "present")
	require.True(t, IsKind(err, KindUnknownKey))

	_, err = m.PacketEncryptionCertificate("present")
	require.True(t, IsKind(err, KindUnknownKey))
}

func TestResolveBatchSigningKey_FixtureSPKI(t *testing.T) {
	v, err := ResolveBatchSigningKey(withKey("fixture", armored("PUBLIC KEY", spkiB64)), "fixture")
	require.NoError(t, err)
	require.Equal(t, signature.AlgorithmP256SHA256Fixed, v.Algorithm())
	require.Len(t, v.RawKey(), 65)
	require.Equal(t, byte(0x04), v.RawKey()[0])
}

func TestResolveBatchSigningKey_Verify(t *testing.T) {
	priv, pubPEM := newP256(t)
	other, _ := newP256(t)
	m := withKey("fake-key-2", pubPEM)

	v, err := m.BatchSigningPublicKey("fake-key-2")
	require.NoError(t, err)

	msg := []byte("some content")
	sig := sign(t, priv, msg)
	require.NoError(t, v.Verify(msg, sig))

	require.ErrorIs(t, v.Verify([]byte("some other content"), sig), signature.ErrVerification)
	require.ErrorIs(t, v.Verify(msg, sign(t, other, msg)), signature.ErrVerification)
	require.Error(t, v.Verify(msg, sig[:63]))

	// Resolver dos veces da verificadores equivalentes.
	v2, err := m.BatchSigningPublicKey("fake-key-2")
	require.NoError(t, err)
	require.Equal(t, v.Fingerprint(), v2.Fingerprint())
	require.NoError(t, v2.Verify(msg, sig))
}

func TestKeyIDs_Sorted(t *testing.T) {
	m := &SpecificManifest{BatchSigningPublicKeys: map[string]BatchSigningPublicKey{
		"c": {}, "a": {}, "b": {},
	}}
	require.Equal(t, []string{"a", "b", "c"}, m.KeyIDs())

	var none *SpecificManifest
	require.Empty(t, none.KeyIDs())
	require.Empty(t, (&SpecificManifest{}).KeyIDs())
}
