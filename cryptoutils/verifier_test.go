package cryptoutils

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerifyRoundtrip(t *testing.T) {
	keyPEM, _, err := CreateCSRWithRandomKey("device-001")
	require.NoError(t, err)

	pubPEM, err := MarshalPublicKey(keyPEM)
	require.NoError(t, err)

	verifier, err := NewVerifier(pubPEM, testLogger())
	require.NoError(t, err)

	sig, err := SignMessage(keyPEM, "device-001")
	require.NoError(t, err)

	assert.True(t, verifier.Verify("device-001", sig))
	assert.False(t, verifier.Verify("device-002", sig))
}

func TestVerifyRejectsBadBase64(t *testing.T) {
	keyPEM, _, err := CreateCSRWithRandomKey("device-001")
	require.NoError(t, err)
	pubPEM, err := MarshalPublicKey(keyPEM)
	require.NoError(t, err)

	verifier, err := NewVerifier(pubPEM, testLogger())
	require.NoError(t, err)

	assert.False(t, verifier.Verify("device-001", "not base64 !!!"))
	assert.False(t, verifier.Verify("device-001", ""))
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	keyPEM, _, err := CreateCSRWithRandomKey("device-001")
	require.NoError(t, err)
	otherKeyPEM, _, err := CreateCSRWithRandomKey("device-001")
	require.NoError(t, err)

	pubPEM, err := MarshalPublicKey(keyPEM)
	require.NoError(t, err)
	verifier, err := NewVerifier(pubPEM, testLogger())
	require.NoError(t, err)

	sig, err := SignMessage(otherKeyPEM, "device-001")
	require.NoError(t, err)
	assert.False(t, verifier.Verify("device-001", sig))
}

func TestNewVerifierRejectsGarbage(t *testing.T) {
	_, err := NewVerifier(PublicKeyPEM("not a pem block"), testLogger())
	assert.Error(t, err)
}

func TestGeneratedCSRIsValid(t *testing.T) {
	_, csrPEM, err := CreateCSRWithRandomKey("device-001")
	require.NoError(t, err)

	require.NoError(t, csrPEM.Validate())

	csr, err := csrPEM.GetX509CSR()
	require.NoError(t, err)
	assert.Equal(t, "device-001", csr.Subject.CommonName)
}
