package keysource

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileKeySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	pemData := "-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----\n"
	require.NoError(t, os.WriteFile(path, []byte(pemData), 0o644))

	source := NewFileKeySource(path, testLogger())
	key, err := source.VerificationKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pemData, string(key))
}

func TestFileKeySourceMissingFile(t *testing.T) {
	source := NewFileKeySource(filepath.Join(t.TempDir(), "nope.pem"), testLogger())
	_, err := source.VerificationKey(context.Background())
	assert.Error(t, err)
}

func TestKeySourceForBarePath(t *testing.T) {
	source, err := KeySourceFor("/etc/provisioning/key.pem", testLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileKeySource{}, source)
}

func TestKeySourceForFileURI(t *testing.T) {
	source, err := KeySourceFor("file:///etc/provisioning/key.pem", testLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileKeySource{}, source)
}

func TestKeySourceForVaultURI(t *testing.T) {
	source, err := KeySourceFor("vault://vault.internal:8200/secret/provisioning?field=public_key", testLogger())
	require.NoError(t, err)
	assert.IsType(t, &VaultKeySource{}, source)
}

func TestKeySourceForVaultURIMissingPath(t *testing.T) {
	_, err := KeySourceFor("vault://vault.internal:8200/secret", testLogger())
	assert.Error(t, err)
}

func TestKeySourceForUnsupportedScheme(t *testing.T) {
	_, err := KeySourceFor("s3://bucket/key.pem", testLogger())
	assert.Error(t, err)
}
