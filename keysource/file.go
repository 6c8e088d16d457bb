package keysource

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fleetops/device-provisioning-backend/cryptoutils"
)

// FileKeySource loads the verification public key from a local file.
type FileKeySource struct {
	path string
	log  *slog.Logger
}

// NewFileKeySource creates a key source reading from the given path.
func NewFileKeySource(path string, log *slog.Logger) *FileKeySource {
	return &FileKeySource{path: path, log: log}
}

// VerificationKey reads and returns the PEM-encoded public key.
func (s *FileKeySource) VerificationKey(_ context.Context) (cryptoutils.PublicKeyPEM, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verification key file: %w", err)
	}

	s.log.Debug("Loaded verification key from file", slog.String("path", s.path))
	return cryptoutils.PublicKeyPEM(data), nil
}
