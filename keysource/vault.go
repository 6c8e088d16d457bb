package keysource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fleetops/device-provisioning-backend/cryptoutils"
	"github.com/hashicorp/vault/api"
)

// VaultKeySource loads the verification public key from a HashiCorp
// Vault KV v2 secret. Vault address and token come from the standard
// VAULT_ADDR/VAULT_TOKEN environment unless overridden on the client.
type VaultKeySource struct {
	client    *api.Client
	mountPath string
	dataPath  string
	field     string
	log       *slog.Logger
}

// NewVaultKeySource creates a Vault-backed key source.
//
// Parameters:
//   - address: Vault server address; empty keeps the environment default
//   - mountPath: KV v2 mount (e.g. "secret")
//   - dataPath: path within the mount (e.g. "provisioning/verify-key")
//   - field: field within the secret holding the PEM key
func NewVaultKeySource(address, mountPath, dataPath, field string, log *slog.Logger) (*VaultKeySource, error) {
	config := api.DefaultConfig()
	if address != "" {
		config.Address = address
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	return &VaultKeySource{
		client:    client,
		mountPath: strings.Trim(mountPath, "/"),
		dataPath:  strings.Trim(dataPath, "/"),
		field:     field,
		log:       log,
	}, nil
}

// VerificationKey reads the key PEM from Vault.
func (s *VaultKeySource) VerificationKey(ctx context.Context) (cryptoutils.PublicKeyPEM, error) {
	// Vault KV v2 path structure
	path := fmt.Sprintf("%s/data/%s", s.mountPath, s.dataPath)

	secret, err := s.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verification key from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("verification key not found in Vault at %s", path)
	}

	// Unwrap the KV v2 response envelope.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response at %s", path)
	}

	keyPEM, ok := data[s.field].(string)
	if !ok {
		return nil, fmt.Errorf("field %q not found in Vault secret at %s", s.field, path)
	}

	s.log.Debug("Loaded verification key from Vault", slog.String("path", path))
	return cryptoutils.PublicKeyPEM(keyPEM), nil
}
