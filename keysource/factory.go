package keysource

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/fleetops/device-provisioning-backend/interfaces"
)

// KeySourceFor creates a verification-key source from a location URI.
//
// Supported schemes:
//   - file:///path/to/key.pem - local file
//   - vault://host:8200/mount/path?field=public_key&scheme=https -
//     HashiCorp Vault KV v2; token taken from the environment
//
// A bare path with no scheme is treated as a file path.
func KeySourceFor(locationURI string, log *slog.Logger) (interfaces.KeySource, error) {
	if !strings.Contains(locationURI, "://") {
		return NewFileKeySource(locationURI, log), nil
	}

	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid key source URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			return nil, fmt.Errorf("empty path in file URI: %s", locationURI)
		}
		return NewFileKeySource(path, log), nil

	case "vault":
		parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid Vault URI, expected vault://host:port/mount/path: %s", locationURI)
		}

		query := u.Query()
		field := query.Get("field")
		if field == "" {
			field = "public_key"
		}
		scheme := query.Get("scheme")
		if scheme == "" {
			scheme = "https"
		}

		address := fmt.Sprintf("%s://%s", scheme, u.Host)
		return NewVaultKeySource(address, parts[0], parts[1], field, log)

	default:
		return nil, fmt.Errorf("unsupported key source scheme: %s", u.Scheme)
	}
}
