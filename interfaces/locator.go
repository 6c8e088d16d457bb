package interfaces

import "context"

// Locator resolves a network address to a geographic point through an
// external lookup provider.
type Locator interface {
	// Locate returns the coordinates for the address. The second return
	// is false when the provider has no data for the address; that is an
	// expected outcome, not an error. The error return is reserved for
	// transport-level failures reaching the provider.
	Locate(ctx context.Context, ipAddress string) (GeoPoint, bool, error)
}

// SignatureVerifier validates that a claimed device identity was signed
// by the expected pre-shared key.
type SignatureVerifier interface {
	// Verify reports whether signatureB64 is a valid signature over
	// message. False covers every failure mode identically.
	Verify(message string, signatureB64 string) bool
}

// KeySource loads the verification public key from its configured
// location.
type KeySource interface {
	VerificationKey(ctx context.Context) (PublicKeyPEM, error)
}
