// Package cryptoutils provides the cryptographic building blocks of the
// provisioning system: typed PEM materials (CSRs, certificates, keys)
// with validating accessors, the enrollment signature verifier, and the
// signing/CSR helpers used by device-side tooling.
//
// # Enrollment signatures
//
// A device proves its identity by signing the raw bytes of its device
// name with a pre-shared signing key. The backend holds only the public
// counterpart and checks the signature with Verifier before touching
// any other component. All verification failures are reported
// identically (a bare false) so the response never leaks whether the
// encoding, the key, or the signature bytes were at fault.
//
// # Key material hygiene
//
// PrivateKeyPEM values pass through this package on their way to a
// device and are never logged or persisted here. Log lines reference
// identities and certificate ids only.
package cryptoutils
