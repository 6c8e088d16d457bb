// Package issuer implements credential issuance against the AWS IoT
// control plane.
//
// Issuance is a five-step sequence per device: resolve the regional
// data endpoint, ensure the shared access policy exists, register the
// device identity, issue the certificate (from a device CSR or with a
// server-generated key pair), and bind policy and identity to the
// certificate. Create steps tolerate "already exists" responses so a
// retried or concurrent enrollment cannot fail on resources left behind
// by an earlier attempt.
//
// The access policy is a per-region singleton. Its statements restrict
// each device to connecting under its own client id and publishing
// under its own data/<client id>/ topic prefix, so a single policy
// safely serves the whole fleet.
package issuer
