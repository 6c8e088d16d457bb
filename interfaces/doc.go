// Package interfaces defines the core types and component contracts of
// the device provisioning backend. It provides the boundary between the
// broker's orchestration and the external collaborators (enrollment
// registry, credential issuer, geolocation provider, verification key
// source) without implementation details.
//
// The types here follow the enrollment lifecycle:
//
//  1. A device record is allow-listed out-of-band with
//     StatusUnprovisioned.
//  2. The device submits its DeviceName with a signature; the broker
//     authenticates it through SignatureVerifier.
//  3. EnrollmentRegistry gatekeeps: only a record in exactly
//     StatusUnprovisioned may proceed.
//  4. Locator and the region catalog pick the operating region.
//  5. CredentialIssuer produces the IssuedCredential.
//  6. The registry records the unprovisioned->provisioned transition,
//     at most once per device.
package interfaces
