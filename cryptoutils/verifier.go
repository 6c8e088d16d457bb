package cryptoutils

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
)

// Verifier checks that a message was signed by the private counterpart
// of a pre-distributed public key. The signature algorithm is SHA-256
// based: RSA PKCS#1 v1.5, ECDSA (ASN.1), or Ed25519 depending on the
// key type.
type Verifier struct {
	pub crypto.PublicKey
	log *slog.Logger
}

// NewVerifier creates a Verifier from a PEM-encoded public key.
func NewVerifier(keyPEM PublicKeyPEM, log *slog.Logger) (*Verifier, error) {
	pub, err := keyPEM.GetPublicKey()
	if err != nil {
		return nil, err
	}
	return &Verifier{pub: pub, log: log}, nil
}

// Verify reports whether signatureB64 is a valid signature over message.
// Every failure mode (bad base64, wrong length, non-matching signature,
// unsupported key type) returns false identically so callers cannot
// distinguish which part failed.
func (v *Verifier) Verify(message string, signatureB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		v.log.Warn("Signature is not valid base64", "err", err)
		return false
	}

	digest := sha256.Sum256([]byte(message))

	switch pub := v.pub.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
			v.log.Warn("Signature verification failed", "err", err)
			return false
		}
		return true
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(pub, digest[:], sig) {
			v.log.Warn("Signature verification failed")
			return false
		}
		return true
	case ed25519.PublicKey:
		if !ed25519.Verify(pub, []byte(message), sig) {
			v.log.Warn("Signature verification failed")
			return false
		}
		return true
	default:
		v.log.Error("Unsupported public key type for verification")
		return false
	}
}
