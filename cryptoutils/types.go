package cryptoutils

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// CSRPEM is a PEM-encoded X.509 certificate signing request supplied by
// a device that keeps its own private key.
type CSRPEM []byte

// GetX509CSR parses the PEM data into an x509.CertificateRequest.
func (csr CSRPEM) GetX509CSR() (*x509.CertificateRequest, error) {
	block, _ := pem.Decode(csr)
	if block == nil || block.Type != "CERTIFICATE REQUEST" {
		return nil, errors.New("failed to decode CSR PEM block")
	}
	return x509.ParseCertificateRequest(block.Bytes)
}

// Validate checks that the CSR parses and carries a valid self-signature.
func (csr CSRPEM) Validate() error {
	parsed, err := csr.GetX509CSR()
	if err != nil {
		return err
	}
	return parsed.CheckSignature()
}

// CertificatePEM is a PEM-encoded X.509 certificate issued for a device.
type CertificatePEM []byte

// GetX509Cert parses the PEM data into an x509.Certificate.
func (cert CertificatePEM) GetX509Cert() (*x509.Certificate, error) {
	block, _ := pem.Decode(cert)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("failed to decode certificate PEM block")
	}
	return x509.ParseCertificate(block.Bytes)
}

// PrivateKeyPEM is a PEM-encoded private key. Returned to a device
// exactly once when the backend generated the key pair; never persisted
// or logged by this service.
type PrivateKeyPEM []byte

// PublicKeyPEM is a PEM-encoded public key used to verify device
// enrollment signatures.
type PublicKeyPEM []byte

// GetPublicKey parses the PEM data into a crypto.PublicKey. It accepts
// PKIX public key blocks, PKCS#1 RSA public key blocks, and certificates.
func (pub PublicKeyPEM) GetPublicKey() (crypto.PublicKey, error) {
	block, _ := pem.Decode(pub)
	if block == nil {
		return nil, errors.New("failed to decode public key PEM block")
	}

	switch block.Type {
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		return cert.PublicKey, nil
	default:
		return nil, fmt.Errorf("unsupported public key PEM block type: %s", block.Type)
	}
}
