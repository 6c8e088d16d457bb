package cryptoutils

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// ParsePrivateKey decodes a PEM-encoded private key. It accepts PKCS#8,
// PKCS#1 RSA, and SEC1 EC key blocks.
func ParsePrivateKey(keyPEM PrivateKeyPEM) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("failed to decode private key PEM block")
	}

	switch block.Type {
	case "PRIVATE KEY":
		return x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported private key PEM block type: %s", block.Type)
	}
}

// SignMessage signs message with the given private key and returns the
// base64-encoded signature in the format expected by Verifier.Verify.
func SignMessage(keyPEM PrivateKeyPEM, message string) (string, error) {
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(message))

	var sig []byte
	switch key := key.(type) {
	case *rsa.PrivateKey:
		sig, err = rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	case *ecdsa.PrivateKey:
		sig, err = ecdsa.SignASN1(rand.Reader, key, digest[:])
	case ed25519.PrivateKey:
		sig = ed25519.Sign(key, []byte(message))
	default:
		return "", errors.New("unsupported private key type for signing")
	}
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// CreateCSRWithRandomKey generates a fresh RSA-2048 key pair and a CSR
// with the provided common name. Used by devices that keep their private
// key local and only submit the signing request.
func CreateCSRWithRandomKey(commonName string) (PrivateKeyPEM, CSRPEM, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	csrTemplate := x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName: commonName,
		},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}

	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &csrTemplate, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate request: %w", err)
	}

	csrPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE REQUEST",
		Bytes: csrDER,
	})

	return keyPEM, csrPEM, nil
}

// MarshalPublicKey encodes the public counterpart of a PEM private key
// as a PKIX "PUBLIC KEY" PEM block.
func MarshalPublicKey(keyPEM PrivateKeyPEM) (PublicKeyPEM, error) {
	key, err := ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, errors.New("private key does not expose a public key")
	}

	pubDER, err := x509.MarshalPKIXPublicKey(signer.Public())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	}), nil
}
