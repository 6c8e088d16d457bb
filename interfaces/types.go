package interfaces

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fleetops/device-provisioning-backend/cryptoutils"
)

type CSRPEM = cryptoutils.CSRPEM
type CertificatePEM = cryptoutils.CertificatePEM
type PrivateKeyPEM = cryptoutils.PrivateKeyPEM
type PublicKeyPEM = cryptoutils.PublicKeyPEM

// deviceNameRegex matches the fleet platform's identifier charset.
var deviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9:_-]+$`)

// DeviceName is the stable identity a device uses to identify itself to
// the broker. It is always supplied by the caller, never generated here.
type DeviceName string

// NewDeviceName creates a device name with validation.
func NewDeviceName(name string) (DeviceName, error) {
	if name == "" {
		return "", errors.New("device name must not be empty")
	}
	if len(name) > 128 {
		return "", errors.New("device name must be at most 128 characters")
	}
	if !deviceNameRegex.MatchString(name) {
		return "", fmt.Errorf("device name contains invalid characters: %q", name)
	}
	return DeviceName(name), nil
}

// String returns the device name as a string.
func (n DeviceName) String() string {
	return string(n)
}

// EnrollmentStatus is the provisioning state recorded for a device.
type EnrollmentStatus string

const (
	// StatusUnprovisioned marks a device that is allow-listed for
	// enrollment but has not yet provisioned.
	StatusUnprovisioned EnrollmentStatus = "unprovisioned"

	// StatusProvisioned marks a device that has completed enrollment.
	// There is no transition back to unprovisioned.
	StatusProvisioned EnrollmentStatus = "provisioned"
)

// EnrollmentRecord is the durable registry entry for a device. Records
// are created out-of-band with StatusUnprovisioned and updated exactly
// once by the broker on successful issuance.
type EnrollmentRecord struct {
	Name          DeviceName
	Status        EnrollmentStatus
	Region        string
	ProvisionedAt time.Time
}

// GeoPoint is a geographic coordinate pair in decimal degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Region is a candidate operating region with the coordinates used for
// proximity selection. The catalog is fixed at deploy time.
type Region struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// IssuedCredential is the output of a successful credential issuance.
type IssuedCredential struct {
	// EndpointAddress is the regional endpoint the device connects to.
	EndpointAddress string

	// CertificateID identifies the issued certificate; safe to log.
	CertificateID string

	// Certificate is the issued device certificate.
	Certificate CertificatePEM

	// PrivateKey is set only when the backend generated the key pair,
	// i.e. the request carried no CSR. Nil otherwise.
	PrivateKey PrivateKeyPEM
}
