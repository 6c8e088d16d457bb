package api

// Status values carried in ProvisioningResponse.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ProvisioningRequest is the enrollment request body. Field names are
// part of the deployed device wire format and must not change.
type ProvisioningRequest struct {
	// ThingName is the device identity being enrolled.
	ThingName string `json:"thing-name"`

	// ThingNameSig is the base64 signature over the raw bytes of
	// ThingName, created with the pre-shared signing key.
	ThingNameSig string `json:"thing-name-sig"`

	// CSR optionally carries a PEM certificate signing request for
	// devices that keep their own private key.
	CSR string `json:"CSR,omitempty"`
}

// ProvisioningResponse is the enrollment response body. On error only
// Status and Message are populated; no credential material ever
// accompanies an error status.
type ProvisioningResponse struct {
	Status string `json:"status"`

	// Region is the selected operating region.
	Region string `json:"region,omitempty"`

	// DistanceKm is the great-circle distance to the selected region.
	// Absent when the default region was used.
	DistanceKm *float64 `json:"distance,omitempty"`

	// EndpointAddress is the regional endpoint the device connects to.
	EndpointAddress string `json:"endpointAddress,omitempty"`

	// CertificatePem is the issued device certificate.
	CertificatePem string `json:"certificatePem,omitempty"`

	// PrivateKey is present exactly once, and only when the request did
	// not carry a CSR. The field casing is part of the wire format.
	PrivateKey string `json:"PrivateKey,omitempty"`

	Message string `json:"message,omitempty"`
}

// ProvisioningProvider abstracts the broker endpoint for device-side
// tooling.
type ProvisioningProvider interface {
	// Provision submits an enrollment request. The response is returned
	// for both success and error statuses; the error return is reserved
	// for transport failures.
	Provision(req *ProvisioningRequest) (*ProvisioningResponse, error)
}
