package interfaces

import "context"

// CredentialIssuer allocates operating credentials for a device in a
// region: endpoint address, access policy, identity record, certificate
// and (when no CSR is supplied) a generated key pair.
//
// Implementations must be idempotent with respect to create operations:
// an access policy or identity record that already exists is success,
// not failure. Any other failure aborts the whole issuance with no
// partial result.
type CredentialIssuer interface {
	// Issue runs the issuance sequence for the device in the named
	// region. csr may be nil, in which case the backend generates the
	// key pair and the result carries the private key.
	Issue(ctx context.Context, name DeviceName, region string, csr CSRPEM) (*IssuedCredential, error)
}
