package issuer

import (
	"context"

	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockIssuer mocks the interfaces.CredentialIssuer interface.
type MockIssuer struct {
	mock.Mock
}

// Issue mocks the Issue method.
func (m *MockIssuer) Issue(ctx context.Context, name interfaces.DeviceName, region string, csr interfaces.CSRPEM) (*interfaces.IssuedCredential, error) {
	args := m.Called(ctx, name, region, csr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.IssuedCredential), args.Error(1)
}
