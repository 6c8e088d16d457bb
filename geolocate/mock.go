package geolocate

import (
	"context"

	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockLocator mocks the interfaces.Locator interface.
type MockLocator struct {
	mock.Mock
}

// Locate mocks the Locate method.
func (m *MockLocator) Locate(ctx context.Context, ipAddress string) (interfaces.GeoPoint, bool, error) {
	args := m.Called(ctx, ipAddress)
	return args.Get(0).(interfaces.GeoPoint), args.Bool(1), args.Error(2)
}
