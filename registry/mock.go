package registry

import (
	"context"
	"time"

	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the interfaces.EnrollmentRegistry interface.
type MockRegistry struct {
	mock.Mock
}

// Status mocks the Status method.
func (m *MockRegistry) Status(ctx context.Context, name interfaces.DeviceName) (interfaces.EnrollmentStatus, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(interfaces.EnrollmentStatus), args.Error(1)
}

// MarkProvisioned mocks the MarkProvisioned method.
func (m *MockRegistry) MarkProvisioned(ctx context.Context, name interfaces.DeviceName, region string, at time.Time) error {
	args := m.Called(ctx, name, region, at)
	return args.Error(0)
}
