package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned when a device has no enrollment record.
var ErrRecordNotFound = errors.New("no enrollment record for device")

// ErrNotEligible is returned by MarkProvisioned when the record's status
// is no longer unprovisioned, which happens when a concurrent request
// for the same device won the update.
var ErrNotEligible = errors.New("device is not eligible for provisioning")

// EnrollmentRegistry is the durable store gatekeeping enrollment.
// Records are keyed by device name and created out-of-band; the broker
// only reads status and performs the single unprovisioned->provisioned
// transition.
type EnrollmentRegistry interface {
	// Status returns the enrollment status recorded for the device.
	// Returns ErrRecordNotFound when no usable record exists.
	Status(ctx context.Context, name DeviceName) (EnrollmentStatus, error)

	// MarkProvisioned transitions the record to provisioned, recording
	// the selected region and timestamp. The update is conditional on
	// the current status still being unprovisioned; a lost race returns
	// ErrNotEligible.
	MarkProvisioned(ctx context.Context, name DeviceName, region string, at time.Time) error
}
