// Package common holds process-level helpers shared by all binaries:
// logger setup and build version information.
package common

// PackageName identifies this module in metrics and logs.
const PackageName = "device-provisioning-backend"

// Version is the service version. Overridden at build time via
// -ldflags "-X github.com/fleetops/device-provisioning-backend/common.Version=...".
var Version = "dev"
