// Package broker implements the provisioning request pipeline. A
// request is authenticated against the fleet signing key, checked for
// enrollment eligibility, geolocated to pick the nearest operating
// region, and finally exchanged for device credentials. Every rejection
// path returns one of a fixed set of short messages; the detailed cause
// is only ever logged.
package broker
