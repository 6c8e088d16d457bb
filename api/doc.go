// Package api defines the wire types of the provisioning endpoint and
// the provider interface consumed by device-side tooling. The JSON
// field names are frozen: they match what deployed devices already
// send and expect.
package api
