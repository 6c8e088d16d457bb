// Package keysource loads the pre-distributed verification public key
// the broker uses to authenticate enrollment requests. Sources are
// selected by URI scheme: a local file for simple deployments, or a
// HashiCorp Vault KV v2 secret when the key is centrally managed.
package keysource
