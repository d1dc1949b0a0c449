// Package editor keeps a security-config document in sync with the surfaces
// that edit it.
//
// A Session has three tabs: the client tab (endpoint, identity and key
// fields plus the client mode), the servers tab (one draft per server) and
// the raw JSON tab. Edits stay in their surface until the user leaves the
// tab; only then are dirty values that pass their rules merged, as a Commit,
// into the canonical document. Invalid values stay dirty and are not merged.
//
// Client identity and key edits are copied into servers whose mode is
// exactly PSK. Servers in RPK or X509 mode are never rewritten.
package editor
