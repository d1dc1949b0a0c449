// Package backup writes and restores portable archives of a storage.KVEngine.
//
// Archive layout:
//
//	magic "LWSCBKUP"
//	uint32 header length, JSON header
//	uint32 body length, body (engine snapshot, sealed when a passphrase is set)
//	SHA-256 of everything above
//
// Sealed archives derive their key from the passphrase with Argon2id and
// encrypt with AES-256-GCM or ChaCha20-Poly1305. The header is bound to the
// ciphertext as additional data.
package backup
