// Package credstore persists the access token, the selected server URL and
// the account name for reuse across runs.
//
// # Storage
//
// All values live in a single document under the storage directory:
//
//	~/.config/replex/credentials.json
//
// The document is sealed with AES-256-GCM. The key is derived with
// HKDF-SHA256 from a random master key kept next to it in master.key (0600).
// If the master key cannot be read or created, the store keeps working in
// plaintext mode and logs a SECURITY_AUDIT warning with event
// "encryption_unavailable"; Encrypted reports the degraded posture.
//
// # Consistency
//
// Writes replace the whole document through a temp file and rename, so
// readers see either the old or the new state, never a mix. Writes are
// last-writer-wins. Clear removes every key in one step.
//
// # Usage
//
//	store, err := credstore.Open(credstore.Config{Dir: dir})
//	if err := store.SaveToken(token); err != nil { ... }
//	if token, ok := store.Token(); ok { ... }
//
//	// Let an HTTP layer pull the current token:
//	src := store.TokenSource()
package credstore
