// Package secretstream implements streaming authenticated encryption with
// a single symmetric key.
//
// A stream is an ordered sequence of encrypted chunks. Each chunk is
// independently authenticated, carries a semantic tag (message boundary,
// flush point, key rotation, end of stream) and may bind optional
// associated data into its authentication tag. Chunks cannot be truncated,
// removed, reordered, duplicated or modified without detection.
//
// Design goals:
//   - Fast on commodity hardware (ChaCha20-Poly1305, no AES-NI required)
//   - Forward secrecy via one-way key ratcheting ("rekeying")
//   - No per-chunk overhead beyond a fixed ABytes expansion
//   - Nonces managed internally; ordering enforced by state evolution
//
// An encrypted stream starts with a short public header of HeaderBytes
// bytes. The header must be sent or stored before the encrypted chunks,
// as it is required to decrypt the stream. A header must never be reused
// with the same key.
package secretstream
