package secretstream

import "errors"

var (
	// ErrInvalidKeySize is returned when key material is not KeyBytes long.
	ErrInvalidKeySize = errors.New("secretstream: invalid key size")
	// ErrInvalidHeaderSize is returned when a header is not HeaderBytes long.
	ErrInvalidHeaderSize = errors.New("secretstream: invalid header size")
	// ErrCiphertextTooShort is returned when a ciphertext is shorter than
	// the fixed ABytes expansion. It is rejected before any cryptographic
	// processing.
	ErrCiphertextTooShort = errors.New("secretstream: ciphertext too short")
	// ErrDecryptionFailed is returned when a chunk fails authentication:
	// corrupted ciphertext, wrong associated data, or a missing, reordered
	// or duplicated chunk. The stream must not be trusted from this point;
	// there is no resynchronization.
	ErrDecryptionFailed = errors.New("secretstream: decryption failed")
	// ErrInvalidTag is returned when a chunk authenticates but carries a
	// tag byte outside the four known tags. Treated as fatal, like an
	// authentication failure.
	ErrInvalidTag = errors.New("secretstream: invalid tag")
	// ErrStreamFinalized is returned when encrypting on an encryptor that
	// already emitted a Final chunk.
	ErrStreamFinalized = errors.New("secretstream: stream already finalized")
)
