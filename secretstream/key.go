package secretstream

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeyBytes is the length of a stream key.
	KeyBytes = chacha20poly1305.KeySize
	// HeaderBytes is the length of the public header that starts an
	// encrypted stream.
	HeaderBytes = 24
	// ABytes is the fixed per-chunk expansion: ciphertext length is always
	// plaintext length + ABytes.
	ABytes = 17
)

// Key is the long-term secret shared by both ends of a stream. It is never
// transmitted. The same key may seed any number of independent streams,
// each with its own fresh header.
type Key [KeyBytes]byte

// GenerateKey returns a new random key. Safe for concurrent use.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return Key{}, err
	}
	return k, nil
}

// KeyFromBytes copies b into a Key. b must be exactly KeyBytes long.
func KeyFromBytes(b []byte) (Key, error) {
	if len(b) != KeyBytes {
		return Key{}, ErrInvalidKeySize
	}
	var k Key
	copy(k[:], b)
	return k, nil
}

// Wipe overwrites the key material with zeros.
func (k *Key) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// Header is the public per-stream initialization value. It is not secret
// and may be sent or stored in cleartext, but decryption with a different
// header fails. Reusing a header with the same key for two different
// streams breaks the confidentiality and integrity guarantees.
type Header [HeaderBytes]byte

// HeaderFromBytes copies b into a Header. b must be exactly HeaderBytes long.
func HeaderFromBytes(b []byte) (Header, error) {
	if len(b) != HeaderBytes {
		return Header{}, ErrInvalidHeaderSize
	}
	var h Header
	copy(h[:], b)
	return h, nil
}

// Bytes returns the header as a byte slice for transmission or storage.
func (h Header) Bytes() []byte {
	out := make([]byte, HeaderBytes)
	copy(out, h[:])
	return out
}
