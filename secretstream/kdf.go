package secretstream

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// SaltBytes is the recommended salt length for KeyFromPassphrase.
const SaltBytes = 16

// DeriveKey derives a stream key from a master secret using HKDF-SHA256.
// salt can be nil (uses zero salt); info provides context binding, so one
// master secret can serve many independent streams or directions.
func DeriveKey(secret, salt, info []byte) (Key, error) {
	hk := hkdf.New(sha256.New, secret, salt, info)
	var k Key
	if _, err := io.ReadFull(hk, k[:]); err != nil {
		return Key{}, err
	}
	return k, nil
}

// KeyFromPassphrase derives a stream key from a passphrase using Argon2id.
// The salt must be stored alongside the ciphertext and must be unique per
// key; use SaltBytes random bytes.
func KeyFromPassphrase(passphrase, salt []byte) Key {
	var k Key
	raw := argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeyBytes)
	copy(k[:], raw)
	return k
}
