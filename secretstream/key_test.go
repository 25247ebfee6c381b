package secretstream

import (
	"bytes"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	k2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("two generated keys are identical")
	}
	if k1 == (Key{}) {
		t.Fatalf("generated key is all zeros")
	}
}

func TestKeyFromBytes(t *testing.T) {
	raw := make([]byte, KeyBytes)
	for i := range raw {
		raw[i] = byte(i)
	}
	k, err := KeyFromBytes(raw)
	if err != nil {
		t.Fatalf("KeyFromBytes: %v", err)
	}
	if !bytes.Equal(k[:], raw) {
		t.Fatalf("key bytes mismatch")
	}

	if _, err := KeyFromBytes(raw[:KeyBytes-1]); err != ErrInvalidKeySize {
		t.Fatalf("short key: err = %v, want ErrInvalidKeySize", err)
	}
	if _, err := KeyFromBytes(append(raw, 0)); err != ErrInvalidKeySize {
		t.Fatalf("long key: err = %v, want ErrInvalidKeySize", err)
	}
}

func TestHeaderFromBytes(t *testing.T) {
	raw := make([]byte, HeaderBytes)
	h, err := HeaderFromBytes(raw)
	if err != nil {
		t.Fatalf("HeaderFromBytes: %v", err)
	}
	if !bytes.Equal(h.Bytes(), raw) {
		t.Fatalf("header bytes mismatch")
	}
	if _, err := HeaderFromBytes(raw[:HeaderBytes-1]); err != ErrInvalidHeaderSize {
		t.Fatalf("short header: err = %v, want ErrInvalidHeaderSize", err)
	}
}

func TestKeyWipe(t *testing.T) {
	k, _ := GenerateKey()
	k.Wipe()
	if k != (Key{}) {
		t.Fatalf("key not wiped")
	}
}

func TestDeriveKey(t *testing.T) {
	secret := []byte("master secret")

	k1, err := DeriveKey(secret, nil, []byte("stream 1"))
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, err := DeriveKey(secret, nil, []byte("stream 2"))
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("different info produced the same key")
	}

	// Deterministic for identical inputs.
	again, err := DeriveKey(secret, nil, []byte("stream 1"))
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if k1 != again {
		t.Fatalf("derivation not deterministic")
	}
}

func TestKeyFromPassphrase(t *testing.T) {
	salt := make([]byte, SaltBytes)
	k1 := KeyFromPassphrase([]byte("correct horse"), salt)
	k2 := KeyFromPassphrase([]byte("correct horse"), salt)
	if k1 != k2 {
		t.Fatalf("derivation not deterministic")
	}

	salt[0] ^= 1
	k3 := KeyFromPassphrase([]byte("correct horse"), salt)
	if k1 == k3 {
		t.Fatalf("different salt produced the same key")
	}
}

func TestTagString(t *testing.T) {
	cases := []struct {
		tag  Tag
		want string
	}{
		{TagMessage, "MESSAGE"},
		{TagPush, "PUSH"},
		{TagRekey, "REKEY"},
		{TagFinal, "FINAL"},
		{Tag(0x7f), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.tag.String(); got != c.want {
			t.Fatalf("Tag(%d).String() = %q, want %q", c.tag, got, c.want)
		}
	}
}

func TestTagFromByte(t *testing.T) {
	for _, b := range []byte{0x00, 0x01, 0x02, 0x03} {
		tag, err := tagFromByte(b)
		if err != nil {
			t.Fatalf("tagFromByte(%d): %v", b, err)
		}
		if byte(tag) != b {
			t.Fatalf("tag does not round-trip: %d != %d", tag, b)
		}
	}
	for _, b := range []byte{0x04, 0x10, 0xff} {
		if _, err := tagFromByte(b); err != ErrInvalidTag {
			t.Fatalf("tagFromByte(%d): err = %v, want ErrInvalidTag", b, err)
		}
	}
}
