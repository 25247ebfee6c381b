package secretstream

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305"
)

// streamState is the evolving secret shared (by construction, never by
// wire) between an encryptor and a decryptor. It holds the current working
// key and the two nonce components: a 32-bit chunk counter and a 64-bit
// implicit nonce. After every chunk the implicit nonce is XORed with the
// chunk's MAC and the counter is incremented, so both sides stay
// synchronized with zero wire overhead and no nonce ever repeats within a
// key's lifetime.
type streamState struct {
	key     [KeyBytes]byte
	inonce  [8]byte
	counter uint32
}

// zeroPad backs the 16-byte alignment padding fed to the MAC.
var zeroPad [16]byte

// newStreamState derives the initial state from a key and a header. The
// derivation is deterministic: both sides reach an identical state from
// identical inputs. The working key comes from HChaCha20 over the first 16
// header bytes; the remaining 8 header bytes seed the implicit nonce.
func newStreamState(key Key, header Header) (streamState, error) {
	derived, err := chacha20.HChaCha20(key[:], header[:16])
	if err != nil {
		return streamState{}, err
	}

	var st streamState
	copy(st.key[:], derived)
	copy(st.inonce[:], header[16:])
	st.resetCounter()
	return st, nil
}

func (st *streamState) nonce() []byte {
	n := make([]byte, chacha20.NonceSize)
	binary.LittleEndian.PutUint32(n[:4], st.counter)
	copy(n[4:], st.inonce[:])
	return n
}

func (st *streamState) resetCounter() {
	st.counter = 1
}

// pad16 returns the number of zero bytes needed to reach the next 16-byte
// boundary after n bytes.
func pad16(n int) int {
	return -n & 0xf
}

// seal encrypts one chunk under the current state and advances it.
// The tag byte travels encrypted inside the first ciphertext byte and is
// covered by the MAC along with the associated data, so neither can be
// altered undetected. Output length is len(plaintext) + ABytes.
func (st *streamState) seal(plaintext, ad []byte, tag Tag) ([]byte, error) {
	stream, err := chacha20.NewUnauthenticatedCipher(st.key[:], st.nonce())
	if err != nil {
		return nil, err
	}

	// Keystream block 0 keys the one-time authenticator.
	var block [64]byte
	stream.XORKeyStream(block[:], block[:])
	var macKey [32]byte
	copy(macKey[:], block[:32])
	mac := poly1305.New(&macKey)

	mac.Write(ad)
	mac.Write(zeroPad[:pad16(len(ad))])

	// Keystream block 1 encrypts the tag byte; the full block is
	// authenticated so the tag cannot be moved or flipped.
	for i := range block {
		block[i] = 0
	}
	block[0] = byte(tag)
	stream.XORKeyStream(block[:], block[:])
	mac.Write(block[:])

	mlen := len(plaintext)
	out := make([]byte, mlen+ABytes)
	out[0] = block[0]

	ct := out[1 : 1+mlen]
	stream.XORKeyStream(ct, plaintext)
	mac.Write(ct)
	mac.Write(zeroPad[:(0x10+mlen-len(block))&0xf])

	var lens [16]byte
	binary.LittleEndian.PutUint64(lens[:8], uint64(len(ad)))
	binary.LittleEndian.PutUint64(lens[8:], uint64(len(block)+mlen))
	mac.Write(lens[:])

	sum := mac.Sum(out[1+mlen:][:0])

	if err := st.advance(sum, tag); err != nil {
		return nil, err
	}
	return out, nil
}

// open verifies and decrypts one chunk and advances the state. It fails
// closed: no plaintext is released and the state is left untouched unless
// the MAC verifies and the tag byte decodes to a known tag.
func (st *streamState) open(ciphertext, ad []byte) ([]byte, Tag, error) {
	if len(ciphertext) < ABytes {
		return nil, 0, ErrCiphertextTooShort
	}

	stream, err := chacha20.NewUnauthenticatedCipher(st.key[:], st.nonce())
	if err != nil {
		return nil, 0, err
	}

	var block [64]byte
	stream.XORKeyStream(block[:], block[:])
	var macKey [32]byte
	copy(macKey[:], block[:32])
	mac := poly1305.New(&macKey)

	mac.Write(ad)
	mac.Write(zeroPad[:pad16(len(ad))])

	for i := range block {
		block[i] = 0
	}
	block[0] = ciphertext[0]
	stream.XORKeyStream(block[:], block[:])
	tagByte := block[0]
	block[0] = ciphertext[0]
	mac.Write(block[:])

	mlen := len(ciphertext) - ABytes
	ct := ciphertext[1 : 1+mlen]
	mac.Write(ct)
	mac.Write(zeroPad[:(0x10+mlen-len(block))&0xf])

	var lens [16]byte
	binary.LittleEndian.PutUint64(lens[:8], uint64(len(ad)))
	binary.LittleEndian.PutUint64(lens[8:], uint64(len(block)+mlen))
	mac.Write(lens[:])

	storedMAC := ciphertext[1+mlen:]
	if !mac.Verify(storedMAC) {
		return nil, 0, ErrDecryptionFailed
	}

	tag, err := tagFromByte(tagByte)
	if err != nil {
		return nil, 0, err
	}

	plaintext := make([]byte, mlen)
	stream.XORKeyStream(plaintext, ct)

	if err := st.advance(storedMAC, tag); err != nil {
		return nil, 0, err
	}
	return plaintext, tag, nil
}

// advance performs the per-chunk state transition: fold the chunk MAC into
// the implicit nonce and bump the counter. Chunks tagged with the Rekey
// bit (Rekey and Final) additionally ratchet the key, as does a counter
// wrap.
func (st *streamState) advance(mac []byte, tag Tag) error {
	for i := range st.inonce {
		st.inonce[i] ^= mac[i]
	}
	st.counter++
	if tag&TagRekey != 0 || st.counter == 0 {
		return st.rekey()
	}
	return nil
}

// rekey irreversibly ratchets the state: the current key and implicit
// nonce are replaced by their encryption under the current key, and the
// counter resets. The previous key cannot be recovered from the new state,
// so chunks already produced stay secret if the new state leaks.
func (st *streamState) rekey() error {
	var buf [KeyBytes + 8]byte
	copy(buf[:KeyBytes], st.key[:])
	copy(buf[KeyBytes:], st.inonce[:])

	stream, err := chacha20.NewUnauthenticatedCipher(st.key[:], st.nonce())
	if err != nil {
		return err
	}
	stream.XORKeyStream(buf[:], buf[:])

	copy(st.key[:], buf[:KeyBytes])
	copy(st.inonce[:], buf[KeyBytes:])
	for i := range buf {
		buf[i] = 0
	}
	st.resetCounter()
	return nil
}

// wipe overwrites the state's secret material.
func (st *streamState) wipe() {
	for i := range st.key {
		st.key[i] = 0
	}
	for i := range st.inonce {
		st.inonce[i] = 0
	}
	st.counter = 0
}
