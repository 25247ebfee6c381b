package secretstream

import (
	"crypto/rand"
	"io"
)

// Encryptor holds the sending side of a stream. It is created together
// with the stream header, produces chunks strictly in order, and must not
// be used concurrently: each chunk's encryption depends on the state left
// behind by the previous one. Distinct encryptors are fully independent.
type Encryptor struct {
	state     streamState
	finalized bool
}

// NewEncryptor starts a new stream under key. It generates a fresh random
// header and derives the initial state from it. The returned header must
// reach the decryptor before the first chunk.
func NewEncryptor(key Key) (*Encryptor, Header, error) {
	var header Header
	if _, err := io.ReadFull(rand.Reader, header[:]); err != nil {
		return nil, Header{}, err
	}
	st, err := newStreamState(key, header)
	if err != nil {
		return nil, Header{}, err
	}
	return &Encryptor{state: st}, header, nil
}

// Encrypt produces the next chunk of the stream. ad is optional associated
// data covered by the authentication tag but not transmitted; the
// decryptor must supply the identical bytes. tag must be one of the four
// known tags. Encrypting with TagFinal finalizes the stream and wipes the
// state; any further call fails with ErrStreamFinalized.
func (e *Encryptor) Encrypt(plaintext, ad []byte, tag Tag) ([]byte, error) {
	if e.finalized {
		return nil, ErrStreamFinalized
	}
	if _, err := tagFromByte(byte(tag)); err != nil {
		return nil, err
	}
	out, err := e.state.seal(plaintext, ad, tag)
	if err != nil {
		return nil, err
	}
	if tag == TagFinal {
		e.finalized = true
		e.state.wipe()
	}
	return out, nil
}

// Message encrypts a chunk with TagMessage.
func (e *Encryptor) Message(plaintext, ad []byte) ([]byte, error) {
	return e.Encrypt(plaintext, ad, TagMessage)
}

// Push encrypts a chunk with TagPush, marking the end of a logical set of
// chunks without closing the stream.
func (e *Encryptor) Push(plaintext, ad []byte) ([]byte, error) {
	return e.Encrypt(plaintext, ad, TagPush)
}

// RekeyMessage encrypts a chunk with TagRekey. The key rotation happens on
// both sides as part of processing the chunk; no out-of-band coordination
// is needed.
func (e *Encryptor) RekeyMessage(plaintext, ad []byte) ([]byte, error) {
	return e.Encrypt(plaintext, ad, TagRekey)
}

// Finalize encrypts the last chunk of the stream with TagFinal and
// terminates the encryptor. The plaintext may be empty.
func (e *Encryptor) Finalize(plaintext, ad []byte) ([]byte, error) {
	return e.Encrypt(plaintext, ad, TagFinal)
}

// Rekey ratchets the state without emitting a chunk. Nothing on the wire
// signals the rotation: the decryptor must call Rekey at the exact same
// position in the stream, or every subsequent chunk fails authentication.
func (e *Encryptor) Rekey() error {
	if e.finalized {
		return ErrStreamFinalized
	}
	return e.state.rekey()
}
