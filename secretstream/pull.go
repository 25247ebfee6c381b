package secretstream

// Decryptor holds the receiving side of a stream. Chunks must be fed in
// the exact order they were produced; there is no sequence number on the
// wire, so a dropped, duplicated or reordered chunk surfaces as an
// authentication failure on the next Decrypt. Like Encryptor, a Decryptor
// is single-caller sequential.
type Decryptor struct {
	state     streamState
	finalized bool
}

// NewDecryptor derives the receiving state from the stream header and the
// shared key. It must see the same header the encryptor generated.
func NewDecryptor(header Header, key Key) (*Decryptor, error) {
	st, err := newStreamState(key, header)
	if err != nil {
		return nil, err
	}
	return &Decryptor{state: st}, nil
}

// Decrypt verifies and decrypts the next chunk, returning the plaintext
// and the tag the encryptor attached. ad must be byte-identical to what
// the encryptor supplied (nil for none). On any error no plaintext is
// released and the stream must be considered broken from this point.
// A TagFinal chunk marks the decryptor finalized.
func (d *Decryptor) Decrypt(ciphertext, ad []byte) ([]byte, Tag, error) {
	plaintext, tag, err := d.state.open(ciphertext, ad)
	if err != nil {
		return nil, 0, err
	}
	if tag == TagFinal {
		d.finalized = true
	}
	return plaintext, tag, nil
}

// Rekey mirrors Encryptor.Rekey. It must be called at the exact same
// stream position as the encryptor-side call; the protocol cannot detect
// a mismatch, it only manifests as authentication failures.
func (d *Decryptor) Rekey() error {
	return d.state.rekey()
}

// IsFinalized reports whether a TagFinal chunk has been decrypted.
// Callers normally feed chunks in a loop until this returns true.
func (d *Decryptor) IsFinalized() bool {
	return d.finalized
}
