package stream

import (
	"encoding/binary"
	"io"

	"github.com/TheusHen/secretstream/secretstream"
)

// Reader decrypts a framed secretstream. Read returns io.EOF after the
// Final chunk; if the underlying reader runs out before that, Read returns
// ErrTruncated. Any authentication failure is terminal.
type Reader struct {
	r       io.Reader
	dec     *secretstream.Decryptor
	unread  []byte
	lastTag secretstream.Tag
	err     error
}

// NewReader opens an encrypted stream from r under key. It consumes the
// stream header immediately.
func NewReader(r io.Reader, key secretstream.Key) (*Reader, error) {
	var raw [secretstream.HeaderBytes]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	header, err := secretstream.HeaderFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	dec, err := secretstream.NewDecryptor(header, key)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, dec: dec}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil && len(r.unread) == 0 {
		return 0, r.err
	}

	for len(r.unread) == 0 {
		if r.dec.IsFinalized() {
			r.err = io.EOF
			return 0, io.EOF
		}
		if err := r.readChunk(); err != nil {
			r.err = err
			return 0, err
		}
	}

	n := copy(p, r.unread)
	r.unread = r.unread[n:]
	return n, nil
}

// AtRecordBoundary reports whether the last byte handed out by Read ended
// a Push-tagged chunk, i.e. a record boundary the writing side flushed.
func (r *Reader) AtRecordBoundary() bool {
	return r.lastTag == secretstream.TagPush && len(r.unread) == 0
}

// Rekey mirrors Writer.Rekey and must be called at the same chunk
// position.
func (r *Reader) Rekey() error {
	return r.dec.Rekey()
}

// Finalized reports whether the Final chunk has been decrypted.
func (r *Reader) Finalized() bool {
	return r.dec.IsFinalized()
}

// readChunk reads, verifies and unpacks the next framed chunk into the
// unread buffer.
func (r *Reader) readChunk() error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}

	clen := binary.BigEndian.Uint32(lenBuf[:])
	if clen > MaxChunkSize {
		return ErrChunkTooLarge
	}

	ciphertext := make([]byte, clen)
	if _, err := io.ReadFull(r.r, ciphertext); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}

	plaintext, tag, err := r.dec.Decrypt(ciphertext, lenBuf[:])
	if err != nil {
		return err
	}
	if len(plaintext) < 1 {
		return ErrCorruptChunk
	}

	payload := plaintext[1:]
	switch plaintext[0] {
	case flagRaw:
	case flagCompressed:
		payload, err = unpackPayload(payload, MaxChunkSize)
		if err != nil {
			return err
		}
	default:
		return ErrCorruptChunk
	}

	r.unread = payload
	r.lastTag = tag
	return nil
}
