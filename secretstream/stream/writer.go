package stream

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/TheusHen/secretstream/secretstream"
)

const (
	// DefaultChunkSize is the default plaintext chunk size (256 KB) -
	// large enough to amortize per-chunk overhead on bulk transfers.
	DefaultChunkSize = 256 * 1024

	// MaxChunkSize bounds the ciphertext length a Reader will accept,
	// limiting memory committed to a single corrupt or hostile frame.
	MaxChunkSize = 16 * 1024 * 1024

	// Chunk payload flag byte, prepended to the plaintext before sealing.
	flagRaw        = 0x00
	flagCompressed = 0x01
)

var (
	// ErrWriterClosed is returned when writing to a closed Writer.
	ErrWriterClosed = errors.New("stream: writer closed")
	// ErrChunkTooLarge is returned when a frame announces a ciphertext
	// larger than MaxChunkSize.
	ErrChunkTooLarge = errors.New("stream: chunk too large")
	// ErrTruncated is returned when the underlying stream ends before a
	// Final chunk was seen.
	ErrTruncated = errors.New("stream: stream truncated before final chunk")
	// ErrCorruptChunk is returned when a chunk authenticates but its
	// payload envelope is malformed.
	ErrCorruptChunk = errors.New("stream: corrupt chunk payload")
)

type writerConfig struct {
	chunkSize int
	compress  bool
	level     CompressionLevel
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

// WithChunkSize sets the plaintext chunk size. Values below 1 fall back to
// DefaultChunkSize.
func WithChunkSize(n int) WriterOption {
	return func(c *writerConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithCompression enables per-chunk LZ4 compression before encryption.
// Readers need no matching option.
func WithCompression(level CompressionLevel) WriterOption {
	return func(c *writerConfig) {
		c.compress = true
		c.level = level
	}
}

// Writer encrypts everything written to it into a framed secretstream.
// Close must be called to emit the Final chunk; without it the stream is
// detectably truncated. Writer does not close the underlying io.Writer.
type Writer struct {
	w      io.Writer
	enc    *secretstream.Encryptor
	buf    []byte
	n      int
	cfg    writerConfig
	closed bool
	err    error
}

// NewWriter starts an encrypted stream on w under key. The stream header
// is written immediately.
func NewWriter(w io.Writer, key secretstream.Key, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{chunkSize: DefaultChunkSize, level: CompressionDefault}
	for _, opt := range opts {
		opt(&cfg)
	}

	enc, header, err := secretstream.NewEncryptor(key)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(header.Bytes()); err != nil {
		return nil, err
	}

	return &Writer{
		w:   w,
		enc: enc,
		buf: make([]byte, cfg.chunkSize),
		cfg: cfg,
	}, nil
}

// Write buffers p and emits a Message chunk whenever a full chunk of
// plaintext has accumulated.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.closed {
		return 0, ErrWriterClosed
	}

	written := 0
	for len(p) > 0 {
		n := copy(w.buf[w.n:], p)
		w.n += n
		p = p[n:]
		written += n

		if w.n == len(w.buf) {
			if err := w.emit(secretstream.TagMessage); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Flush emits any buffered plaintext as a Push-tagged chunk, marking a
// record boundary the reading side can observe. A Flush with nothing
// buffered is a no-op.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrWriterClosed
	}
	if w.n == 0 {
		return nil
	}
	return w.emit(secretstream.TagPush)
}

// Rekey ratchets the stream key without emitting a chunk. The reading side
// must call Reader.Rekey at the same chunk position.
func (w *Writer) Rekey() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrWriterClosed
	}
	return w.enc.Rekey()
}

// Close emits the remaining buffered plaintext as the Final chunk and
// terminates the stream. The underlying writer is left open.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return nil
	}
	if err := w.emit(secretstream.TagFinal); err != nil {
		return err
	}
	w.closed = true
	return nil
}

// emit seals the buffered plaintext into one framed chunk.
func (w *Writer) emit(tag secretstream.Tag) error {
	payload := w.buf[:w.n]

	plaintext := make([]byte, 1+len(payload))
	plaintext[0] = flagRaw
	copy(plaintext[1:], payload)

	if w.cfg.compress && len(payload) > 0 {
		if packed, ok := packPayload(payload, w.cfg.level); ok {
			plaintext = append(plaintext[:1], packed...)
			plaintext[0] = flagCompressed
		}
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(plaintext)+secretstream.ABytes))

	ciphertext, err := w.enc.Encrypt(plaintext, lenBuf[:], tag)
	if err != nil {
		w.err = err
		return err
	}
	if _, err := w.w.Write(lenBuf[:]); err != nil {
		w.err = err
		return err
	}
	if _, err := w.w.Write(ciphertext); err != nil {
		w.err = err
		return err
	}
	w.n = 0
	return nil
}
