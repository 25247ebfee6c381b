package stream

import (
	"bytes"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// CompressionLevel selects the LZ4 effort spent on each chunk payload.
type CompressionLevel int

const (
	CompressionFast    CompressionLevel = iota // Fastest, lower ratio
	CompressionDefault                         // Balanced
	CompressionBest                            // Best ratio, slower
)

// lz4Level maps the package's three levels onto the codec's scale.
func (l CompressionLevel) lz4Level() lz4.CompressionLevel {
	switch l {
	case CompressionFast:
		return lz4.Fast
	case CompressionBest:
		return lz4.Level9
	default:
		return lz4.Level4
	}
}

// The LZ4 codec state is reused across chunks; both ends of a stream can
// run many chunks per second.
var (
	lz4Writers = sync.Pool{New: func() interface{} { return lz4.NewWriter(nil) }}
	lz4Readers = sync.Pool{New: func() interface{} { return lz4.NewReader(nil) }}
)

// packPayload LZ4-compresses a chunk payload. ok is false when the result
// would not be smaller than the input (or the codec failed), in which case
// the payload should travel raw.
func packPayload(payload []byte, level CompressionLevel) (packed []byte, ok bool) {
	w := lz4Writers.Get().(*lz4.Writer)
	defer lz4Writers.Put(w)

	var buf bytes.Buffer
	w.Reset(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(level.lz4Level())); err != nil {
		return nil, false
	}
	if _, err := w.Write(payload); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(payload) {
		return nil, false
	}
	return buf.Bytes(), true
}

// unpackPayload reverses packPayload. The expansion is capped at limit
// bytes so a corrupt frame cannot balloon memory; note the frame itself
// was already authenticated before reaching this point.
func unpackPayload(payload []byte, limit int) ([]byte, error) {
	r := lz4Readers.Get().(*lz4.Reader)
	defer lz4Readers.Put(r)

	r.Reset(bytes.NewReader(payload))

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(limit)+1))
	if err != nil || n > int64(limit) {
		return nil, ErrCorruptChunk
	}
	return buf.Bytes(), nil
}
