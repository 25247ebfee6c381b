package armor

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/klauspost/reedsolomon"
)

var (
	ErrInvalidConfig  = errors.New("armor: invalid data/parity configuration")
	ErrTooManyLost    = errors.New("armor: too many shards lost, cannot recover")
	ErrShardMalformed = errors.New("armor: malformed shard")
	ErrShardMismatch  = errors.New("armor: shards disagree on stream geometry")
)

const (
	shardVersion = 0x01

	// Shard header: version (1) | data shards (1) | parity shards (1) |
	// index (2, BE) | original length (8, BE) | SHA-256 of the payload.
	shardHeaderLen = 13 + sha256.Size

	// MaxShards bounds data+parity so counts fit the header layout.
	MaxShards = 255
)

// Codec shards a sealed stream and recovers it from a subset of shards.
type Codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewCodec creates an armor codec. Up to parityShards shards may be lost
// or corrupted and the stream is still fully recoverable.
func NewCodec(dataShards, parityShards int) (*Codec, error) {
	if dataShards <= 0 || parityShards <= 0 || dataShards+parityShards > MaxShards {
		return nil, ErrInvalidConfig
	}
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}
	return &Codec{
		enc:          enc,
		dataShards:   dataShards,
		parityShards: parityShards,
	}, nil
}

// DataShards returns the number of data shards.
func (c *Codec) DataShards() int { return c.dataShards }

// ParityShards returns the number of parity shards.
func (c *Codec) ParityShards() int { return c.parityShards }

// TotalShards returns data + parity.
func (c *Codec) TotalShards() int { return c.dataShards + c.parityShards }

// Overhead returns the storage overhead ratio (e.g. 1.4 for a 10+4 config).
func (c *Codec) Overhead() float64 {
	return float64(c.TotalShards()) / float64(c.dataShards)
}

// Protect splits sealed into data shards, computes parity and wraps every
// shard with a self-describing header. The shards can be stored or
// transmitted independently, in any order.
func (c *Codec) Protect(sealed []byte) ([][]byte, error) {
	if len(sealed) == 0 {
		return nil, ErrInvalidConfig
	}
	shards, err := c.enc.Split(sealed)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}

	out := make([][]byte, len(shards))
	for i, payload := range shards {
		hdr := make([]byte, shardHeaderLen, shardHeaderLen+len(payload))
		hdr[0] = shardVersion
		hdr[1] = byte(c.dataShards)
		hdr[2] = byte(c.parityShards)
		binary.BigEndian.PutUint16(hdr[3:5], uint16(i))
		binary.BigEndian.PutUint64(hdr[5:13], uint64(len(sealed)))
		sum := sha256.Sum256(payload)
		copy(hdr[13:], sum[:])
		out[i] = append(hdr, payload...)
	}
	return out, nil
}

// Recover rebuilds the sealed stream from any subset of shards produced by
// Protect. Missing shards are passed as nil; corrupted shards (bad header
// or checksum) are detected and treated as missing. Recovery fails with
// ErrTooManyLost when fewer than DataShards usable shards remain.
func (c *Codec) Recover(shards [][]byte) ([]byte, error) {
	slots := make([][]byte, c.TotalShards())
	var origLen uint64
	var seen bool
	valid := 0

	for _, s := range shards {
		payload, index, length, ok := c.parseShard(s)
		if !ok {
			continue
		}
		if seen && length != origLen {
			return nil, ErrShardMismatch
		}
		origLen, seen = length, true
		if slots[index] == nil {
			slots[index] = payload
			valid++
		}
	}

	if valid < c.dataShards {
		return nil, ErrTooManyLost
	}

	if err := c.enc.ReconstructData(slots); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return nil, ErrTooManyLost
		}
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(int(origLen))
	for i := 0; i < c.dataShards && uint64(buf.Len()) < origLen; i++ {
		remaining := origLen - uint64(buf.Len())
		if remaining >= uint64(len(slots[i])) {
			buf.Write(slots[i])
		} else {
			buf.Write(slots[i][:remaining])
		}
	}
	return buf.Bytes(), nil
}

// parseShard validates one shard against the codec geometry and its own
// checksum. Invalid shards are simply skipped by Recover.
func (c *Codec) parseShard(s []byte) (payload []byte, index int, origLen uint64, ok bool) {
	if len(s) < shardHeaderLen {
		return nil, 0, 0, false
	}
	if s[0] != shardVersion || int(s[1]) != c.dataShards || int(s[2]) != c.parityShards {
		return nil, 0, 0, false
	}
	index = int(binary.BigEndian.Uint16(s[3:5]))
	if index >= c.TotalShards() {
		return nil, 0, 0, false
	}
	origLen = binary.BigEndian.Uint64(s[5:13])
	payload = s[shardHeaderLen:]
	sum := sha256.Sum256(payload)
	if !bytes.Equal(sum[:], s[13:13+sha256.Size]) {
		return nil, 0, 0, false
	}
	return payload, index, origLen, true
}
