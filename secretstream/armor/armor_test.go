package armor

import (
	"bytes"
	mrand "math/rand"
	"testing"
)

func testData(n int) []byte {
	rng := mrand.New(mrand.NewSource(42))
	data := make([]byte, n)
	rng.Read(data)
	return data
}

func TestProtectRecover(t *testing.T) {
	codec, err := NewCodec(10, 4)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	data := testData(100 * 1024)
	shards, err := codec.Protect(data)
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}
	if len(shards) != codec.TotalShards() {
		t.Fatalf("got %d shards, want %d", len(shards), codec.TotalShards())
	}

	out, err := codec.Recover(shards)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("recovered data mismatch")
	}
}

func TestRecoverWithLostShards(t *testing.T) {
	codec, _ := NewCodec(10, 4)
	data := testData(64*1024 + 17) // not shard-aligned
	shards, err := codec.Protect(data)
	if err != nil {
		t.Fatalf("Protect: %v", err)
	}

	// Lose exactly the parity budget, spread over data and parity shards.
	shards[0] = nil
	shards[5] = nil
	shards[10] = nil
	shards[13] = nil

	out, err := codec.Recover(shards)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("recovered data mismatch")
	}
}

func TestRecoverWithCorruptShards(t *testing.T) {
	codec, _ := NewCodec(6, 3)
	data := testData(48 * 1024)
	shards, _ := codec.Protect(data)

	// Corrupt payload bytes: checksum catches them, shard treated as lost.
	shards[1][len(shards[1])-1] ^= 0xff
	// Corrupt a header: geometry check rejects the shard.
	shards[3][1] = 99

	out, err := codec.Recover(shards)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("recovered data mismatch")
	}
}

func TestShuffledShards(t *testing.T) {
	codec, _ := NewCodec(4, 2)
	data := testData(10000)
	shards, _ := codec.Protect(data)

	// Shards carry their own index; order must not matter.
	rng := mrand.New(mrand.NewSource(7))
	rng.Shuffle(len(shards), func(i, j int) {
		shards[i], shards[j] = shards[j], shards[i]
	})

	out, err := codec.Recover(shards)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("recovered data mismatch")
	}
}

func TestTooManyLost(t *testing.T) {
	codec, _ := NewCodec(5, 2)
	data := testData(5000)
	shards, _ := codec.Protect(data)

	shards[0] = nil
	shards[1] = nil
	shards[2] = nil

	if _, err := codec.Recover(shards); err != ErrTooManyLost {
		t.Fatalf("err = %v, want ErrTooManyLost", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	cases := [][2]int{{0, 1}, {1, 0}, {-1, 4}, {200, 100}}
	for _, c := range cases {
		if _, err := NewCodec(c[0], c[1]); err != ErrInvalidConfig {
			t.Fatalf("NewCodec(%d, %d): err = %v, want ErrInvalidConfig", c[0], c[1], err)
		}
	}
}

func TestOverhead(t *testing.T) {
	codec, _ := NewCodec(10, 4)
	if got := codec.Overhead(); got != 1.4 {
		t.Fatalf("Overhead = %v, want 1.4", got)
	}
}
