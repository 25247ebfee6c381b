// Package stream adapts a secretstream to io.Writer and io.Reader.
//
// The Writer splits its input into fixed-size chunks, encrypts each one and
// frames it with a 4-byte big-endian ciphertext length. The length prefix
// doubles as the chunk's associated data, binding the framing to the
// authentication tag. The stream header is written first, so the on-wire
// layout is:
//
//	header (24 bytes)
//	length (4 bytes) || ciphertext
//	length (4 bytes) || ciphertext
//	...
//
// The last chunk is tagged Final; a Reader that reaches the end of the
// underlying stream without seeing it reports ErrTruncated, so truncated
// streams never pass silently.
//
// Chunks can optionally be LZ4-compressed before encryption. Compression
// is applied per chunk and skipped when it does not shrink the data, so a
// Reader handles compressed and uncompressed streams alike.
package stream
