// Package armor protects sealed streams at rest with Reed-Solomon parity.
//
// An authenticated stream detects corruption but cannot repair it: one bad
// byte in a stored chunk makes the rest of the stream unreadable. Armor
// splits a sealed stream into data shards, adds parity shards, and can
// rebuild the original bytes with up to the parity count of shards lost or
// corrupted. Each shard is self-describing (index, shard counts, original
// length) and carries a SHA-256 checksum, so corrupted shards are detected
// and treated as missing during recovery.
//
// Armor restores availability only; confidentiality and integrity remain
// the job of the secretstream layer underneath.
package armor
