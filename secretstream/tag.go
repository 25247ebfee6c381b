package secretstream

// Tag marks the role of a chunk within the stream. It is carried inside
// the authenticated channel: tampering with it invalidates the chunk, and
// it is only recovered by successful decryption.
type Tag uint8

const (
	// TagMessage is the most common tag. It adds no information about the
	// nature of the chunk.
	TagMessage Tag = 0x00
	// TagPush marks the end of a set of chunks (for example a logical
	// record split across several chunks), but not the end of the stream.
	TagPush Tag = 0x01
	// TagRekey forgets the key used for this chunk and the previous ones
	// and ratchets to a new one. Both sides rotate automatically when the
	// chunk is processed.
	TagRekey Tag = 0x02
	// TagFinal marks the last chunk of the stream and erases the key used
	// for the preceding sequence.
	TagFinal Tag = TagPush | TagRekey
)

func (t Tag) String() string {
	switch t {
	case TagMessage:
		return "MESSAGE"
	case TagPush:
		return "PUSH"
	case TagRekey:
		return "REKEY"
	case TagFinal:
		return "FINAL"
	default:
		return "UNKNOWN"
	}
}

// tagFromByte decodes a raw tag byte. The tag set is closed: anything
// outside the four known values is rejected, never defaulted.
func tagFromByte(b byte) (Tag, error) {
	t := Tag(b)
	switch t {
	case TagMessage, TagPush, TagRekey, TagFinal:
		return t, nil
	}
	return 0, ErrInvalidTag
}
