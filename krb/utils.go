// krb/utils.go
package krb

import "encoding/binary"

// ReadU16LE reads a little-endian uint16 from a byte slice.
func ReadU16LE(data []byte) uint16 {
	if len(data) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(data)
}

// ReadU32LE reads a little-endian uint32 from a byte slice.
func ReadU32LE(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// cursor is a bounds-checked view over an immutable byte slice (§4.1:
// "byte reader ... bounds-checked slice views"). Every advance that would
// read past the end fails with ErrTruncated instead of panicking.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) seek(offset int64) error {
	if offset < 0 || offset > int64(len(c.data)) {
		return newParseError(ErrTruncated, "seek", offset, "seek target outside document", nil)
	}
	c.pos = int(offset)
	return nil
}

// take returns the next n bytes and advances the cursor, or fails with
// ErrTruncated if n bytes aren't available.
func (c *cursor) take(n int, section string) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, newParseError(ErrTruncated, section, int64(c.pos), "advance past end of document", nil)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8(section string) (uint8, error) {
	b, err := c.take(1, section)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16(section string) (uint16, error) {
	b, err := c.take(2, section)
	if err != nil {
		return 0, err
	}
	return ReadU16LE(b), nil
}

func (c *cursor) u32(section string) (uint32, error) {
	b, err := c.take(4, section)
	if err != nil {
		return 0, err
	}
	return ReadU32LE(b), nil
}
