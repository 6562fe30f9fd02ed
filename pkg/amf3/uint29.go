package amf3

// DecodeUint29 decodes AMF3's variable-length unsigned integer: up to
// four bytes, the high bit of each of the first three bytes signaling
// continuation. The fourth byte (reached only when all of bytes 1-3 had
// their high bit set) contributes a full 8 bits, giving a maximum width
// of 7+7+7+8 = 29 bits.
//
// Ported from the teacher's amf.decodeU29, generalized to read through
// a ByteCursor instead of an io.Reader so truncation is reported as
// ErrInsufficientData with the cursor restored to where the integer
// started.
func DecodeUint29(c *ByteCursor) (uint32, error) {
	start := c.Pos()
	var result uint32
	for i := 0; i < 3; i++ {
		b, err := c.ReadByte()
		if err != nil {
			c.SetPos(start)
			return 0, err
		}
		if b < 0x80 {
			return (result << 7) | uint32(b), nil
		}
		result = (result << 7) | uint32(b&0x7F)
	}
	b, err := c.ReadByte()
	if err != nil {
		c.SetPos(start)
		return 0, err
	}
	return (result << 8) | uint32(b), nil
}

// DecodeInteger decodes an AMF3 integer: a Uint29 whose top bit (bit 28)
// marks the value as negative in 29-bit two's complement.
func DecodeInteger(c *ByteCursor) (int32, error) {
	u, err := DecodeUint29(c)
	if err != nil {
		return 0, err
	}
	if u&0x10000000 != 0 {
		return int32(u | 0xE0000000), nil
	}
	return int32(u), nil
}
