package smf

import (
	"errors"
	"fmt"
	"io"
)

// MaxVarLen is the largest value a four byte variable-length quantity can hold.
const MaxVarLen = 0x0FFFFFFF

const maxVarLenBytes = 4

// ReadVarLen reads a MIDI variable-length quantity from r.
// Each byte contributes seven bits; a set high bit means another byte follows.
// It returns the value, the number of bytes consumed and the bytes themselves.
func ReadVarLen(r io.ByteReader) (uint32, int, []byte, error) {
	var value uint32
	raw := make([]byte, 0, maxVarLenBytes)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrUnexpectedEOF) {
				return value, len(raw), raw, ErrUnexpectedEOF
			}
			return value, len(raw), raw, fmt.Errorf("failed to read variable-length quantity: %w", err)
		}
		raw = append(raw, b)
		if len(raw) > maxVarLenBytes {
			return value, len(raw), raw, ErrVarLenTooLong
		}
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, len(raw), raw, nil
		}
	}
}

// AppendVarLen appends the variable-length encoding of v to dst.
// Values above MaxVarLen need five bytes, which ReadVarLen rejects.
func AppendVarLen(dst []byte, v uint32) []byte {
	var buf [5]byte
	i := len(buf) - 1
	buf[i] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		buf[i] = byte(v&0x7F) | 0x80
	}
	return append(dst, buf[i:]...)
}
