// Package shortvec implements the compact-u16 length prefix used by the
// Solana wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxEncodedLen is the number of bytes needed to encode math.MaxUint16.
const maxEncodedLen = 3

// ErrLenOverflow is returned when a length does not fit in a compact-u16.
var ErrLenOverflow = errors.Errorf("len exceeds %d", math.MaxUint16)

// AppendLen appends the compact-u16 encoding of n to dst.
func AppendLen(dst []byte, n int) ([]byte, error) {
	if n < 0 || n > math.MaxUint16 {
		return dst, ErrLenOverflow
	}

	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(dst, b), nil
		}
		dst = append(dst, b|0x80)
	}
}

// EncodeLen writes the compact-u16 encoding of n into w, returning the
// number of bytes written.
func EncodeLen(w io.Writer, n int) (int, error) {
	var scratch [maxEncodedLen]byte
	encoded, err := AppendLen(scratch[:0], n)
	if err != nil {
		return 0, err
	}

	return w.Write(encoded)
}

// DecodeLen reads a compact-u16 length from r.
func DecodeLen(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < maxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		val |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if val > math.MaxUint16 {
				return 0, ErrLenOverflow
			}
			return val, nil
		}
	}

	return 0, errors.Errorf("invalid size: more than %d bytes", maxEncodedLen)
}
