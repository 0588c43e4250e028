// Package binary contains helpers for the fixed-size little endian account
// layouts used by native Solana programs.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// COptionSize is the size of the tag that prefixes a packed COption value.
const COptionSize = 4

// Writer packs values into a fixed-size buffer, advancing an internal offset.
type Writer struct {
	buf    []byte
	offset int
}

// NewWriter returns a Writer over a zeroed buffer of the provided size.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Offset() int {
	return w.offset
}

func (w *Writer) PutKey32(key ed25519.PublicKey) {
	copy(w.buf[w.offset:], key)
	w.offset += ed25519.PublicKeySize
}

// PutOptionalKey32 packs a COption<Pubkey>. A nil or empty key is packed as
// None.
func (w *Writer) PutOptionalKey32(key ed25519.PublicKey) {
	if len(key) > 0 {
		binary.LittleEndian.PutUint32(w.buf[w.offset:], 1)
		copy(w.buf[w.offset+COptionSize:], key)
	}
	w.offset += COptionSize + ed25519.PublicKeySize
}

func (w *Writer) PutUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.offset:], v)
	w.offset += 8
}

func (w *Writer) PutOptionalUint64(v *uint64) {
	if v != nil {
		binary.LittleEndian.PutUint32(w.buf[w.offset:], 1)
		binary.LittleEndian.PutUint64(w.buf[w.offset+COptionSize:], *v)
	}
	w.offset += COptionSize + 8
}

func (w *Writer) PutUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.offset:], v)
	w.offset += 4
}

func (w *Writer) PutUint8(v uint8) {
	w.buf[w.offset] = v
	w.offset++
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.buf[w.offset] = 1
	}
	w.offset++
}

// Reader unpacks values from a buffer, advancing an internal offset. Callers
// are expected to validate the buffer length up front.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Offset() int {
	return r.offset
}

func (r *Reader) Key32() ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, r.buf[r.offset:])
	r.offset += ed25519.PublicKeySize
	return key
}

// OptionalKey32 unpacks a COption<Pubkey>, returning nil for None.
func (r *Reader) OptionalKey32() ed25519.PublicKey {
	var key ed25519.PublicKey
	if binary.LittleEndian.Uint32(r.buf[r.offset:]) == 1 {
		key = make(ed25519.PublicKey, ed25519.PublicKeySize)
		copy(key, r.buf[r.offset+COptionSize:])
	}
	r.offset += COptionSize + ed25519.PublicKeySize
	return key
}

func (r *Reader) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.offset:])
	r.offset += 8
	return v
}

func (r *Reader) OptionalUint64() *uint64 {
	var v *uint64
	if binary.LittleEndian.Uint32(r.buf[r.offset:]) == 1 {
		val := binary.LittleEndian.Uint64(r.buf[r.offset+COptionSize:])
		v = &val
	}
	r.offset += COptionSize + 8
	return v
}

func (r *Reader) Uint32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.offset:])
	r.offset += 4
	return v
}

func (r *Reader) Uint8() uint8 {
	v := r.buf[r.offset]
	r.offset++
	return v
}

func (r *Reader) Bool() bool {
	return r.Uint8() != 0
}
