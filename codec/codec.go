package codec

import (
	"encoding/binary"

	"github.com/quillvm/cellar/errors"
)

// MaxSequenceLen bounds decoded sequence lengths to prevent memory
// exhaustion from corrupt cells.
const MaxSequenceLen = 1 << 24

// Writer appends primitive encodings to a byte buffer. The zero value is
// ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated encoding. The slice aliases the writer's
// buffer and is invalidated by further writes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) U16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) I8(v int8)   { w.U8(uint8(v)) }
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// Compact writes v in the two-bit-mode compact integer form: values below
// 2^6 take one byte, below 2^14 two bytes, below 2^30 four bytes, and the
// rest a mode byte followed by four little-endian bytes.
func (w *Writer) Compact(v uint32) {
	switch {
	case v < 1<<6:
		w.buf = append(w.buf, byte(v)<<2)
	case v < 1<<14:
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v)<<2|0b01)
	case v < 1<<30:
		w.buf = binary.LittleEndian.AppendUint32(w.buf, v<<2|0b10)
	default:
		w.buf = append(w.buf, 0b11)
		w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	}
}

// VarBytes writes a compact length prefix followed by the raw bytes.
func (w *Writer) VarBytes(v []byte) {
	w.Compact(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

// String writes s as a compact-length-prefixed byte sequence.
func (w *Writer) String(s string) {
	w.Compact(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Raw writes v with no framing. Used for fixed-size byte arrays whose
// length is part of the type.
func (w *Writer) Raw(v []byte) {
	w.buf = append(w.buf, v...)
}

// Reader consumes primitive encodings from a byte slice with bounds
// checking. Reads never panic; running past the end yields an out_of_bounds
// error.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over data. The reader does not copy data.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Done reports whether every byte has been consumed. Decoders use it to
// reject trailing garbage.
func (r *Reader) Done() bool {
	return r.pos == len(r.buf)
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, errors.OutOfBounds(errors.PhaseDecode, n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.InvalidData(errors.PhaseDecode, "invalid bool byte %#02x", b[0])
	}
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// Compact reads a compact integer written by Writer.Compact.
func (r *Reader) Compact() (uint32, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	switch b[0] & 0b11 {
	case 0b00:
		return uint32(b[0] >> 2), nil
	case 0b01:
		b2, err := r.take(1)
		if err != nil {
			return 0, err
		}
		return (uint32(b[0]) | uint32(b2[0])<<8) >> 2, nil
	case 0b10:
		rest, err := r.take(3)
		if err != nil {
			return 0, err
		}
		v := uint32(b[0]) | uint32(rest[0])<<8 | uint32(rest[1])<<16 | uint32(rest[2])<<24
		return v >> 2, nil
	default:
		if b[0] != 0b11 {
			return 0, errors.InvalidData(errors.PhaseDecode, "invalid compact mode byte %#02x", b[0])
		}
		rest, err := r.take(4)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(rest), nil
	}
}

// VarBytes reads a compact-length-prefixed byte sequence. The returned
// slice aliases the reader's buffer.
func (r *Reader) VarBytes() ([]byte, error) {
	n, err := r.Compact()
	if err != nil {
		return nil, err
	}
	if n > MaxSequenceLen {
		return nil, errors.InvalidData(errors.PhaseDecode, "sequence length %d exceeds limit", n)
	}
	return r.take(int(n))
}

// String reads a compact-length-prefixed string.
func (r *Reader) String() (string, error) {
	b, err := r.VarBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Raw reads exactly n bytes with no framing.
func (r *Reader) Raw(n int) ([]byte, error) {
	return r.take(n)
}
