package codec

import (
	"bytes"
	"errors"
	"testing"

	cellarerrors "github.com/quillvm/cellar/errors"
)

func TestFixedWidthRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.Bool(true)
	w.Bool(false)
	w.U8(0xab)
	w.U16(0xbeef)
	w.U32(0xdeadbeef)
	w.U64(0x0123456789abcdef)
	w.I8(-1)
	w.I16(-2)
	w.I32(-3)
	w.I64(-4)

	r := NewReader(w.Bytes())

	if v, err := r.Bool(); err != nil || v != true {
		t.Errorf("Bool() = %v, %v", v, err)
	}
	if v, err := r.Bool(); err != nil || v != false {
		t.Errorf("Bool() = %v, %v", v, err)
	}
	if v, err := r.U8(); err != nil || v != 0xab {
		t.Errorf("U8() = %#x, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0xbeef {
		t.Errorf("U16() = %#x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xdeadbeef {
		t.Errorf("U32() = %#x, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0123456789abcdef {
		t.Errorf("U64() = %#x, %v", v, err)
	}
	if v, err := r.I8(); err != nil || v != -1 {
		t.Errorf("I8() = %d, %v", v, err)
	}
	if v, err := r.I16(); err != nil || v != -2 {
		t.Errorf("I16() = %d, %v", v, err)
	}
	if v, err := r.I32(); err != nil || v != -3 {
		t.Errorf("I32() = %d, %v", v, err)
	}
	if v, err := r.I64(); err != nil || v != -4 {
		t.Errorf("I64() = %d, %v", v, err)
	}
	if !r.Done() {
		t.Errorf("reader not exhausted, %d bytes left", r.Remaining())
	}
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter(8)
	w.U32(0x01020304)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("U32 encoding = %x, want %x", w.Bytes(), want)
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name  string
		value uint32
		size  int
	}{
		{"zero", 0, 1},
		{"single byte max", 1<<6 - 1, 1},
		{"two byte min", 1 << 6, 2},
		{"two byte max", 1<<14 - 1, 2},
		{"four byte min", 1 << 14, 4},
		{"four byte max", 1<<30 - 1, 4},
		{"big int min", 1 << 30, 5},
		{"max uint32", 1<<32 - 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(8)
			w.Compact(tt.value)
			if w.Len() != tt.size {
				t.Errorf("Compact(%d) wrote %d bytes, want %d", tt.value, w.Len(), tt.size)
			}

			r := NewReader(w.Bytes())
			got, err := r.Compact()
			if err != nil {
				t.Fatalf("Compact() decode: %v", err)
			}
			if got != tt.value {
				t.Errorf("round trip = %d, want %d", got, tt.value)
			}
			if !r.Done() {
				t.Errorf("trailing bytes after compact decode")
			}
		})
	}
}

func TestCompactKnownEncodings(t *testing.T) {
	// Fixed by the wire contract: small values are value<<2.
	w := NewWriter(4)
	w.Compact(42)
	if !bytes.Equal(w.Bytes(), []byte{42 << 2}) {
		t.Errorf("Compact(42) = %x, want %x", w.Bytes(), []byte{42 << 2})
	}

	w.Reset()
	w.Compact(69)
	if !bytes.Equal(w.Bytes(), []byte{0x15, 0x01}) {
		t.Errorf("Compact(69) = %x, want 1501", w.Bytes())
	}
}

func TestVarBytesAndString(t *testing.T) {
	w := NewWriter(64)
	w.VarBytes([]byte{1, 2, 3})
	w.String("hello")
	w.VarBytes(nil)

	r := NewReader(w.Bytes())

	b, err := r.VarBytes()
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Errorf("VarBytes() = %x, %v", b, err)
	}
	s, err := r.String()
	if err != nil || s != "hello" {
		t.Errorf("String() = %q, %v", s, err)
	}
	b, err = r.VarBytes()
	if err != nil || len(b) != 0 {
		t.Errorf("empty VarBytes() = %x, %v", b, err)
	}
	if !r.Done() {
		t.Error("reader not exhausted")
	}
}

func TestRaw(t *testing.T) {
	w := NewWriter(4)
	w.Raw([]byte{9, 8, 7})

	r := NewReader(w.Bytes())
	b, err := r.Raw(3)
	if err != nil || !bytes.Equal(b, []byte{9, 8, 7}) {
		t.Errorf("Raw(3) = %x, %v", b, err)
	}
}

func TestReaderOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		read func(*Reader) error
		data []byte
	}{
		{"u32 short", func(r *Reader) error { _, err := r.U32(); return err }, []byte{1, 2}},
		{"u64 short", func(r *Reader) error { _, err := r.U64(); return err }, []byte{1}},
		{"bool empty", func(r *Reader) error { _, err := r.Bool(); return err }, nil},
		{"compact truncated", func(r *Reader) error { _, err := r.Compact(); return err }, []byte{0b10, 0x00}},
		{"varbytes truncated", func(r *Reader) error { _, err := r.VarBytes(); return err }, []byte{12 << 2, 1, 2}},
		{"raw short", func(r *Reader) error { _, err := r.Raw(5); return err }, []byte{1, 2}},
	}

	target := &cellarerrors.Error{Phase: cellarerrors.PhaseDecode, Kind: cellarerrors.KindOutOfBounds}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader(tt.data))
			if !errors.Is(err, target) {
				t.Errorf("expected out_of_bounds, got %v", err)
			}
		})
	}
}

func TestReaderInvalidBool(t *testing.T) {
	_, err := NewReader([]byte{2}).Bool()
	target := &cellarerrors.Error{Phase: cellarerrors.PhaseDecode, Kind: cellarerrors.KindInvalidData}
	if !errors.Is(err, target) {
		t.Errorf("expected invalid_data, got %v", err)
	}
}

func TestWriterReset(t *testing.T) {
	w := NewWriter(8)
	w.U32(1)
	w.Reset()
	w.U8(7)
	if w.Len() != 1 {
		t.Errorf("Len() after reset = %d, want 1", w.Len())
	}
}
