package layout

// Kind identifies the structural shape of a type descriptor.
type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindString
	KindBytes // fixed-size byte array
	KindArray
	KindSlice
	KindMap
	KindOption // pointer field, presence-prefixed
	KindStruct
	KindEnum
	KindLazy // cell boundary, element loaded on demand
)

var kindNames = [...]string{
	KindBool:   "bool",
	KindU8:     "u8",
	KindU16:    "u16",
	KindU32:    "u32",
	KindU64:    "u64",
	KindI8:     "i8",
	KindI16:    "i16",
	KindI32:    "i32",
	KindI64:    "i64",
	KindString: "string",
	KindBytes:  "bytes",
	KindArray:  "array",
	KindSlice:  "slice",
	KindMap:    "map",
	KindOption: "option",
	KindStruct: "struct",
	KindEnum:   "enum",
	KindLazy:   "lazy",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Packedness is the two-valued storage classification. A Packed type's full
// encoding is contiguous bytes; a NonPacked type owns at least one
// independently addressed storage cell.
type Packedness uint8

const (
	Packed Packedness = iota
	NonPacked
)

func (p Packedness) String() string {
	if p == Packed {
		return "packed"
	}
	return "non-packed"
}
