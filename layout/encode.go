package layout

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/quillvm/cellar/codec"
	"github.com/quillvm/cellar/errors"
)

// Encode produces the inline encoding of v. Fields resolved to cells
// contribute no bytes; their content lives under their own keys and is
// written by store accessors. v may be the described type or a pointer to
// it.
func (d *Derived) Encode(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.Type().Elem() == d.Type.Go {
		if rv.IsNil() {
			return nil, errors.NilPointer(errors.PhaseEncode, d.Type.Name)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != d.Type.Go {
		got := "nil"
		if rv.IsValid() {
			got = rv.Type().String()
		}
		return nil, errors.TypeMismatch(errors.PhaseEncode, d.Type.Name, got, d.Type.Go.String())
	}

	w := codec.NewWriter(128)
	if err := d.encodeValue(d.Type, rv, w, true); err != nil {
		return nil, err
	}
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out, nil
}

func (d *Derived) encodeValue(td *TypeDescriptor, rv reflect.Value, w *codec.Writer, top bool) error {
	switch td.Kind {
	case KindBool:
		w.Bool(rv.Bool())
	case KindU8:
		w.U8(uint8(rv.Uint()))
	case KindU16:
		w.U16(uint16(rv.Uint()))
	case KindU32:
		w.U32(uint32(rv.Uint()))
	case KindU64:
		w.U64(rv.Uint())
	case KindI8:
		w.I8(int8(rv.Int()))
	case KindI16:
		w.I16(int16(rv.Int()))
	case KindI32:
		w.I32(int32(rv.Int()))
	case KindI64:
		w.I64(rv.Int())
	case KindString:
		w.String(rv.String())

	case KindBytes:
		buf := make([]byte, td.Len)
		reflect.Copy(reflect.ValueOf(buf), rv)
		w.Raw(buf)

	case KindArray:
		for i := 0; i < td.Len; i++ {
			if err := d.encodeValue(td.Elem, rv.Index(i), w, false); err != nil {
				return err
			}
		}

	case KindSlice:
		if td.Elem.Kind == KindU8 && rv.Type().Elem().Kind() == reflect.Uint8 {
			w.VarBytes(rv.Bytes())
			return nil
		}
		w.Compact(uint32(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			if err := d.encodeValue(td.Elem, rv.Index(i), w, false); err != nil {
				return err
			}
		}

	case KindMap:
		return d.encodeMap(td, rv, w)

	case KindOption:
		if rv.IsNil() {
			w.U8(0)
			return nil
		}
		w.U8(1)
		return d.encodeValue(td.Elem, rv.Elem(), w, false)

	case KindStruct:
		for i := range td.Fields {
			f := &td.Fields[i]
			if top {
				if _, isCell := d.cellHint("", f.Name); isCell {
					continue
				}
			}
			if err := d.encodeValue(f.Type, rv.Field(f.Index), w, false); err != nil {
				return err
			}
		}

	case KindEnum:
		return d.encodeEnum(td, rv, w, top)

	case KindLazy:
		return errors.Unsupported(errors.PhaseEncode, td.Name,
			"lazy cells are loaded and stored through their own accessor")

	default:
		return errors.MissingCodecSupport(errors.PhaseEncode, td.Name, "", td.Kind.String())
	}
	return nil
}

// encodeMap writes entries sorted by encoded key bytes. Go map iteration
// order is randomized; the encoding must not be.
func (d *Derived) encodeMap(td *TypeDescriptor, rv reflect.Value, w *codec.Writer) error {
	type pair struct {
		key, value []byte
	}
	pairs := make([]pair, 0, rv.Len())

	kw := codec.NewWriter(16)
	vw := codec.NewWriter(32)
	iter := rv.MapRange()
	for iter.Next() {
		kw.Reset()
		vw.Reset()
		if err := d.encodeValue(td.MapKey, iter.Key(), kw, false); err != nil {
			return err
		}
		if err := d.encodeValue(td.MapValue, iter.Value(), vw, false); err != nil {
			return err
		}
		p := pair{
			key:   append([]byte(nil), kw.Bytes()...),
			value: append([]byte(nil), vw.Bytes()...),
		}
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].key, pairs[j].key) < 0
	})

	w.Compact(uint32(len(pairs)))
	for _, p := range pairs {
		w.Raw(p.key)
		w.Raw(p.value)
	}
	return nil
}

func (d *Derived) encodeEnum(td *TypeDescriptor, rv reflect.Value, w *codec.Writer, top bool) error {
	live := -1
	for vi := range td.Variants {
		v := &td.Variants[vi]
		if rv.Field(v.GoIndex).IsNil() {
			continue
		}
		if live >= 0 {
			return errors.InvalidVariant(errors.PhaseEncode, td.Name,
				"variants %s and %s are both set", td.Variants[live].Name, v.Name)
		}
		live = vi
	}
	if live < 0 {
		return errors.InvalidVariant(errors.PhaseEncode, td.Name, "no variant set")
	}

	v := &td.Variants[live]
	w.U8(v.Discriminant)

	payload := rv.Field(v.GoIndex).Elem()
	for i := range v.Fields {
		f := &v.Fields[i]
		if top {
			if _, isCell := d.cellHint(v.Name, f.Name); isCell {
				continue
			}
		}
		if err := d.encodeValue(f.Type, payload.Field(f.Index), w, false); err != nil {
			return err
		}
	}
	return nil
}
