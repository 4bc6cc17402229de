package layout

import (
	"reflect"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/codec"
	"github.com/quillvm/cellar/errors"
)

// Decode fills out (a pointer to the described type) from an inline
// encoding produced by Encode. Cell fields receive no bytes from data;
// lazy fields get their derived cell key so accessors can reach them, and
// other cell fields are left for the store accessor to populate.
func (d *Derived) Decode(data []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, d.Type.Name)
	}
	rv = rv.Elem()
	if rv.Type() != d.Type.Go {
		return errors.TypeMismatch(errors.PhaseDecode, d.Type.Name, rv.Type().String(), d.Type.Go.String())
	}

	r := codec.NewReader(data)
	if err := d.decodeValue(d.Type, rv, r, true); err != nil {
		return err
	}
	if !r.Done() {
		return errors.InvalidData(errors.PhaseDecode, "%d trailing bytes after %s", r.Remaining(), d.Type.Name)
	}
	return nil
}

func (d *Derived) decodeValue(td *TypeDescriptor, rv reflect.Value, r *codec.Reader, top bool) error {
	switch td.Kind {
	case KindBool:
		v, err := r.Bool()
		if err != nil {
			return err
		}
		rv.SetBool(v)
	case KindU8:
		v, err := r.U8()
		if err != nil {
			return err
		}
		rv.SetUint(uint64(v))
	case KindU16:
		v, err := r.U16()
		if err != nil {
			return err
		}
		rv.SetUint(uint64(v))
	case KindU32:
		v, err := r.U32()
		if err != nil {
			return err
		}
		rv.SetUint(uint64(v))
	case KindU64:
		v, err := r.U64()
		if err != nil {
			return err
		}
		rv.SetUint(v)
	case KindI8:
		v, err := r.I8()
		if err != nil {
			return err
		}
		rv.SetInt(int64(v))
	case KindI16:
		v, err := r.I16()
		if err != nil {
			return err
		}
		rv.SetInt(int64(v))
	case KindI32:
		v, err := r.I32()
		if err != nil {
			return err
		}
		rv.SetInt(int64(v))
	case KindI64:
		v, err := r.I64()
		if err != nil {
			return err
		}
		rv.SetInt(v)
	case KindString:
		v, err := r.String()
		if err != nil {
			return err
		}
		rv.SetString(v)

	case KindBytes:
		b, err := r.Raw(td.Len)
		if err != nil {
			return err
		}
		reflect.Copy(rv, reflect.ValueOf(b))

	case KindArray:
		for i := 0; i < td.Len; i++ {
			if err := d.decodeValue(td.Elem, rv.Index(i), r, false); err != nil {
				return err
			}
		}

	case KindSlice:
		if td.Elem.Kind == KindU8 && rv.Type().Elem().Kind() == reflect.Uint8 {
			b, err := r.VarBytes()
			if err != nil {
				return err
			}
			rv.SetBytes(append([]byte(nil), b...))
			return nil
		}
		n, err := r.Compact()
		if err != nil {
			return err
		}
		if n > codec.MaxSequenceLen {
			return errors.InvalidData(errors.PhaseDecode, "sequence length %d exceeds limit", n)
		}
		slice := reflect.MakeSlice(rv.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			if err := d.decodeValue(td.Elem, slice.Index(i), r, false); err != nil {
				return err
			}
		}
		rv.Set(slice)

	case KindMap:
		n, err := r.Compact()
		if err != nil {
			return err
		}
		if n > codec.MaxSequenceLen {
			return errors.InvalidData(errors.PhaseDecode, "map length %d exceeds limit", n)
		}
		m := reflect.MakeMapWithSize(rv.Type(), int(n))
		for i := 0; i < int(n); i++ {
			key := reflect.New(rv.Type().Key()).Elem()
			if err := d.decodeValue(td.MapKey, key, r, false); err != nil {
				return err
			}
			value := reflect.New(rv.Type().Elem()).Elem()
			if err := d.decodeValue(td.MapValue, value, r, false); err != nil {
				return err
			}
			m.SetMapIndex(key, value)
		}
		rv.Set(m)

	case KindOption:
		present, err := r.U8()
		if err != nil {
			return err
		}
		switch present {
		case 0:
			rv.SetZero()
		case 1:
			elem := reflect.New(rv.Type().Elem())
			if err := d.decodeValue(td.Elem, elem.Elem(), r, false); err != nil {
				return err
			}
			rv.Set(elem)
		default:
			return errors.InvalidData(errors.PhaseDecode, "invalid option prefix %#02x", present)
		}

	case KindStruct:
		for i := range td.Fields {
			f := &td.Fields[i]
			if top {
				if h, isCell := d.cellHint("", f.Name); isCell {
					if h.Lazy {
						setLazyKey(rv.Field(f.Index), h.Key)
					}
					continue
				}
			}
			if err := d.decodeValue(f.Type, rv.Field(f.Index), r, false); err != nil {
				return err
			}
		}

	case KindEnum:
		return d.decodeEnum(td, rv, r, top)

	case KindLazy:
		return errors.Unsupported(errors.PhaseDecode, td.Name,
			"lazy cells are loaded and stored through their own accessor")

	default:
		return errors.MissingCodecSupport(errors.PhaseDecode, td.Name, "", td.Kind.String())
	}
	return nil
}

func (d *Derived) decodeEnum(td *TypeDescriptor, rv reflect.Value, r *codec.Reader, top bool) error {
	disc, err := r.U8()
	if err != nil {
		return err
	}
	if int(disc) >= len(td.Variants) {
		return errors.InvalidVariant(errors.PhaseDecode, td.Name,
			"discriminant %d out of range (max %d)", disc, len(td.Variants)-1)
	}

	// Clear every variant pointer so the decoded value has exactly one live.
	for vi := range td.Variants {
		rv.Field(td.Variants[vi].GoIndex).SetZero()
	}

	v := &td.Variants[disc]
	payload := reflect.New(v.Go)
	for i := range v.Fields {
		f := &v.Fields[i]
		if top {
			if h, isCell := d.cellHint(v.Name, f.Name); isCell {
				if h.Lazy {
					setLazyKey(payload.Elem().Field(f.Index), h.Key)
				}
				continue
			}
		}
		if err := d.decodeValue(f.Type, payload.Elem().Field(f.Index), r, false); err != nil {
			return err
		}
	}
	rv.Field(v.GoIndex).Set(payload)
	return nil
}

// setLazyKey records the derived cell key on a Lazy field.
func setLazyKey(rv reflect.Value, key cellar.StorageKey) {
	rv.FieldByName("CellKey").Set(reflect.ValueOf(key))
}
