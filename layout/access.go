package layout

import (
	"reflect"

	"github.com/quillvm/cellar/errors"
)

// CellLayout derives the layout of the content stored under h's cell. The
// content is rooted at the cell's own key, so any cells it introduces in
// turn derive from there.
func (d *Derived) CellLayout(h Hint) (*Derived, error) {
	f, ok := d.findField(h)
	if !ok {
		return nil, errors.NotFound(errors.PhaseResolve, "cell field", h.Field)
	}
	return d.deriver.DeriveAt(f.Type, h.Key)
}

// CellValue extracts the value of the field addressed by h from v. For a
// hint belonging to an enum variant, ok is false when that variant is not
// the live one.
func (d *Derived) CellValue(v any, h Hint) (value any, ok bool, err error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == d.Type.Go {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != d.Type.Go {
		return nil, false, errors.TypeMismatch(errors.PhaseStore, d.Type.Name, reflect.TypeOf(v).String(), d.Type.Go.String())
	}

	fv, ok, err := d.fieldValue(rv, h)
	if err != nil || !ok {
		return nil, ok, err
	}
	return fv.Interface(), true, nil
}

// SetCellValue stores val into the field addressed by h in out, which must
// be a pointer to the described type. For an enum hint the live variant
// must match h.Variant.
func (d *Derived) SetCellValue(out any, h Hint, val any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem() != d.Type.Go {
		return errors.TypeMismatch(errors.PhaseStore, d.Type.Name, reflect.TypeOf(out).String(), "*"+d.Type.Go.String())
	}

	fv, ok, err := d.fieldValue(rv.Elem(), h)
	if err != nil {
		return err
	}
	if !ok {
		return errors.InvalidVariant(errors.PhaseStore, d.Type.Name,
			"variant %s is not live", h.Variant)
	}

	v := reflect.ValueOf(val)
	if v.Type() != fv.Type() {
		return errors.TypeMismatch(errors.PhaseStore, d.Type.Name, v.Type().String(), fv.Type().String())
	}
	fv.Set(v)
	return nil
}

func (d *Derived) findField(h Hint) (*FieldDescriptor, bool) {
	if h.Variant == "" {
		for i := range d.Type.Fields {
			if d.Type.Fields[i].Name == h.Field {
				return &d.Type.Fields[i], true
			}
		}
		return nil, false
	}
	for vi := range d.Type.Variants {
		v := &d.Type.Variants[vi]
		if v.Name != h.Variant {
			continue
		}
		for i := range v.Fields {
			if v.Fields[i].Name == h.Field {
				return &v.Fields[i], true
			}
		}
	}
	return nil, false
}

func (d *Derived) fieldValue(rv reflect.Value, h Hint) (reflect.Value, bool, error) {
	if h.Variant == "" {
		f, ok := d.findField(h)
		if !ok {
			return reflect.Value{}, false, errors.NotFound(errors.PhaseStore, "cell field", h.Field)
		}
		return rv.Field(f.Index), true, nil
	}

	for vi := range d.Type.Variants {
		v := &d.Type.Variants[vi]
		if v.Name != h.Variant {
			continue
		}
		payload := rv.Field(v.GoIndex)
		if payload.IsNil() {
			return reflect.Value{}, false, nil
		}
		for i := range v.Fields {
			if v.Fields[i].Name == h.Field {
				return payload.Elem().Field(v.Fields[i].Index), true, nil
			}
		}
		return reflect.Value{}, false, errors.NotFound(errors.PhaseStore, "cell field", h.Field)
	}
	return reflect.Value{}, false, errors.NotFound(errors.PhaseStore, "variant", h.Variant)
}
