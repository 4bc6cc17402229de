package layout

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
)

// TypeDescriptor is a static description of a user type: its shape, its
// fields or variants in declaration order, and any manual key overrides.
// Descriptors are immutable once produced and created once per type.
// Self-referential types form a cyclic descriptor graph; the classifier is
// responsible for rejecting cycles that cross no cell boundary.
type TypeDescriptor struct {
	Name     string
	Kind     Kind
	Go       reflect.Type
	Fields   []FieldDescriptor   // Kind == KindStruct
	Variants []VariantDescriptor // Kind == KindEnum
	Elem     *TypeDescriptor     // KindArray, KindSlice, KindOption
	MapKey   *TypeDescriptor     // KindMap
	MapValue *TypeDescriptor     // KindMap
	Len      int                 // KindBytes, KindArray
	LazyElem reflect.Type        // KindLazy; described on demand, never here
}

// FieldDescriptor describes one field of a struct or enum variant.
type FieldDescriptor struct {
	Name      string
	Index     int // reflect field index in the Go struct
	Type      *TypeDescriptor
	ManualKey *cellar.StorageKey
}

// VariantDescriptor describes one variant of an enum. Variants are ordered;
// the discriminant is the declaration position.
type VariantDescriptor struct {
	Name         string
	Discriminant uint8
	GoIndex      int // pointer field index in the enum struct
	Go           reflect.Type
	Fields       []FieldDescriptor
}

// EnumMarker marks a Go struct as an enum (sum type) for layout purposes.
// The struct must consist of exported pointer fields, one per variant, each
// pointing at the variant's payload struct. Exactly one pointer is non-nil
// in a live value.
type EnumMarker interface {
	StorageEnum()
}

// Lazy is a cell boundary. The enclosed value is not part of the parent's
// encoding; it lives in its own cell whose key is derived from the parent
// layout and recorded in CellKey during decode. Values are loaded and
// stored on demand through a store accessor. A Lazy field also breaks
// layout recursion, so self-referential types are legal behind one.
type Lazy[T any] struct {
	CellKey cellar.StorageKey
}

type lazyMarker interface {
	storageLazyElem() reflect.Type
}

func (Lazy[T]) storageLazyElem() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var (
	enumMarkerType = reflect.TypeOf((*EnumMarker)(nil)).Elem()
	lazyMarkerType = reflect.TypeOf((*lazyMarker)(nil)).Elem()
)

// describer builds descriptors from Go types and caches them by type
// identity. In-progress descriptors are visible to recursive calls so that
// self-referential types produce a cyclic graph instead of infinite
// recursion.
type describer struct {
	mu    sync.Mutex
	cache map[reflect.Type]*TypeDescriptor
}

func newDescriber() *describer {
	return &describer{cache: make(map[reflect.Type]*TypeDescriptor)}
}

func (d *describer) describe(t reflect.Type) (*TypeDescriptor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.describeLocked(t)
}

func (d *describer) describeLocked(t reflect.Type) (*TypeDescriptor, error) {
	if td, ok := d.cache[t]; ok {
		return td, nil
	}

	td := &TypeDescriptor{Go: t, Name: typeName(t)}

	// Marker interfaces have value receivers, so pointer types satisfy
	// them too. A pointer is always an option; only the named struct type
	// itself is the lazy cell or the enum.
	switch {
	case t.Kind() == reflect.Struct && t.Implements(lazyMarkerType):
		td.Kind = KindLazy
		td.LazyElem = reflect.Zero(t).Interface().(lazyMarker).storageLazyElem()
		d.cache[t] = td
		return td, nil
	case t.Kind() == reflect.Struct && t.Implements(enumMarkerType):
		// Cache before filling variants so recursive references resolve.
		d.cache[t] = td
		if err := d.fillEnum(t, td); err != nil {
			delete(d.cache, t)
			return nil, err
		}
		return td, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		td.Kind = KindBool
	case reflect.Uint8:
		td.Kind = KindU8
	case reflect.Uint16:
		td.Kind = KindU16
	case reflect.Uint32:
		td.Kind = KindU32
	case reflect.Uint64:
		td.Kind = KindU64
	case reflect.Int8:
		td.Kind = KindI8
	case reflect.Int16:
		td.Kind = KindI16
	case reflect.Int32:
		td.Kind = KindI32
	case reflect.Int64:
		td.Kind = KindI64
	case reflect.String:
		td.Kind = KindString

	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return nil, errors.Unsupported(errors.PhaseDescribe, td.Name,
			"platform-dependent integer width; use a fixed-width type")
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil, errors.MissingCodecSupport(errors.PhaseDescribe, td.Name, "", t.String())

	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			td.Kind = KindBytes
			td.Len = t.Len()
			break
		}
		td.Kind = KindArray
		td.Len = t.Len()
		d.cache[t] = td
		elem, err := d.describeLocked(t.Elem())
		if err != nil {
			delete(d.cache, t)
			return nil, noteDescribe(err, td.Name, "")
		}
		td.Elem = elem

	case reflect.Slice:
		td.Kind = KindSlice
		d.cache[t] = td
		elem, err := d.describeLocked(t.Elem())
		if err != nil {
			delete(d.cache, t)
			return nil, noteDescribe(err, td.Name, "")
		}
		td.Elem = elem

	case reflect.Map:
		td.Kind = KindMap
		d.cache[t] = td
		key, err := d.describeLocked(t.Key())
		if err != nil {
			delete(d.cache, t)
			return nil, noteDescribe(err, td.Name, "")
		}
		value, err := d.describeLocked(t.Elem())
		if err != nil {
			delete(d.cache, t)
			return nil, noteDescribe(err, td.Name, "")
		}
		td.MapKey, td.MapValue = key, value

	case reflect.Pointer:
		td.Kind = KindOption
		d.cache[t] = td
		elem, err := d.describeLocked(t.Elem())
		if err != nil {
			delete(d.cache, t)
			return nil, noteDescribe(err, td.Name, "")
		}
		td.Elem = elem

	case reflect.Struct:
		td.Kind = KindStruct
		d.cache[t] = td
		if err := d.fillStruct(t, td); err != nil {
			delete(d.cache, t)
			return nil, err
		}

	default:
		return nil, errors.MissingCodecSupport(errors.PhaseDescribe, td.Name, "", t.String())
	}

	d.cache[t] = td
	return td, nil
}

func (d *describer) fillStruct(t reflect.Type, td *TypeDescriptor) error {
	fields, err := d.describeFields(t, td.Name)
	if err != nil {
		return err
	}
	td.Fields = fields
	return nil
}

func (d *describer) describeFields(t reflect.Type, owner string) ([]FieldDescriptor, error) {
	fields := make([]FieldDescriptor, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		manual, skip, err := parseTag(owner, f)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		ft, err := d.describeLocked(f.Type)
		if err != nil {
			return nil, noteDescribe(err, owner, f.Name)
		}

		fields = append(fields, FieldDescriptor{
			Name:      f.Name,
			Index:     i,
			Type:      ft,
			ManualKey: manual,
		})
	}
	return fields, nil
}

func (d *describer) fillEnum(t reflect.Type, td *TypeDescriptor) error {
	if t.Kind() != reflect.Struct {
		return errors.TypeMismatch(errors.PhaseDescribe, td.Name, t.Kind().String(), "struct")
	}
	td.Kind = KindEnum

	var variants []VariantDescriptor
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Type.Kind() != reflect.Pointer || f.Type.Elem().Kind() != reflect.Struct {
			return errors.New(errors.PhaseDescribe, errors.KindInvalidVariant).
				Type(td.Name).
				Field(f.Name).
				Detail("enum variants must be pointer-to-struct fields, got %s", f.Type).
				Build()
		}
		if len(variants) == 256 {
			return errors.InvalidVariant(errors.PhaseDescribe, td.Name,
				"enum exceeds 256 variants")
		}

		payload := f.Type.Elem()
		fields, err := d.describeFields(payload, td.Name+"::"+f.Name)
		if err != nil {
			return noteDescribe(err, td.Name, f.Name)
		}

		variants = append(variants, VariantDescriptor{
			Name:         f.Name,
			Discriminant: uint8(len(variants)),
			GoIndex:      i,
			Go:           payload,
			Fields:       fields,
		})
	}

	if len(variants) == 0 {
		return errors.InvalidVariant(errors.PhaseDescribe, td.Name, "enum has no variants")
	}
	td.Variants = variants
	return nil
}

// parseTag extracts layout directives from a field's cellar tag. Supported
// forms: "-" to exclude the field, "key=0x1234" (hex or decimal) for a
// manual storage key.
func parseTag(owner string, f reflect.StructField) (manual *cellar.StorageKey, skip bool, err error) {
	tag, ok := f.Tag.Lookup("cellar")
	if !ok || tag == "" {
		return nil, false, nil
	}
	if tag == "-" {
		return nil, true, nil
	}

	for _, part := range strings.Split(tag, ",") {
		switch {
		case strings.HasPrefix(part, "key="):
			raw := strings.TrimPrefix(part, "key=")
			v, perr := strconv.ParseUint(raw, 0, 32)
			if perr != nil {
				return nil, false, errors.InvalidTag(owner, f.Name, tag)
			}
			k := cellar.StorageKey(v)
			manual = &k
		default:
			return nil, false, errors.InvalidTag(owner, f.Name, tag)
		}
	}
	return manual, false, nil
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// noteDescribe annotates a propagating descriptor error with the enclosing
// type, cloning first so cached errors stay pristine.
func noteDescribe(err error, typeName, field string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.Clone().Note(typeName, field, "")
	}
	return err
}
