package layout

import (
	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
	"github.com/quillvm/cellar/layout/internal/fieldpath"
)

// HintKind selects the storage strategy resolved for one field.
type HintKind uint8

const (
	// HintInline concatenates the field's bytes into the parent's encoding.
	HintInline HintKind = iota
	// HintCell allocates an independently addressed cell for the field; the
	// parent encoding carries no bytes for it.
	HintCell
)

func (h HintKind) String() string {
	if h == HintInline {
		return "inline"
	}
	return "cell"
}

// Hint is the resolved pairing of a field with its storage strategy.
// Computed once per field during resolution, read-only afterward.
type Hint struct {
	Field   string
	Variant string // owning enum variant; empty for struct fields
	Kind    HintKind
	// Offset is the byte offset of an inline field in the parent encoding,
	// or -1 when a preceding variable-length field makes it dynamic. Enum
	// variant offsets count from the start of the encoding, so the one-byte
	// discriminant is included.
	Offset int
	// Key addresses the field's cell; meaningful only for HintCell.
	Key cellar.StorageKey
	// Lazy marks a cell whose value is user-managed through a Lazy boundary
	// rather than written by composite accessors.
	Lazy bool
}

// Resolver computes the ordered storable hints for a composite type.
// Resolution is purely structural: fields are visited in declaration order,
// packed fields without overrides inline into the parent encoding, and
// everything else is routed through the key allocator.
type Resolver struct {
	classifier *Classifier
}

func NewResolver(c *Classifier) *Resolver {
	return &Resolver{classifier: c}
}

// Resolve returns the hints for td rooted at parent. Non-composite types
// resolve to no hints: they are either fully inline or a single cell, and
// either way the decision belongs to the enclosing composite.
func (r *Resolver) Resolve(td *TypeDescriptor, parent cellar.StorageKey) ([]Hint, error) {
	switch td.Kind {
	case KindStruct:
		return r.resolveStruct(td, parent)
	case KindEnum:
		return r.resolveEnum(td, parent)
	default:
		return nil, nil
	}
}

func (r *Resolver) resolveStruct(td *TypeDescriptor, parent cellar.StorageKey) ([]Hint, error) {
	root := fieldpath.Root(td.Name)
	scope := newKeyScope(td.Name)
	hints := make([]Hint, 0, len(td.Fields))

	offset := 0
	for i := range td.Fields {
		f := &td.Fields[i]
		h, err := r.resolveField(td, f, root, parent, scope, &offset)
		if err != nil {
			return nil, err
		}
		hints = append(hints, h)
	}
	return hints, nil
}

func (r *Resolver) resolveEnum(td *TypeDescriptor, parent cellar.StorageKey) ([]Hint, error) {
	root := fieldpath.Root(td.Name)
	var hints []Hint

	for vi := range td.Variants {
		v := &td.Variants[vi]
		// Each variant is its own collision scope and its own encoding,
		// starting after the discriminant byte.
		scope := newKeyScope(td.Name + "::" + v.Name)
		vpath := root.Variant(v.Name)
		offset := 1

		for i := range v.Fields {
			f := &v.Fields[i]
			h, err := r.resolveField(td, f, vpath, parent, scope, &offset)
			if err != nil {
				if e, ok := err.(*errors.Error); ok {
					err = e.Note(td.Name, v.Name, "")
				}
				return nil, err
			}
			h.Variant = v.Name
			hints = append(hints, h)
		}
	}
	return hints, nil
}

// resolveField decides inline vs cell for one field and maintains the
// running inline offset. offset becomes -1 once a variable-length field has
// been seen and stays there.
func (r *Resolver) resolveField(td *TypeDescriptor, f *FieldDescriptor, base fieldpath.Path, parent cellar.StorageKey, scope *keyScope, offset *int) (Hint, error) {
	p, err := r.classifier.Classify(f.Type)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			err = e.Note(td.Name, f.Name, "storable hint resolution")
		}
		return Hint{}, err
	}

	// A manual key forces cell allocation regardless of packedness.
	if p == Packed && f.ManualKey == nil {
		h := Hint{Field: f.Name, Kind: HintInline, Offset: *offset}
		if *offset >= 0 {
			if size, fixed := fixedSize(f.Type); fixed {
				*offset += size
			} else {
				*offset = -1
			}
		}
		return h, nil
	}

	key := AllocateKey(parent, base.Field(f.Name), f.ManualKey)
	if cerr := scope.claim(key, f.Name, f.ManualKey != nil); cerr != nil {
		return Hint{}, cerr
	}
	return Hint{
		Field: f.Name,
		Kind:  HintCell,
		Key:   key,
		Lazy:  f.Type.Kind == KindLazy,
	}, nil
}

// fixedSize returns the encoded byte size of td when every value of td
// encodes to the same length.
func fixedSize(td *TypeDescriptor) (int, bool) {
	switch td.Kind {
	case KindBool, KindU8, KindI8:
		return 1, true
	case KindU16, KindI16:
		return 2, true
	case KindU32, KindI32:
		return 4, true
	case KindU64, KindI64:
		return 8, true
	case KindBytes:
		return td.Len, true
	case KindArray:
		elem, ok := fixedSize(td.Elem)
		if !ok {
			return 0, false
		}
		return td.Len * elem, true
	case KindStruct:
		total := 0
		for i := range td.Fields {
			size, ok := fixedSize(td.Fields[i].Type)
			if !ok {
				return 0, false
			}
			total += size
		}
		return total, true
	default:
		// Strings, slices, maps, options and enums are length- or
		// presence-dependent.
		return 0, false
	}
}
