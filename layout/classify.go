package layout

import (
	"sync"

	"go.uber.org/zap"

	"github.com/quillvm/cellar/errors"
)

// Classifier decides, per type, whether its encoded representation is
// contiguous bytes with no independent storage cells (Packed) or whether it
// owns one or more independently addressed cells (NonPacked). Results are
// cached by descriptor identity; classification depends only on the type
// structure, never on runtime data.
type Classifier struct {
	cache sync.Map // *TypeDescriptor -> classifyResult
}

type classifyResult struct {
	packedness Packedness
	err        *errors.Error
}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the packedness of td, or the rejection that makes td an
// illegal layout. Rejections are terminal and cached like successes.
func (c *Classifier) Classify(td *TypeDescriptor) (Packedness, error) {
	p, err := c.classify(td, nil)
	if err != nil {
		return NonPacked, err
	}
	return p, nil
}

func (c *Classifier) classify(td *TypeDescriptor, stack []*TypeDescriptor) (Packedness, *errors.Error) {
	if cached, ok := c.cache.Load(td); ok {
		res := cached.(classifyResult)
		if res.err != nil {
			return NonPacked, res.err.Clone()
		}
		return res.packedness, nil
	}

	// A descriptor already on the classification stack means the type
	// reaches itself with no intervening cell boundary: an infinite layout.
	for _, seen := range stack {
		if seen == td {
			cycle := make([]string, 0, len(stack)+1)
			for _, s := range stack {
				cycle = append(cycle, s.Name)
			}
			cycle = append(cycle, td.Name)
			return NonPacked, errors.InfiniteLayout(td.Name, cycle)
		}
	}
	stack = append(stack, td)

	p, err := c.classifyKind(td, stack)
	c.cache.Store(td, classifyResult{packedness: p, err: err})
	Logger().Debug("classified type",
		zap.String("type", td.Name),
		zap.Stringer("packedness", p),
		zap.Bool("rejected", err != nil))
	if err != nil {
		return NonPacked, err.Clone()
	}
	return p, nil
}

func (c *Classifier) classifyKind(td *TypeDescriptor, stack []*TypeDescriptor) (Packedness, *errors.Error) {
	switch td.Kind {
	case KindBool, KindU8, KindU16, KindU32, KindU64,
		KindI8, KindI16, KindI32, KindI64,
		KindString, KindBytes:
		return Packed, nil

	case KindLazy:
		// Cell boundary: the element lives in its own cell and is not part
		// of this classification at all. This is what terminates recursive
		// layouts.
		return NonPacked, nil

	case KindArray, KindSlice:
		return c.classifyContainer(td, td.Elem, stack)

	case KindMap:
		// Map keys are hashed into the cell encoding, so they obey the same
		// packedness rule as values.
		if p, err := c.classifyContainer(td, td.MapKey, stack); err != nil || p == NonPacked {
			return p, err
		}
		return c.classifyContainer(td, td.MapValue, stack)

	case KindOption:
		// An option is one encoding behind a presence byte. A non-packed
		// element would bury cells where no hint can address them, so the
		// element must be packed, like a container's.
		return c.classifyContainer(td, td.Elem, stack)

	case KindStruct:
		packedness := Packed
		for i := range td.Fields {
			f := &td.Fields[i]
			p, err := c.classify(f.Type, stack)
			if err != nil {
				return NonPacked, err.Note(td.Name, f.Name, "")
			}
			if p == NonPacked || f.ManualKey != nil {
				// The field gets its own cell; the composite still encodes
				// its remaining packed fields inline.
				packedness = NonPacked
			}
		}
		return packedness, nil

	case KindEnum:
		packedness := Packed
		for vi := range td.Variants {
			v := &td.Variants[vi]
			for i := range v.Fields {
				f := &v.Fields[i]
				p, err := c.classify(f.Type, stack)
				if err != nil {
					return NonPacked, err.Note(td.Name, v.Name+"."+f.Name, "")
				}
				if p == NonPacked || f.ManualKey != nil {
					packedness = NonPacked
				}
			}
		}
		return packedness, nil

	default:
		return NonPacked, errors.MissingCodecSupport(errors.PhaseClassify, td.Name, "", td.Kind.String())
	}
}

// classifyContainer enforces the collection constraint: a container (or
// option) used as a storage value must hold only packed element types.
// Elements have no hint of their own through which cells could be
// addressed, so classification fails closed instead of permitting a
// non-packed element.
func (c *Classifier) classifyContainer(td, elem *TypeDescriptor, stack []*TypeDescriptor) (Packedness, *errors.Error) {
	p, err := c.classify(elem, stack)
	if err != nil {
		return NonPacked, err.Note(td.Name, "", "container values must be packed")
	}
	if p == NonPacked {
		return NonPacked, errors.IllegalContainerNesting(td.Name, td.Name, elem.Name)
	}
	return Packed, nil
}
