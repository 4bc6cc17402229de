package layout

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
)

// Options configures a Deriver.
type Options struct {
	// Root is the key under which top-level layouts are rooted. The zero
	// value is cellar.RootKey.
	Root cellar.StorageKey
	// Registry receives resolution results. A fresh registry is created
	// when nil. Sharing one registry between derivers shares their caches.
	Registry *Registry
}

// Deriver composes classification, constraint checking, key allocation and
// hint resolution into one pass that produces a Derived bundle per type.
// A Deriver is safe for concurrent use; each type resolves once and
// dependents read the registry.
type Deriver struct {
	root       cellar.StorageKey
	describer  *describer
	classifier *Classifier
	resolver   *Resolver
	registry   *Registry
}

func NewDeriver(opts Options) *Deriver {
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	classifier := NewClassifier()
	return &Deriver{
		root:       opts.Root,
		describer:  newDescriber(),
		classifier: classifier,
		resolver:   NewResolver(classifier),
		registry:   registry,
	}
}

// Registry returns the deriver's registry.
func (d *Deriver) Registry() *Registry {
	return d.registry
}

// Describe builds (or returns the cached) type descriptor for t.
func (d *Deriver) Describe(t reflect.Type) (*TypeDescriptor, error) {
	return d.describer.describe(t)
}

// DeriveType describes t and derives its layout rooted at the configured
// root key.
func (d *Deriver) DeriveType(t reflect.Type) (*Derived, error) {
	td, err := d.Describe(t)
	if err != nil {
		return nil, err
	}
	return d.Derive(td)
}

// Derive resolves td rooted at the configured root key.
func (d *Deriver) Derive(td *TypeDescriptor) (*Derived, error) {
	return d.DeriveAt(td, d.root)
}

// DeriveAt resolves td rooted at an explicit key. Store accessors use this
// to derive the layout of a cell's content at the cell's own key.
func (d *Deriver) DeriveAt(td *TypeDescriptor, root cellar.StorageKey) (*Derived, error) {
	if derived, err, ok := d.registry.Lookup(td, root); ok {
		return derived, err
	}

	d.registry.transition(td, root, StateClassifying)
	packedness, err := d.classifier.Classify(td)
	if err != nil {
		return nil, d.rejected(td, root, err)
	}
	d.registry.transition(td, root, StateClassified)

	d.registry.transition(td, root, StateResolving)
	hints, err := d.resolver.Resolve(td, root)
	if err != nil {
		return nil, d.rejected(td, root, err)
	}

	derived := &Derived{
		Type:       td,
		Packedness: packedness,
		Hints:      hints,
		Root:       root,
		deriver:    d,
		cells:      indexCells(hints),
	}
	d.registry.resolve(td, root, derived)
	Logger().Debug("derived layout",
		zap.String("type", td.Name),
		zap.Stringer("root", root),
		zap.Stringer("packedness", packedness),
		zap.Int("hints", len(hints)))
	return derived, nil
}

// rejected records the terminal rejection, annotating the chain with the
// top-level declaration site.
func (d *Deriver) rejected(td *TypeDescriptor, root cellar.StorageKey, err error) error {
	e, ok := err.(*errors.Error)
	if !ok {
		e = errors.Wrap(errors.PhaseResolve, errors.KindInvalidData, err, "derivation failed")
	}
	if e.Type != td.Name {
		e = e.Note(td.Name, "", "storage layout derivation")
	}
	d.registry.reject(td, root, e)
	return e
}

// Derived is the produced artifact for one user type: its classification,
// its ordered storable hints, and the generated codec rooted at Root.
type Derived struct {
	Type       *TypeDescriptor
	Packedness Packedness
	Hints      []Hint
	Root       cellar.StorageKey

	deriver *Deriver
	cells   map[string]map[string]Hint // variant ("" for struct) -> field -> hint
}

func indexCells(hints []Hint) map[string]map[string]Hint {
	cells := make(map[string]map[string]Hint)
	for _, h := range hints {
		if h.Kind != HintCell {
			continue
		}
		scope := cells[h.Variant]
		if scope == nil {
			scope = make(map[string]Hint)
			cells[h.Variant] = scope
		}
		scope[h.Field] = h
	}
	return cells
}

// CellHints returns the hints that allocate cells, in declaration order.
func (d *Derived) CellHints() []Hint {
	var out []Hint
	for _, h := range d.Hints {
		if h.Kind == HintCell {
			out = append(out, h)
		}
	}
	return out
}

func (d *Derived) cellHint(variant, field string) (Hint, bool) {
	scope, ok := d.cells[variant]
	if !ok {
		return Hint{}, false
	}
	h, ok := scope[field]
	return h, ok
}

// Fingerprint digests the resolved layout: type shape, field order, storage
// strategies and cell keys. Two builds of the same definition produce the
// same fingerprint, so callers can assert layout compatibility before an
// upgrade touches stored data.
func (d *Derived) Fingerprint() string {
	h := xxhash.New()
	fmt.Fprintf(h, "v%d|%s|%s|root=%s", KeyHashVersion, d.Type.Name, d.Packedness, d.Root)
	fingerprintType(h, d.Type, make(map[*TypeDescriptor]bool))
	for _, hint := range d.Hints {
		fmt.Fprintf(h, "|%s/%s:%s@%d", hint.Variant, hint.Field, hint.Kind, hint.Offset)
		if hint.Kind == HintCell {
			fmt.Fprintf(h, ":%s", hint.Key)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func fingerprintType(h *xxhash.Digest, td *TypeDescriptor, seen map[*TypeDescriptor]bool) {
	if seen[td] {
		return
	}
	seen[td] = true

	fmt.Fprintf(h, "|%s=%s", td.Name, td.Kind)
	switch td.Kind {
	case KindBytes, KindArray:
		fmt.Fprintf(h, "[%d]", td.Len)
	}
	if td.Elem != nil {
		fingerprintType(h, td.Elem, seen)
	}
	if td.MapKey != nil {
		fingerprintType(h, td.MapKey, seen)
		fingerprintType(h, td.MapValue, seen)
	}
	for i := range td.Fields {
		f := &td.Fields[i]
		fmt.Fprintf(h, "|.%s", f.Name)
		if f.ManualKey != nil {
			fmt.Fprintf(h, "!%s", *f.ManualKey)
		}
		fingerprintType(h, f.Type, seen)
	}
	for vi := range td.Variants {
		v := &td.Variants[vi]
		fmt.Fprintf(h, "|#%d:%s", v.Discriminant, v.Name)
		for i := range v.Fields {
			f := &v.Fields[i]
			fmt.Fprintf(h, "|.%s", f.Name)
			if f.ManualKey != nil {
				fmt.Fprintf(h, "!%s", *f.ManualKey)
			}
			fingerprintType(h, f.Type, seen)
		}
	}
}
