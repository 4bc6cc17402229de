package store

import (
	goerrors "errors"
	"reflect"

	"go.uber.org/zap"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
	"github.com/quillvm/cellar/layout"
)

// CellOptions configures a typed cell accessor.
type CellOptions struct {
	// Root is the key of the cell holding the value's inline encoding.
	// The zero value is cellar.RootKey, the conventional top-level root.
	Root cellar.StorageKey
	// Deriver supplies the layout. A fresh one is created when nil;
	// sharing a deriver across cells shares its caches.
	Deriver *layout.Deriver
}

// Cell binds a derived layout for T and a root key to a Store. Load and
// Store walk the layout's cell hints, so fields resolved to their own
// cells are read and written at their derived keys along with the inline
// part. Lazy cells are skipped; reach them with LoadLazy and StoreLazy.
type Cell[T any] struct {
	store  cellar.Store
	layout *layout.Derived
}

func NewCell[T any](s cellar.Store, opts CellOptions) (*Cell[T], error) {
	dr := opts.Deriver
	if dr == nil {
		dr = layout.NewDeriver(layout.Options{})
	}
	td, err := dr.Describe(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	derived, err := dr.DeriveAt(td, opts.Root)
	if err != nil {
		return nil, err
	}
	return &Cell[T]{store: s, layout: derived}, nil
}

// Layout returns the derived layout backing this cell.
func (c *Cell[T]) Layout() *layout.Derived {
	return c.layout
}

// Key returns the root key of the cell.
func (c *Cell[T]) Key() cellar.StorageKey {
	return c.layout.Root
}

// Load reads the value from storage. An empty root cell is an EmptyCell
// error; nested cells that were never written leave their fields zero.
func (c *Cell[T]) Load() (T, error) {
	var out T
	if err := readValue(c.store, c.layout, &out); err != nil {
		var zero T
		return zero, err
	}
	Logger().Debug("loaded cell",
		zap.String("type", c.layout.Type.Name),
		zap.Stringer("root", c.layout.Root))
	return out, nil
}

// LoadOrInit reads the value, or initializes storage from init when the
// root cell is empty. Any other failure, including a corrupt cell, is
// returned as is.
func (c *Cell[T]) LoadOrInit(init func() T) (T, error) {
	v, err := c.Load()
	if err == nil {
		return v, nil
	}
	var e *errors.Error
	if !goerrors.As(err, &e) || e.Kind != errors.KindEmptyCell {
		var zero T
		return zero, err
	}

	v = init()
	if err := c.Store(v); err != nil {
		var zero T
		return zero, err
	}
	Logger().Debug("initialized cell",
		zap.String("type", c.layout.Type.Name),
		zap.Stringer("root", c.layout.Root))
	return v, nil
}

// Store writes the value: the inline encoding under the root key, then
// every non-lazy cell field under its own key. A non-live enum variant's
// cells are cleared.
func (c *Cell[T]) Store(v T) error {
	if err := writeValue(c.store, c.layout, v); err != nil {
		return err
	}
	Logger().Debug("stored cell",
		zap.String("type", c.layout.Type.Name),
		zap.Stringer("root", c.layout.Root))
	return nil
}

// Exists reports whether the root cell holds a value.
func (c *Cell[T]) Exists() (bool, error) {
	_, ok, err := c.store.Get(c.layout.Root)
	return ok, err
}

// Remove clears the root cell and every cell the layout allocates beneath
// it, including lazy ones.
func (c *Cell[T]) Remove() error {
	return removeValue(c.store, c.layout)
}

// LoadLazy reads the value behind a lazy cell boundary. The cell key must
// have been populated by decoding the enclosing value.
func LoadLazy[T any](s cellar.Store, dr *layout.Deriver, cell layout.Lazy[T]) (T, error) {
	var zero T
	d, err := lazyLayout[T](dr, cell)
	if err != nil {
		return zero, err
	}
	var out T
	if err := readValue(s, d, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// StoreLazy writes the value behind a lazy cell boundary.
func StoreLazy[T any](s cellar.Store, dr *layout.Deriver, cell layout.Lazy[T], v T) error {
	d, err := lazyLayout[T](dr, cell)
	if err != nil {
		return err
	}
	return writeValue(s, d, v)
}

// RemoveLazy clears a lazy cell and the cells its layout allocates.
func RemoveLazy[T any](s cellar.Store, dr *layout.Deriver, cell layout.Lazy[T]) error {
	d, err := lazyLayout[T](dr, cell)
	if err != nil {
		return err
	}
	return removeValue(s, d)
}

func lazyLayout[T any](dr *layout.Deriver, cell layout.Lazy[T]) (*layout.Derived, error) {
	if cell.CellKey == cellar.RootKey {
		return nil, errors.InvalidData(errors.PhaseStore,
			"lazy cell key is unset; decode the enclosing value first")
	}
	td, err := dr.Describe(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return dr.DeriveAt(td, cell.CellKey)
}

func writeValue(st cellar.Store, d *layout.Derived, v any) error {
	data, err := d.Encode(v)
	if err != nil {
		return err
	}
	if err := st.Set(d.Root, data); err != nil {
		return err
	}

	for _, h := range d.CellHints() {
		if h.Lazy {
			continue
		}
		val, live, err := d.CellValue(v, h)
		if err != nil {
			return err
		}
		cd, err := d.CellLayout(h)
		if err != nil {
			return err
		}
		if !live {
			if err := removeValue(st, cd); err != nil {
				return err
			}
			continue
		}
		if err := writeValue(st, cd, val); err != nil {
			return err
		}
	}
	return nil
}

func readValue(st cellar.Store, d *layout.Derived, out any) error {
	data, ok, err := st.Get(d.Root)
	if err != nil {
		return err
	}
	if !ok {
		return errors.EmptyCell(d.Root)
	}
	if err := d.Decode(data, out); err != nil {
		return errors.Corrupt(d.Root, err)
	}

	for _, h := range d.CellHints() {
		if h.Lazy {
			continue
		}
		if _, live, err := d.CellValue(out, h); err != nil {
			return err
		} else if !live {
			continue
		}
		cd, err := d.CellLayout(h)
		if err != nil {
			return err
		}
		fv := reflect.New(cd.Type.Go)
		if err := readValue(st, cd, fv.Interface()); err != nil {
			var e *errors.Error
			if goerrors.As(err, &e) && e.Kind == errors.KindEmptyCell {
				// Never written; the field keeps its zero value.
				continue
			}
			return err
		}
		if err := d.SetCellValue(out, h, fv.Elem().Interface()); err != nil {
			return err
		}
	}
	return nil
}

func removeValue(st cellar.Store, d *layout.Derived) error {
	if err := st.Remove(d.Root); err != nil {
		return err
	}
	for _, h := range d.CellHints() {
		if h.Lazy {
			if err := st.Remove(h.Key); err != nil {
				return err
			}
			continue
		}
		cd, err := d.CellLayout(h)
		if err != nil {
			return err
		}
		if err := removeValue(st, cd); err != nil {
			return err
		}
	}
	return nil
}
