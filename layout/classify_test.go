package layout

import (
	goerrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/quillvm/cellar/errors"
)

func mustDescribe(t *testing.T, d *describer, v any) *TypeDescriptor {
	t.Helper()
	td, err := d.describe(reflect.TypeOf(v))
	if err != nil {
		t.Fatalf("describe %T: %v", v, err)
	}
	return td
}

func TestClassifyPackedness(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want Packedness
	}{
		{"bool", false, Packed},
		{"u64", uint64(0), Packed},
		{"string", "", Packed},
		{"byte array", [4]byte{}, Packed},
		{"packed struct", packet{}, Packed},
		{"nested packed struct", outer{}, Packed},
		{"packed slice", []uint32{}, Packed},
		{"packed map", map[uint32]uint64{}, Packed},
		{"option of packed", (*uint16)(nil), Packed},
		{"packed enum", shape{}, Packed},
		{"manual key struct", flipper{}, NonPacked},
		{"manual key account", account{}, NonPacked},
		{"lazy cell", Lazy[inner]{}, NonPacked},
		{"struct holding lazy", lazyNode{}, NonPacked},
		{"enum with cells", enumCells{}, NonPacked},
	}

	d := newDescriber()
	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(mustDescribe(t, d, tt.v))
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tt.want {
				t.Errorf("packedness = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyRejectsNonPackedContainerValues(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"map of cell-owning struct", map[uint32]account{}},
		{"slice of cell-owning struct", []account{}},
		{"array of lazy", [2]Lazy[inner]{}},
		{"option of cell-owning struct", (*account)(nil)},
		{"option of lazy", (*Lazy[inner])(nil)},
		{"struct holding illegal map", ledger{}},
		{"struct holding illegal option", optionalAccount{}},
	}

	d := newDescriber()
	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(mustDescribe(t, d, tt.v))
			if err == nil {
				t.Fatal("expected rejection")
			}
			var e *errors.Error
			if !goerrors.As(err, &e) || e.Kind != errors.KindIllegalContainerNesting {
				t.Errorf("error = %v, want illegal_container_nesting", err)
			}
		})
	}
}

func TestClassifyContainerRejectionNames(t *testing.T) {
	d := newDescriber()
	c := NewClassifier()
	_, err := c.Classify(mustDescribe(t, d, ledger{}))
	if err == nil {
		t.Fatal("expected rejection")
	}
	var e *errors.Error
	if !goerrors.As(err, &e) {
		t.Fatal("not a structured error")
	}

	msg := e.Error()
	for _, want := range []string{"account", "ledger", "Balances"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not mention %q", msg, want)
		}
	}
	// The Balances frame belongs to the enclosing ledger struct.
	last := e.Frames[len(e.Frames)-1]
	if last.Type != "ledger" || last.Field != "Balances" {
		t.Errorf("outermost frame = %+v, want ledger.Balances", last)
	}
}

func TestClassifyNonPackedMapKeyRejected(t *testing.T) {
	d := newDescriber()
	c := NewClassifier()
	_, err := c.Classify(mustDescribe(t, d, map[Lazy[inner]]uint32{}))
	var e *errors.Error
	if !goerrors.As(err, &e) || e.Kind != errors.KindIllegalContainerNesting {
		t.Errorf("error = %v, want illegal_container_nesting", err)
	}
}

func TestClassifyInfiniteLayout(t *testing.T) {
	d := newDescriber()
	c := NewClassifier()
	_, err := c.Classify(mustDescribe(t, d, node{}))
	if err == nil {
		t.Fatal("expected rejection")
	}
	var e *errors.Error
	if !goerrors.As(err, &e) || e.Kind != errors.KindInfiniteLayout {
		t.Fatalf("error = %v, want infinite_layout", err)
	}
	if !strings.Contains(e.Error(), "node") {
		t.Errorf("cycle report %q does not name the type", e.Error())
	}
}

func TestClassifyLazyBreaksRecursion(t *testing.T) {
	d := newDescriber()
	c := NewClassifier()
	p, err := c.Classify(mustDescribe(t, d, lazyNode{}))
	if err != nil {
		t.Fatalf("self-reference behind a cell must be legal: %v", err)
	}
	if p != NonPacked {
		t.Errorf("packedness = %s, want NonPacked", p)
	}
}

func TestClassifyCachedRejectionIsStable(t *testing.T) {
	d := newDescriber()
	c := NewClassifier()
	td := mustDescribe(t, d, ledger{})

	_, err1 := c.Classify(td)
	_, err2 := c.Classify(td)
	if err1 == nil || err2 == nil {
		t.Fatal("expected rejections")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("cached rejection drifted:\n  first:  %v\n  second: %v", err1, err2)
	}

	// Annotating the returned error must not leak into the cache.
	var e *errors.Error
	goerrors.As(err1, &e)
	e.Note("elsewhere", "Other", "")
	_, err3 := c.Classify(td)
	if err3.Error() != err2.Error() {
		t.Error("mutating a returned rejection changed the cached one")
	}
}
