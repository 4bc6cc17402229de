package layout

import (
	goerrors "errors"
	"testing"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
)

func newTestResolver() (*describer, *Resolver) {
	return newDescriber(), NewResolver(NewClassifier())
}

func TestResolvePackedStructIsAllInline(t *testing.T) {
	d, r := newTestResolver()
	hints, err := r.Resolve(mustDescribe(t, d, inner{}), cellar.RootKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []Hint{
		{Field: "A", Kind: HintInline, Offset: 0},
		{Field: "B", Kind: HintInline, Offset: 4},
	}
	if len(hints) != len(want) {
		t.Fatalf("hints = %d, want %d", len(hints), len(want))
	}
	for i, h := range hints {
		if h != want[i] {
			t.Errorf("hint %d = %+v, want %+v", i, h, want[i])
		}
	}
}

func TestResolveOffsetsGoDynamicAfterVariableField(t *testing.T) {
	d, r := newTestResolver()
	hints, err := r.Resolve(mustDescribe(t, d, packet{}), cellar.RootKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// ID u64 at 0, Flag bool at 8, then Name string makes every later
	// offset dynamic.
	byField := make(map[string]Hint, len(hints))
	for _, h := range hints {
		if h.Kind != HintInline {
			t.Errorf("field %s resolved to %s, want inline", h.Field, h.Kind)
		}
		byField[h.Field] = h
	}
	if byField["ID"].Offset != 0 || byField["Flag"].Offset != 8 || byField["Name"].Offset != 9 {
		t.Errorf("fixed prefix offsets: ID=%d Flag=%d Name=%d",
			byField["ID"].Offset, byField["Flag"].Offset, byField["Name"].Offset)
	}
	for _, f := range []string{"Raw", "Tags", "Pos", "Hash", "Maybe"} {
		if byField[f].Offset != -1 {
			t.Errorf("field %s offset = %d, want -1 after a variable-length field", f, byField[f].Offset)
		}
	}
}

func TestResolveManualKeyForcesCell(t *testing.T) {
	d, r := newTestResolver()
	hints, err := r.Resolve(mustDescribe(t, d, flipper{}), cellar.RootKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hints) != 2 {
		t.Fatalf("hints = %d, want 2", len(hints))
	}
	if hints[0].Kind != HintInline || hints[0].Field != "Value" {
		t.Errorf("hint 0 = %+v", hints[0])
	}
	if hints[1].Kind != HintCell || hints[1].Key != cellar.StorageKey(0x00c0ffee) {
		t.Errorf("hint 1 = %+v, want cell at 0x00c0ffee", hints[1])
	}
	if hints[1].Lazy {
		t.Error("manual key cell is composite-managed, not lazy")
	}
}

func TestResolveLazyFieldIsLazyCell(t *testing.T) {
	d, r := newTestResolver()
	hints, err := r.Resolve(mustDescribe(t, d, lazyNode{}), cellar.RootKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	next := hints[1]
	if next.Field != "Next" || next.Kind != HintCell || !next.Lazy {
		t.Errorf("hint = %+v, want a lazy cell", next)
	}
	if next.Key == cellar.RootKey {
		t.Error("derived cell key must not land on the root key")
	}
}

func TestResolveKeysDependOnRoot(t *testing.T) {
	d, r := newTestResolver()
	td := mustDescribe(t, d, account{})

	// Frozen carries a manual key, so pin the derived case with lazyNode.
	lt := mustDescribe(t, d, lazyNode{})
	a, err := r.Resolve(lt, cellar.RootKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Resolve(lt, cellar.StorageKey(42))
	if err != nil {
		t.Fatal(err)
	}
	if a[1].Key == b[1].Key {
		t.Error("derived keys under different roots must differ")
	}

	// Manual keys are verbatim at any root.
	ha, err := r.Resolve(td, cellar.RootKey)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := r.Resolve(td, cellar.StorageKey(42))
	if err != nil {
		t.Fatal(err)
	}
	if ha[1].Key != cellar.StorageKey(0x100) || hb[1].Key != cellar.StorageKey(0x100) {
		t.Errorf("manual key moved with the root: %s vs %s", ha[1].Key, hb[1].Key)
	}
}

func TestResolveEnumVariantScopes(t *testing.T) {
	d, r := newTestResolver()
	hints, err := r.Resolve(mustDescribe(t, d, enumCells{}), cellar.RootKey)
	if err != nil {
		t.Fatalf("identically named fields in separate variants must not collide: %v", err)
	}
	if len(hints) != 2 {
		t.Fatalf("hints = %d, want 2", len(hints))
	}
	left, right := hints[0], hints[1]
	if left.Variant != "Left" || right.Variant != "Right" {
		t.Errorf("variants = %q, %q", left.Variant, right.Variant)
	}
	if left.Key == right.Key {
		t.Errorf("Left.Data and Right.Data share key %s; variant name must be on the path", left.Key)
	}
}

func TestResolveEnumOffsetsSkipDiscriminant(t *testing.T) {
	d, r := newTestResolver()
	hints, err := r.Resolve(mustDescribe(t, d, shape{}), cellar.RootKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, h := range hints {
		if h.Kind != HintInline || h.Offset != 1 {
			t.Errorf("hint %+v, want inline at offset 1 past the discriminant", h)
		}
	}
}

func TestResolveManualKeyCollision(t *testing.T) {
	d, r := newTestResolver()
	_, err := r.Resolve(mustDescribe(t, d, manualCollision{}), cellar.RootKey)
	if err == nil {
		t.Fatal("expected collision")
	}
	var e *errors.Error
	if !goerrors.As(err, &e) || e.Kind != errors.KindManualKeyCollision {
		t.Errorf("error = %v, want manual_key_collision", err)
	}
}

func TestResolveNonCompositeHasNoHints(t *testing.T) {
	d, r := newTestResolver()
	for _, v := range []any{uint32(0), "", []byte{}, map[uint32]uint64{}} {
		hints, err := r.Resolve(mustDescribe(t, d, v), cellar.RootKey)
		if err != nil {
			t.Fatalf("%T: %v", v, err)
		}
		if hints != nil {
			t.Errorf("%T: hints = %+v, want none", v, hints)
		}
	}
}
