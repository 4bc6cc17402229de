package store

import (
	"bytes"
	"testing"

	"github.com/quillvm/cellar"
)

func openTestPebble(t *testing.T) *Pebble {
	t.Helper()
	p, err := OpenPebble(t.TempDir(), PebbleOptions{})
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	t.Cleanup(func() {
		if err := p.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return p
}

func TestPebbleGetSetRemove(t *testing.T) {
	p := openTestPebble(t)
	key := cellar.StorageKey(0x00c0ffee)

	if _, ok, err := p.Get(key); err != nil || ok {
		t.Fatalf("empty cell: ok=%v err=%v", ok, err)
	}

	want := []byte{1, 2, 3}
	if err := p.Set(key, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := p.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("value = %x, want %x", got, want)
	}

	if err := p.Remove(key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := p.Get(key); ok {
		t.Error("cell survived Remove")
	}

	// Removing an already empty cell is fine.
	if err := p.Remove(key); err != nil {
		t.Errorf("Remove empty: %v", err)
	}
}

func TestPebbleOverwrite(t *testing.T) {
	p := openTestPebble(t)
	key := cellar.StorageKey(7)

	if err := p.Set(key, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := p.Set(key, []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, _, _ := p.Get(key)
	if string(got) != "new" {
		t.Errorf("value = %q", got)
	}
}

func TestPebblePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	key := cellar.StorageKey(0x42)

	p, err := OpenPebble(dir, PebbleOptions{Sync: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Set(key, []byte("durable")); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	p, err = OpenPebble(dir, PebbleOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	got, ok, err := p.Get(key)
	if err != nil || !ok {
		t.Fatalf("reopen Get: ok=%v err=%v", ok, err)
	}
	if string(got) != "durable" {
		t.Errorf("value = %q", got)
	}
}

func TestPebbleBackedCell(t *testing.T) {
	p := openTestPebble(t)
	c := newCell[account](t, p)

	if err := c.Store(account{Balance: 900, Frozen: true}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	out, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Balance != 900 || !out.Frozen {
		t.Errorf("loaded %+v", out)
	}
}
