package layout

// Fixture types shared by the layout tests.

// Fully packed: every field inlines into one contiguous encoding.
type packet struct {
	ID    uint64
	Flag  bool
	Name  string
	Raw   []byte
	Tags  map[uint32]uint64
	Pos   [2]uint32
	Hash  [4]byte
	Maybe *uint16
}

type inner struct {
	A uint32
	B uint64
}

type outer struct {
	Inner inner
	Label string
}

// flipper mirrors the classic upgradable contract root: one packed field
// and one pinned to a well-known cell.
type flipper struct {
	Value   bool
	Version uint32 `cellar:"key=0x00c0ffee"`
}

// account is non-packed: the manual key gives Frozen its own cell.
type account struct {
	Balance uint64
	Frozen  bool `cellar:"key=0x100"`
}

// ledger is illegal: a container value type that owns cells.
type ledger struct {
	Total    uint64
	Balances map[uint32]account
}

// optionalAccount is illegal: the account's cells would sit behind the
// option's presence byte where no hint can address them.
type optionalAccount struct {
	Acct *account
}

type circle struct {
	Radius uint32
}

type square struct {
	Side uint32
}

type shape struct {
	Circle *circle
	Square *square
}

func (shape) StorageEnum() {}

// enumCells has identically named cell fields in two variants; their keys
// must not collide.
type leftVariant struct {
	Data Lazy[inner]
}

type rightVariant struct {
	Data Lazy[inner]
}

type enumCells struct {
	Left  *leftVariant
	Right *rightVariant
}

func (enumCells) StorageEnum() {}

// node is an infinite layout: it reaches itself through an option with no
// cell boundary.
type node struct {
	Value uint32
	Next  *node
}

// lazyNode is the legal version: the recursion crosses a Lazy cell.
type lazyNode struct {
	Value uint32
	Next  Lazy[lazyNode]
}

type manualCollision struct {
	A uint32 `cellar:"key=0x7"`
	B uint32 `cellar:"key=0x7"`
}

type skippedField struct {
	Keep uint32
	Drop uint64 `cellar:"-"`
}
