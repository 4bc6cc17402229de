package store

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
)

// cellPrefix namespaces cell records so the database can hold other key
// spaces alongside them.
var cellPrefix = []byte("cell:")

// PebbleOptions configures a Pebble-backed Store.
type PebbleOptions struct {
	// Sync forces a WAL sync on every write. Slower, but a crash loses
	// nothing that was acknowledged.
	Sync bool
}

// Pebble is a Store persisted in an embedded Pebble database. Cell keys are
// stored big-endian under a prefix, so cells iterate in key order.
type Pebble struct {
	db    *pebble.DB
	write *pebble.WriteOptions
}

// OpenPebble opens (or creates) a Pebble-backed store in dir.
func OpenPebble(dir string, opts PebbleOptions) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindInvalidData, err, "failed to open pebble db")
	}
	write := pebble.NoSync
	if opts.Sync {
		write = pebble.Sync
	}
	Logger().Debug("opened pebble store", zap.String("dir", dir), zap.Bool("sync", opts.Sync))
	return &Pebble{db: db, write: write}, nil
}

func (p *Pebble) Close() error {
	return p.db.Close()
}

func (p *Pebble) Get(key cellar.StorageKey) ([]byte, bool, error) {
	val, closer, err := p.db.Get(encodeCellKey(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(errors.PhaseStore, errors.KindInvalidData, err, "pebble get")
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (p *Pebble) Set(key cellar.StorageKey, value []byte) error {
	if err := p.db.Set(encodeCellKey(key), value, p.write); err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindInvalidData, err, "pebble set")
	}
	return nil
}

func (p *Pebble) Remove(key cellar.StorageKey) error {
	if err := p.db.Delete(encodeCellKey(key), p.write); err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindInvalidData, err, "pebble delete")
	}
	return nil
}

func encodeCellKey(key cellar.StorageKey) []byte {
	buf := make([]byte, len(cellPrefix)+4)
	copy(buf, cellPrefix)
	binary.BigEndian.PutUint32(buf[len(cellPrefix):], uint32(key))
	return buf
}
