package layout

import (
	"sync"

	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
)

// State tracks a type's progress through derivation. Transitions happen
// once, at resolution time; Rejected and Resolved are terminal.
type State uint8

const (
	StateUndeclared State = iota
	StateClassifying
	StateClassified
	StateResolving
	StateResolved
	StateRejected
)

var stateNames = [...]string{
	StateUndeclared:  "undeclared",
	StateClassifying: "classifying",
	StateClassified:  "classified",
	StateResolving:   "resolving",
	StateResolved:    "resolved",
	StateRejected:    "rejected",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Registry maps type identity to its resolution result. It is append-only:
// a terminal entry is never replaced, so dependent composites query
// already-resolved results instead of re-deriving them. Hints depend on the
// root key, so entries are keyed by (descriptor, root key).
type Registry struct {
	mu      sync.RWMutex
	entries map[registryKey]*registryEntry
}

type registryKey struct {
	td   *TypeDescriptor
	root cellar.StorageKey
}

type registryEntry struct {
	state   State
	derived *Derived
	err     *errors.Error
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]*registryEntry)}
}

// Lookup returns the terminal result for (td, root), if any.
func (r *Registry) Lookup(td *TypeDescriptor, root cellar.StorageKey) (*Derived, error, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[registryKey{td: td, root: root}]
	if !ok {
		return nil, nil, false
	}
	switch e.state {
	case StateResolved:
		return e.derived, nil, true
	case StateRejected:
		return nil, e.err.Clone(), true
	default:
		return nil, nil, false
	}
}

// State reports the derivation state of (td, root).
func (r *Registry) State(td *TypeDescriptor, root cellar.StorageKey) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[registryKey{td: td, root: root}]
	if !ok {
		return StateUndeclared
	}
	return e.state
}

func (r *Registry) transition(td *TypeDescriptor, root cellar.StorageKey, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := registryKey{td: td, root: root}
	e, ok := r.entries[k]
	if !ok {
		e = &registryEntry{}
		r.entries[k] = e
	}
	if e.state == StateResolved || e.state == StateRejected {
		return
	}
	e.state = s
}

func (r *Registry) resolve(td *TypeDescriptor, root cellar.StorageKey, d *Derived) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := registryKey{td: td, root: root}
	e, ok := r.entries[k]
	if !ok {
		e = &registryEntry{}
		r.entries[k] = e
	}
	if e.state == StateResolved || e.state == StateRejected {
		return
	}
	e.state = StateResolved
	e.derived = d
}

func (r *Registry) reject(td *TypeDescriptor, root cellar.StorageKey, err *errors.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := registryKey{td: td, root: root}
	e, ok := r.entries[k]
	if !ok {
		e = &registryEntry{}
		r.entries[k] = e
	}
	if e.state == StateResolved || e.state == StateRejected {
		return
	}
	e.state = StateRejected
	e.err = err
}
