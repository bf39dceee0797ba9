// Package state holds the client-visible state of the UI surface. Stores are
// owned by the UI loop and mutated only through their methods, so they carry
// no locks.
package state

// PantryStore tracks the user's draft pantry id against the committed one.
type PantryStore interface {
	Draft() string
	SetDraft(string)
	Committed() string
	// Known is false until the host reports an id or the user commits one.
	Known() bool
	// Loaded records the host's answer to get_pantry_id. The draft is
	// replaced too, mirroring the input box being filled in.
	Loaded(id string)
	// Unknown records that the host could not be asked.
	Unknown()
	// Commit optimistically marks value as committed.
	Commit(value string)
	ApplyVisible() bool
}

type pantryStore struct {
	draft        string
	committed    string
	known        bool
	applyVisible bool
}

func NewPantryStore() PantryStore {
	return &pantryStore{}
}

func (p *pantryStore) Draft() string {
	return p.draft
}

func (p *pantryStore) SetDraft(draft string) {
	p.draft = draft
	p.recompute()
}

func (p *pantryStore) Committed() string {
	return p.committed
}

func (p *pantryStore) Known() bool {
	return p.known
}

func (p *pantryStore) Loaded(id string) {
	p.committed = id
	p.draft = id
	p.known = true
	p.recompute()
}

func (p *pantryStore) Unknown() {
	p.known = false
	p.recompute()
}

func (p *pantryStore) Commit(value string) {
	p.committed = value
	p.known = true
	p.recompute()
}

func (p *pantryStore) ApplyVisible() bool {
	return p.applyVisible
}

func (p *pantryStore) recompute() {
	if !p.known {
		p.applyVisible = p.draft != ""
		return
	}
	p.applyVisible = p.draft != p.committed
}
