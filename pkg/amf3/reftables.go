package amf3

// Trait is the schema descriptor of an AMF3 object class: an ordered set
// of fixed slot names plus dynamic/externalizable flags, reused by
// reference across multiple instances of the same class.
type Trait struct {
	ClassName      string
	Dynamic        bool
	Externalizable bool
	Slots          []string
}

// RefTables holds the three independent, append-only, per-session
// reference tables an AMF3 decoding session maintains: strings, traits,
// and already-materialized complex objects. Clients (the string reader,
// the object/array/vector decoders) decide when to intern; RefTables
// itself enforces no policy beyond append-only index stability.
type RefTables struct {
	Strings []string
	Traits  []Trait
	Objects []Value
}

// NewRefTables returns an empty set of reference tables.
func NewRefTables() *RefTables {
	return &RefTables{}
}

// InternString appends s and returns its new index. It does not check
// for the empty string; the string reader never passes one, since a
// zero-length string is always represented inline, never by reference.
func (r *RefTables) InternString(s string) int {
	r.Strings = append(r.Strings, s)
	return len(r.Strings) - 1
}

// LookupString resolves a string reference index.
func (r *RefTables) LookupString(i int) (string, error) {
	if i < 0 || i >= len(r.Strings) {
		return "", newDecodeError(-1, ErrInvalidReference)
	}
	return r.Strings[i], nil
}

// InternTrait appends a newly-read Trait descriptor and returns its index.
func (r *RefTables) InternTrait(t Trait) int {
	r.Traits = append(r.Traits, t)
	return len(r.Traits) - 1
}

// LookupTrait resolves a traits reference index.
func (r *RefTables) LookupTrait(i int) (Trait, error) {
	if i < 0 || i >= len(r.Traits) {
		return Trait{}, newDecodeError(-1, ErrInvalidReference)
	}
	return r.Traits[i], nil
}

// InternObject appends an already-allocated complex value BEFORE its
// children are decoded, so that a child which references an ancestor
// (a cycle) resolves to the same value. Returns the new index.
func (r *RefTables) InternObject(v Value) int {
	r.Objects = append(r.Objects, v)
	return len(r.Objects) - 1
}

// SetObject overwrites a previously-interned slot. Used once a
// container's children have all been read, to store the fully
// populated value in place of the shell that was interned first.
func (r *RefTables) SetObject(i int, v Value) {
	r.Objects[i] = v
}

// LookupObject resolves an object reference index.
func (r *RefTables) LookupObject(i int) (Value, error) {
	if i < 0 || i >= len(r.Objects) {
		return Value{}, newDecodeError(-1, ErrInvalidReference)
	}
	return r.Objects[i], nil
}

// ClearObjects truncates the objects table to empty. Called at the
// boundary between top-level records: objects never cross record
// boundaries, while strings and traits persist across an entire stream.
func (r *RefTables) ClearObjects() {
	r.Objects = r.Objects[:0]
}

// Snapshot captures the current lengths of the strings and traits
// tables, for later rollback via Truncate if a record turns out to be
// only partially available.
type Snapshot struct {
	Strings int
	Traits  int
}

// TakeSnapshot records the current strings/traits table lengths.
func (r *RefTables) TakeSnapshot() Snapshot {
	return Snapshot{Strings: len(r.Strings), Traits: len(r.Traits)}
}

// Truncate resets the strings and traits tables back to a prior
// snapshot. Both tables are append-only, so truncation is just a length
// reset; no entries beyond the snapshot can have been referenced yet,
// since the partial record that appended them never completed.
func (r *RefTables) Truncate(s Snapshot) {
	r.Strings = r.Strings[:s.Strings]
	r.Traits = r.Traits[:s.Traits]
}
