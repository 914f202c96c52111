package vm

// Table is an open-addressed, linear-probing hash table keyed by interned
// strings. The same implementation backs the interned string table
// (value always Nil), the globals table, and instance field tables.
//
// An empty slot has Key == nil and Value.IsNil(); a tombstone (deleted
// entry kept to preserve probe chains) has Key == nil and Value.IsBool(true).
type Table struct {
	count   int // live entries + tombstones
	entries []entry
}

type entry struct {
	key   *ObjString
	value Value
}

const tableMaxLoad = 0.75

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int {
	live := 0
	for _, e := range t.entries {
		if e.key != nil {
			live++
		}
	}
	return live
}

func isTombstone(e entry) bool {
	return e.key == nil && e.value.IsBool() && e.value.Bool
}

func findEntry(entries []entry, key *ObjString) *entry {
	capacity := len(entries)
	index := key.Hash % uint32(capacity)
	var tombstone *entry

	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				// Truly empty: return the tombstone we saw, if any, else here.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// Tombstone: remember the first one, keep probing.
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			// Interning invariant: equal strings share identity, so pointer
			// equality is the whole comparison.
			return e
		}
		index = (index + 1) % uint32(capacity)
	}
}

func (t *Table) grow(capacity int) {
	newEntries := make([]entry, capacity)
	for i := range newEntries {
		newEntries[i] = entry{value: Nil()}
	}

	liveCount := 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dest := findEntry(newEntries, e.key)
		dest.key = e.key
		dest.value = e.value
		liveCount++
	}

	t.entries = newEntries
	t.count = liveCount
}

// Get returns the value bound to key, if present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.entries == nil {
		return Nil(), false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return Nil(), false
	}
	return e.value, true
}

// Set inserts or overwrites key's binding. It returns true if this created
// a brand new key.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		capacity := 8
		if len(t.entries) > 0 {
			capacity = len(t.entries) * 2
		}
		t.grow(capacity)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && e.value.IsNil() {
		t.count++
	}

	e.key = key
	e.value = value
	return isNewKey
}

// Delete removes key's binding, leaving a tombstone so later probes for
// colliding keys still succeed.
func (t *Table) Delete(key *ObjString) bool {
	if t.entries == nil {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = BoolVal(true) // tombstone marker
	return true
}

// FindString is the interning probe: it compares length, hash, then bytes
// and returns the existing interned ObjString, or nil if none matches.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.entries == nil {
		return nil
	}
	capacity := len(t.entries)
	index := hash % uint32(capacity)
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
			// Tombstone; keep probing.
		} else if e.key.Hash == hash && len(e.key.Chars) == len(chars) && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) % uint32(capacity)
	}
}

// RemoveWhite deletes every entry whose key is an unmarked (white) object,
// run before sweep so the string-interning table doesn't keep dead strings
// alive purely by virtue of being a dictionary key.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			e.key = nil
			e.value = BoolVal(true)
		}
	}
}

// Keys returns the live keys, for GC marking.
func (t *Table) Keys() []*ObjString {
	var keys []*ObjString
	for _, e := range t.entries {
		if e.key != nil {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Range iterates live entries.
func (t *Table) Range(f func(key *ObjString, value Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			f(e.key, e.value)
		}
	}
}
