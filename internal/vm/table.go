package vm

// Table is an open-addressed hash table keyed by interned strings.
// Key equality is pointer equality after a hash fast-reject, which is
// sound because the interner canonicalizes byte-equal strings. Probing
// is linear; deleted slots become tombstones so probe chains survive
// removal.
const tableMaxLoad = 0.75

type tabEntry struct {
	key   *ObjString
	value Value
}

// A nil key with a Bool value marks a tombstone; a nil key with a Nil
// value is empty.

type Table struct {
	count   int // live entries plus tombstones
	entries []tabEntry
}

func NewTable() *Table {
	return &Table{}
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].key != nil {
			n++
		}
	}
	return n
}

// findEntry returns the slot for key: either the entry holding it, or
// the first tombstone on its probe chain, or the empty slot where it
// would go.
func findEntry(entries []tabEntry, key *ObjString) *tabEntry {
	index := int(key.Hash) & (len(entries) - 1)
	var tombstone *tabEntry

	for {
		entry := &entries[index]
		if entry.key == nil {
			if entry.value.IsNil() {
				// Empty slot ends the chain
				if tombstone != nil {
					return tombstone
				}
				return entry
			}
			if tombstone == nil {
				tombstone = entry
			}
		} else if entry.key == key {
			return entry
		}

		index = (index + 1) & (len(entries) - 1)
	}
}

// Get looks up key and reports whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return NilVal(), false
	}

	entry := findEntry(t.entries, key)
	if entry.key == nil {
		return NilVal(), false
	}
	return entry.value, true
}

// Has reports whether key is present.
func (t *Table) Has(key *ObjString) bool {
	_, ok := t.Get(key)
	return ok
}

// Set stores value under key and returns true if the key was new.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	entry := findEntry(t.entries, key)
	isNew := entry.key == nil
	if isNew && entry.value.IsNil() {
		// Reusing a tombstone does not grow the count
		t.count++
	}

	entry.key = key
	entry.value = value
	return isNew
}

// Delete removes key, leaving a tombstone, and reports whether the key
// was present.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}

	entry := findEntry(t.entries, key)
	if entry.key == nil {
		return false
	}

	entry.key = nil
	entry.value = BoolVal(true)
	return true
}

// FindString locates an interned string by content. This is the one
// lookup that compares bytes: it runs before the canonical object
// exists.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}

	index := int(hash) & (len(t.entries) - 1)
	for {
		entry := &t.entries[index]
		if entry.key == nil {
			if entry.value.IsNil() {
				return nil
			}
		} else if entry.key.Hash == hash && entry.key.Chars == chars {
			return entry.key
		}

		index = (index + 1) & (len(t.entries) - 1)
	}
}

// Range calls f for every live entry until f returns false.
func (t *Table) Range(f func(key *ObjString, value Value) bool) {
	for i := range t.entries {
		if t.entries[i].key == nil {
			continue
		}
		if !f(t.entries[i].key, t.entries[i].value) {
			return
		}
	}
}

// adjustCapacity rebuilds the table at the new size, dropping
// tombstones.
func (t *Table) adjustCapacity(capacity int) {
	entries := make([]tabEntry, capacity)
	t.count = 0

	for i := range t.entries {
		entry := &t.entries[i]
		if entry.key == nil {
			continue
		}
		dest := findEntry(entries, entry.key)
		dest.key = entry.key
		dest.value = entry.value
		t.count++
	}

	t.entries = entries
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
