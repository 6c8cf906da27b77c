package vm

// RawHash is an open-addressed table keyed by raw 64-bit value bits.
// Number-keyed map access uses the number's IEEE-754 bit pattern as
// its key, so zero is a legal key and slots carry an explicit state
// byte instead of a key sentinel. Probing, tombstones and the growth
// policy mirror Table.

type slotState uint8

const (
	slotEmpty slotState = iota
	slotFull
	slotTombstone
)

type hashEntry struct {
	key   uint64
	value Value
	state slotState
}

type RawHash struct {
	count   int // full entries plus tombstones
	entries []hashEntry
}

// mix64 spreads the raw key bits before masking. Adjacent float bit
// patterns differ only in low mantissa bits, so a finalizer pass keeps
// probe chains short.
func mix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

func findHashEntry(entries []hashEntry, key uint64) *hashEntry {
	index := int(mix64(key)) & (len(entries) - 1)
	var tombstone *hashEntry

	for {
		entry := &entries[index]
		switch entry.state {
		case slotEmpty:
			if tombstone != nil {
				return tombstone
			}
			return entry
		case slotTombstone:
			if tombstone == nil {
				tombstone = entry
			}
		case slotFull:
			if entry.key == key {
				return entry
			}
		}

		index = (index + 1) & (len(entries) - 1)
	}
}

// Get looks up key and reports whether it was present.
func (h *RawHash) Get(key uint64) (Value, bool) {
	if h.count == 0 {
		return NilVal(), false
	}

	entry := findHashEntry(h.entries, key)
	if entry.state != slotFull {
		return NilVal(), false
	}
	return entry.value, true
}

// Set stores value under key and returns true if the key was new.
func (h *RawHash) Set(key uint64, value Value) bool {
	if float64(h.count+1) > float64(len(h.entries))*tableMaxLoad {
		h.adjustCapacity(growCapacity(len(h.entries)))
	}

	entry := findHashEntry(h.entries, key)
	isNew := entry.state != slotFull
	if entry.state == slotEmpty {
		h.count++
	}

	entry.key = key
	entry.value = value
	entry.state = slotFull
	return isNew
}

// Delete removes key, leaving a tombstone, and reports whether the key
// was present.
func (h *RawHash) Delete(key uint64) bool {
	if h.count == 0 {
		return false
	}

	entry := findHashEntry(h.entries, key)
	if entry.state != slotFull {
		return false
	}

	entry.state = slotTombstone
	return true
}

// Len returns the number of full entries.
func (h *RawHash) Len() int {
	n := 0
	for i := range h.entries {
		if h.entries[i].state == slotFull {
			n++
		}
	}
	return n
}

func (h *RawHash) adjustCapacity(capacity int) {
	entries := make([]hashEntry, capacity)
	h.count = 0

	for i := range h.entries {
		entry := &h.entries[i]
		if entry.state != slotFull {
			continue
		}
		dest := findHashEntry(entries, entry.key)
		*dest = *entry
		h.count++
	}

	h.entries = entries
}
