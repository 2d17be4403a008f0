package object

import (
	"sort"
	"strconv"
)

type keySortEntry struct {
	name  string
	index uint64
	isIdx bool
	pos   int
}

// OrderedKeys returns property names in enumeration order: array-index
// names ascending numerically, then every other name in insertion order.
func OrderedKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	entries := make([]keySortEntry, len(keys))
	for i, k := range keys {
		e := keySortEntry{name: k, pos: i}
		if idx, ok := arrayIndex(k); ok {
			e.index = idx
			e.isIdx = true
		}
		entries[i] = e
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a := entries[i]
		b := entries[j]
		if a.isIdx != b.isIdx {
			return a.isIdx
		}
		if a.isIdx {
			return a.index < b.index
		}
		return a.pos < b.pos
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// arrayIndex reports whether name is a canonical non-negative integer.
func arrayIndex(name string) (uint64, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}
