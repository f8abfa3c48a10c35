package version

import (
	"maps"
	"slices"
	"sort"
)

// Range is a run of deleted clocks [Clock, Clock+Len) of one client.
type Range struct {
	Clock uint64
	Len   uint64
}

func (r Range) end() uint64 { return r.Clock + r.Len }

// DeleteSet records which element ranges were tombstoned, per client.
// Ranges are appended unordered; Normalize sorts and merges them, after
// which lookups use binary search.
type DeleteSet struct {
	clients    map[uint64][]Range
	normalized bool
}

func NewDeleteSet() *DeleteSet {
	return &DeleteSet{clients: make(map[uint64][]Range), normalized: true}
}

// Add records the deletion of length elements starting at ID{client, clock}.
func (ds *DeleteSet) Add(client, clock, length uint64) {
	if length == 0 {
		return
	}
	ds.clients[client] = append(ds.clients[client], Range{Clock: clock, Len: length})
	ds.normalized = false
}

// Merge adds every range of other to ds.
func (ds *DeleteSet) Merge(other *DeleteSet) {
	if other == nil {
		return
	}
	for client, ranges := range other.clients {
		ds.clients[client] = append(ds.clients[client], ranges...)
	}
	ds.normalized = false
}

// Normalize sorts ranges by clock and merges overlapping or adjacent runs.
func (ds *DeleteSet) Normalize() {
	if ds.normalized {
		return
	}
	for client, ranges := range ds.clients {
		if len(ranges) == 0 {
			delete(ds.clients, client)
			continue
		}
		ds.clients[client] = mergeRanges(ranges)
	}
	ds.normalized = true
}

// mergeRanges sorts ranges in place and folds overlapping or adjacent runs.
func mergeRanges(ranges []Range) []Range {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Clock < ranges[j].Clock })
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Clock <= last.end() {
			if r.end() > last.end() {
				last.Len = r.end() - last.Clock
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Contains reports whether the element identified by id was deleted. It
// never mutates ds, so a normalized set is safe for concurrent lookups.
func (ds *DeleteSet) Contains(id ID) bool {
	if ds == nil {
		return false
	}
	ranges := ds.clients[id.Client]
	if !ds.normalized {
		return slices.ContainsFunc(ranges, func(r Range) bool {
			return r.Clock <= id.Clock && id.Clock < r.end()
		})
	}
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].end() > id.Clock })
	return i < len(ranges) && ranges[i].Clock <= id.Clock
}

// Clients returns the clients with at least one deleted range, ascending.
func (ds *DeleteSet) Clients() []uint64 {
	return slices.Sorted(maps.Keys(ds.clients))
}

// Ranges returns the normalized ranges of client.
func (ds *DeleteSet) Ranges(client uint64) []Range {
	ranges := slices.Clone(ds.clients[client])
	if ds.normalized || len(ranges) == 0 {
		return ranges
	}
	return mergeRanges(ranges)
}

func (ds *DeleteSet) IsEmpty() bool {
	return len(ds.clients) == 0
}

func (ds *DeleteSet) Clone() *DeleteSet {
	out := NewDeleteSet()
	out.Merge(ds)
	return out
}

func (ds *DeleteSet) Equal(other *DeleteSet) bool {
	clients := ds.Clients()
	if !slices.Equal(clients, other.Clients()) {
		return false
	}
	for _, client := range clients {
		if !slices.Equal(ds.Ranges(client), other.Ranges(client)) {
			return false
		}
	}
	return true
}
