package shared

import (
	"github.com/tidwall/btree"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/version"
)

// store is the item arena of a document: one btree per client, ordered by
// the clock each item starts at.
type store struct {
	clients map[uint64]*btree.BTreeG[*Item]
	state   version.StateVector
	logger  log.Log
}

func newStore(logger log.Log) *store {
	return &store{
		clients: make(map[uint64]*btree.BTreeG[*Item]),
		state:   version.StateVector{},
		logger:  logger,
	}
}

func (s *store) tree(client uint64) *btree.BTreeG[*Item] {
	tr, ok := s.clients[client]
	if !ok {
		tr = btree.NewBTreeGOptions(
			func(a, b *Item) bool {
				return a.ID.Clock < b.ID.Clock
			},
			btree.Options{
				NoLocks: true,
				Degree:  32,
			},
		)
		s.clients[client] = tr
	}
	return tr
}

// nextClock is the clock the next item of client will start at.
func (s *store) nextClock(client uint64) uint64 {
	return s.state.Get(client)
}

func (s *store) add(it *Item) {
	s.tree(it.ID.Client).Set(it)
	s.state.Advance(it.ID.Client, it.ID.Clock+uint64(it.Length()))
}

// find returns the item holding the element id, or nil.
func (s *store) find(id version.ID) *Item {
	tr, ok := s.clients[id.Client]
	if !ok {
		return nil
	}
	var found *Item
	tr.Descend(&Item{ID: id}, func(it *Item) bool {
		found = it
		return false
	})
	if found == nil || found.ID.Clock+uint64(found.Length()) <= id.Clock {
		return nil
	}
	return found
}

// get resolves an optional reference.
func (s *store) get(ref *version.ID) *Item {
	if ref == nil {
		return nil
	}
	return s.find(*ref)
}

// cleanStart returns the item that starts exactly at id, splitting the item
// holding id when id falls inside it.
func (s *store) cleanStart(tx *Transaction, id version.ID) *Item {
	it := s.find(id)
	if it == nil {
		return nil
	}
	if it.ID.Clock < id.Clock {
		return s.splitItem(tx, it, id.Clock-it.ID.Clock)
	}
	return it
}

// cleanEnd returns the item that ends exactly at id, splitting the item
// holding id when id is not its last element.
func (s *store) cleanEnd(tx *Transaction, id version.ID) *Item {
	it := s.find(id)
	if it == nil {
		return nil
	}
	if last := it.LastID(); last.Clock > id.Clock {
		s.splitItem(tx, it, id.Clock-it.ID.Clock+1)
	}
	return it
}

// splitItem cuts left after diff elements. left keeps its ID and the first
// diff elements; the returned right half takes the rest and is linked in
// directly after it.
func (s *store) splitItem(tx *Transaction, left *Item, diff uint64) *Item {
	right := &Item{
		ID:          left.ID.Offset(diff),
		left:        left.ID.Ref(),
		origin:      left.ID.Offset(diff - 1).Ref(),
		right:       clone(left.right),
		rightOrigin: clone(left.rightOrigin),
		parent:      left.parent,
		key:         left.key,
		keyed:       left.keyed,
		deleted:     left.deleted,
		content:     left.content.splice(int(diff)),
	}
	left.right = right.ID.Ref()
	if next := s.get(right.right); next != nil {
		next.left = right.ID.Ref()
	}
	s.tree(right.ID.Client).Set(right)

	s.logger.Debug("item split",
		log.String("item", left.ID.String()),
		log.Uint64("offset", diff),
		log.Bool("local", tx != nil && tx.doc.clientID == left.ID.Client))
	return right
}

func (s *store) stateVector() version.StateVector {
	return s.state.Clone()
}

// deleteSet collects the ranges of every tombstoned item.
func (s *store) deleteSet() *version.DeleteSet {
	ds := version.NewDeleteSet()
	for client, tr := range s.clients {
		tr.Scan(func(it *Item) bool {
			if it.deleted {
				ds.Add(client, it.ID.Clock, uint64(it.Length()))
			}
			return true
		})
	}
	ds.Normalize()
	return ds
}
