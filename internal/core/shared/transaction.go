package shared

import (
	"slices"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/version"
)

// changeSet records what changed on one container within a transaction.
type changeSet struct {
	keys mapset.Set[string]
	list bool
}

// Transaction batches the mutations of one causal unit of work. It is only
// valid inside the function passed to Doc.Transact.
type Transaction struct {
	doc         *Doc
	beforeState version.StateVector
	afterState  version.StateVector
	deleteSet   *version.DeleteSet
	closed      bool

	changed      map[*AbstractType]*changeSet
	changedOrder []*AbstractType
	events       []*Event

	changedParentTypes map[*AbstractType][]*Event
	parentOrder        []*AbstractType
}

func newTransaction(d *Doc) *Transaction {
	return &Transaction{
		doc:                d,
		beforeState:        d.store.stateVector(),
		deleteSet:          version.NewDeleteSet(),
		changed:            make(map[*AbstractType]*changeSet),
		changedParentTypes: make(map[*AbstractType][]*Event),
	}
}

func (tx *Transaction) Doc() *Doc { return tx.doc }

// BeforeState is the document state vector when the transaction started.
func (tx *Transaction) BeforeState() version.StateVector { return tx.beforeState.Clone() }

// AfterState is the state vector at commit; nil while the transaction runs.
func (tx *Transaction) AfterState() version.StateVector { return tx.afterState.Clone() }

// DeleteSet holds the ranges tombstoned by this transaction.
func (tx *Transaction) DeleteSet() *version.DeleteSet { return tx.deleteSet.Clone() }

func (tx *Transaction) nextID() version.ID {
	client := tx.doc.clientID
	return version.NewID(client, tx.doc.store.nextClock(client))
}

// adds reports whether the item was created in this transaction.
func (tx *Transaction) adds(it *Item) bool {
	return it.ID.Clock >= tx.beforeState.Get(it.ID.Client)
}

// deletes reports whether the item was tombstoned in this transaction.
func (tx *Transaction) deletes(it *Item) bool {
	return tx.deleteSet.Contains(it.ID)
}

// addChanged marks t as changed. Types created or deleted in this
// transaction are skipped: their parent reports them instead.
func (tx *Transaction) addChanged(t *AbstractType, key string, keyed bool) {
	if t.owner != nil {
		owner := tx.doc.store.find(*t.owner)
		if owner == nil || tx.adds(owner) || owner.deleted {
			return
		}
	}
	cs, ok := tx.changed[t]
	if !ok {
		cs = &changeSet{keys: mapset.NewThreadUnsafeSet[string]()}
		tx.changed[t] = cs
		tx.changedOrder = append(tx.changedOrder, t)
	}
	if keyed {
		cs.keys.Add(key)
	} else {
		cs.list = true
	}
}

// forget drops t from the changed set, used when t itself gets deleted.
func (tx *Transaction) forget(t *AbstractType) {
	if _, ok := tx.changed[t]; !ok {
		return
	}
	delete(tx.changed, t)
	tx.changedOrder = slices.DeleteFunc(tx.changedOrder, func(c *AbstractType) bool { return c == t })
}

// check validates tx for a mutation of t.
func (tx *Transaction) check(t *AbstractType) error {
	switch {
	case tx == nil:
		return ErrNoTransaction
	case tx.doc != t.doc:
		return ErrForeignTransaction
	case tx.closed:
		return ErrTransactionClosed
	}
	return nil
}

// Transact runs fn inside a new transaction and commits it: one event is
// built per changed type and delivered to its observers, then every
// ancestor's deep observers receive the events of their subtree. Mutations
// applied before fn returns an error are kept.
func (d *Doc) Transact(fn func(tx *Transaction) error) error {
	tx, err := d.run(fn)
	if err != nil {
		d.logger.Warn("transaction failed", log.Error(err))
	}
	tx.dispatch()
	return err
}

// run executes fn and commits under the document lock. A panic in fn
// releases the lock and closes tx, then propagates without committing.
func (d *Doc) run(fn func(tx *Transaction) error) (*Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := newTransaction(d)
	defer func() { tx.closed = true }()
	err := fn(tx)
	tx.commit()
	return tx, err
}

// commit closes the transaction and builds its events while the document
// is still locked.
func (tx *Transaction) commit() {
	tx.closed = true
	tx.afterState = tx.doc.store.stateVector()
	tx.deleteSet.Normalize()

	for _, t := range tx.changedOrder {
		ev := newEvent(t, tx, tx.changed[t])
		tx.events = append(tx.events, ev)
		for cur := t; cur != nil; cur = cur.parentType() {
			if _, ok := tx.changedParentTypes[cur]; !ok {
				tx.parentOrder = append(tx.parentOrder, cur)
			}
			tx.changedParentTypes[cur] = append(tx.changedParentTypes[cur], ev)
		}
	}

	tx.doc.logger.Debug("transaction committed",
		log.Int("changed", len(tx.changedOrder)),
		log.Int("deleted_clients", len(tx.deleteSet.Clients())))
}

func (tx *Transaction) dispatch() {
	for _, ev := range tx.events {
		ev.CurrentTarget = ev.Target
		ev.target.observers.Emit(ev)
	}

	for _, t := range tx.parentOrder {
		if t.deepObservers.Len() == 0 || t.isDeleted() {
			continue
		}
		events := slices.DeleteFunc(slices.Clone(tx.changedParentTypes[t]), func(ev *Event) bool {
			return ev.target.isDeleted()
		})
		if len(events) == 0 {
			continue
		}
		for _, ev := range events {
			ev.CurrentTarget = t.self
		}
		sort.SliceStable(events, func(i, j int) bool {
			return len(events[i].Path()) < len(events[j].Path())
		})
		t.deepObservers.Emit(events)
	}
}
