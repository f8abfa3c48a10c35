package shared

// Iterator walks the live values of an array front to back. Each item's
// content is materialized once, when the cursor reaches it. The result of
// mutating the array while iterating is undefined.
type Iterator struct {
	t       *AbstractType
	cur     *Item
	started bool
	done    bool

	buf []any
	pos int
}

func newIterator(t *AbstractType) *Iterator {
	return &Iterator{t: t}
}

// newPrelimIterator iterates over a detached array's values.
func newPrelimIterator(values []any) *Iterator {
	return &Iterator{buf: values, done: true, started: true}
}

// Next returns the next value, or false once the array is exhausted.
func (it *Iterator) Next() (any, bool) {
	for it.pos >= len(it.buf) {
		if it.done {
			return nil, false
		}
		it.advance()
	}
	v := it.buf[it.pos]
	it.pos++
	return v, true
}

func (it *Iterator) advance() {
	if it.started {
		it.cur = it.t.next(it.cur)
	} else {
		it.cur = it.t.first()
		it.started = true
	}
	it.buf, it.pos = nil, 0
	if it.cur == nil {
		it.done = true
		return
	}
	if it.cur.live() {
		it.buf = it.cur.content.Values()
	}
}
