package ydoc

import "sort"

// ID identifies a struct by the client that created it and its logical clock.
type ID struct {
	Client uint64
	Clock  uint64
}

// structRef is either an item or a garbage-collected range.
type structRef interface {
	id() ID
	len() uint64
}

type gc struct {
	ID ID
	n  uint64
}

func (g *gc) id() ID      { return g.ID }
func (g *gc) len() uint64 { return g.n }

// item is a single insertion. Items of one parent form a doubly linked list
// ordered by YATA; map entries keep one list per key.
type item struct {
	ID          ID
	origin      *ID
	rightOrigin *ID
	left, right *item

	parent    *Type
	parentSub string
	hasSub    bool

	// Parent as read from the update, resolved on integration.
	parentName    string
	hasParentName bool
	parentID      *ID

	content content
	deleted bool
}

func (it *item) id() ID      { return it.ID }
func (it *item) len() uint64 { return it.content.length() }

func (it *item) lastID() ID {
	return ID{Client: it.ID.Client, Clock: it.ID.Clock + it.len() - 1}
}

func sameID(a, b *ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type store struct {
	doc     *Doc
	clients map[uint64][]structRef
}

func newStore(d *Doc) *store {
	return &store{doc: d, clients: make(map[uint64][]structRef)}
}

// state is the next expected clock of client.
func (s *store) state(client uint64) uint64 {
	list := s.clients[client]
	if len(list) == 0 {
		return 0
	}
	last := list[len(list)-1]
	return last.id().Clock + last.len()
}

func (s *store) has(id ID) bool {
	return id.Clock < s.state(id.Client)
}

func (s *store) find(id ID) int {
	list := s.clients[id.Client]
	i := sort.Search(len(list), func(i int) bool {
		st := list[i]
		return st.id().Clock+st.len() > id.Clock
	})
	if i == len(list) || list[i].id().Clock > id.Clock {
		return -1
	}
	return i
}

func (s *store) get(id ID) structRef {
	i := s.find(id)
	if i < 0 {
		return nil
	}
	return s.clients[id.Client][i]
}

func (s *store) getItem(id ID) *item {
	it, _ := s.get(id).(*item)
	return it
}

func (s *store) add(st structRef) {
	c := st.id().Client
	s.clients[c] = append(s.clients[c], st)
}

func (s *store) insertAt(client uint64, i int, st structRef) {
	list := s.clients[client]
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = st
	s.clients[client] = list
}

// split cuts left at diff and links the right half after it.
func (s *store) split(left *item, diff uint64) *item {
	client, clock := left.ID.Client, left.ID.Clock
	right := &item{
		ID:          ID{Client: client, Clock: clock + diff},
		origin:      &ID{Client: client, Clock: clock + diff - 1},
		left:        left,
		right:       left.right,
		rightOrigin: left.rightOrigin,
		parent:      left.parent,
		parentSub:   left.parentSub,
		hasSub:      left.hasSub,
		deleted:     left.deleted,
		content:     left.content.splice(diff),
	}
	left.right = right
	if right.right != nil {
		right.right.left = right
	} else if right.hasSub && right.parent != nil {
		right.parent.mapItems[right.parentSub] = right
	}
	s.insertAt(client, s.find(left.ID)+1, right)
	return right
}

// cleanStart returns the struct that starts exactly at id.
func (s *store) cleanStart(id ID) structRef {
	st := s.get(id)
	if it, ok := st.(*item); ok && it.ID.Clock < id.Clock {
		return s.split(it, id.Clock-it.ID.Clock)
	}
	return st
}

// cleanEnd returns the struct that ends exactly at id.
func (s *store) cleanEnd(id ID) structRef {
	st := s.get(id)
	if it, ok := st.(*item); ok && id.Clock != it.lastID().Clock {
		s.split(it, id.Clock-it.ID.Clock+1)
	}
	return st
}

// ready reports whether every struct the item points at is already known.
func (s *store) ready(it *item) bool {
	if it.origin != nil && !s.has(*it.origin) {
		return false
	}
	if it.rightOrigin != nil && !s.has(*it.rightOrigin) {
		return false
	}
	if it.parentID != nil && !s.has(*it.parentID) {
		return false
	}
	return true
}

func (s *store) integrateGC(g *gc, offset uint64) {
	if offset > 0 {
		g.ID.Clock += offset
		g.n -= offset
	}
	s.add(g)
}

func (s *store) integrate(it *item, offset uint64) {
	if offset > 0 {
		it.ID.Clock += offset
		it.origin = &ID{Client: it.ID.Client, Clock: it.ID.Clock - 1}
		it.content = it.content.splice(offset)
	}

	collected := false
	if it.origin != nil {
		switch l := s.cleanEnd(*it.origin).(type) {
		case *item:
			it.left = l
			last := l.lastID()
			it.origin = &last
		default:
			collected = true
		}
	}
	if it.rightOrigin != nil {
		switch r := s.cleanStart(*it.rightOrigin).(type) {
		case *item:
			it.right = r
			it.rightOrigin = &r.ID
		default:
			collected = true
		}
	}

	switch {
	case collected:
		it.parent = nil
	case it.hasParentName:
		it.parent = s.doc.root(it.parentName)
	case it.parentID != nil:
		it.parent = nil
		if p := s.getItem(*it.parentID); p != nil {
			if tc, ok := p.content.(*typeContent); ok {
				it.parent = tc.t
			}
		}
	default:
		if it.left != nil {
			it.parent, it.parentSub, it.hasSub = it.left.parent, it.left.parentSub, it.left.hasSub
		}
		if it.right != nil {
			it.parent, it.parentSub, it.hasSub = it.right.parent, it.right.parentSub, it.right.hasSub
		}
	}

	if it.parent == nil {
		s.add(&gc{ID: it.ID, n: it.len()})
		return
	}

	s.resolveConflicts(it)
	s.link(it)
	s.add(it)

	if tc, ok := it.content.(*typeContent); ok {
		tc.t.item = it
	}
	if _, ok := it.content.(*deletedContent); ok {
		s.markDeleted(it)
	}
	if (it.parent.item != nil && it.parent.item.deleted) || (it.hasSub && it.right != nil) {
		s.markDeleted(it)
	}
}

// resolveConflicts moves it.left past concurrent insertions that must be
// ordered before it.
func (s *store) resolveConflicts(it *item) {
	p := it.parent
	if !((it.left == nil && (it.right == nil || it.right.left != nil)) || (it.left != nil && it.left.right != it.right)) {
		return
	}
	left := it.left
	var o *item
	switch {
	case left != nil:
		o = left.right
	case it.hasSub:
		o = p.mapItems[it.parentSub]
		for o != nil && o.left != nil {
			o = o.left
		}
	default:
		o = p.start
	}

	conflicting := make(map[*item]bool)
	beforeOrigin := make(map[*item]bool)
	for o != nil && o != it.right {
		beforeOrigin[o] = true
		conflicting[o] = true
		if sameID(it.origin, o.origin) {
			if o.ID.Client < it.ID.Client {
				left = o
				clear(conflicting)
			} else if sameID(it.rightOrigin, o.rightOrigin) {
				break
			}
		} else if oo := s.originItem(o); oo != nil && beforeOrigin[oo] {
			if !conflicting[oo] {
				left = o
				clear(conflicting)
			}
		} else {
			break
		}
		o = o.right
	}
	it.left = left
}

func (s *store) originItem(o *item) *item {
	if o.origin == nil {
		return nil
	}
	return s.getItem(*o.origin)
}

func (s *store) link(it *item) {
	p := it.parent
	if it.left != nil {
		it.right = it.left.right
		it.left.right = it
	} else {
		var r *item
		if it.hasSub {
			r = p.mapItems[it.parentSub]
			for r != nil && r.left != nil {
				r = r.left
			}
		} else {
			r = p.start
			p.start = it
		}
		it.right = r
	}
	if it.right != nil {
		it.right.left = it
	} else if it.hasSub {
		p.mapItems[it.parentSub] = it
		if it.left != nil {
			s.markDeleted(it.left)
		}
	}
}

func (s *store) markDeleted(it *item) {
	if it.deleted {
		return
	}
	it.deleted = true
	tc, ok := it.content.(*typeContent)
	if !ok {
		return
	}
	for n := tc.t.start; n != nil; n = n.right {
		s.markDeleted(n)
	}
	for _, n := range tc.t.mapItems {
		s.markDeleted(n)
	}
}

// deleteRange marks [clock, clock+length) of client deleted. Ranges beyond
// the known state are ignored.
func (s *store) deleteRange(client, clock, length uint64) {
	end := clock + length
	if st := s.state(client); end > st || end < clock {
		end = st
	}
	if clock >= end {
		return
	}
	i := s.find(ID{Client: client, Clock: clock})
	if i < 0 {
		return
	}
	if it, ok := s.clients[client][i].(*item); ok && !it.deleted && it.ID.Clock < clock {
		s.split(it, clock-it.ID.Clock)
		i++
	}
	for ; i < len(s.clients[client]); i++ {
		st := s.clients[client][i]
		if st.id().Clock >= end {
			break
		}
		it, ok := st.(*item)
		if !ok || it.deleted {
			continue
		}
		if end < it.ID.Clock+it.len() {
			s.split(it, end-it.ID.Clock)
		}
		s.markDeleted(it)
	}
}
