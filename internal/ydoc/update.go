package ydoc

import (
	"sort"

	"github.com/pkg/errors"
)

// Item info bits.
const (
	infoOrigin      = 0x80
	infoRightOrigin = 0x40
	infoParentSub   = 0x20
	infoRefMask     = 0x1f
)

// Doc is a document state rebuilt from a single update.
type Doc struct {
	share   map[string]*Type
	store   *store
	pending int
}

func newDoc() *Doc {
	d := &Doc{share: make(map[string]*Type)}
	d.store = newStore(d)
	return d
}

func (d *Doc) root(name string) *Type {
	t := d.share[name]
	if t == nil {
		t = newType(KindUnknown)
		t.name = name
		d.share[name] = t
	}
	return t
}

// Get returns the root type registered under name, or nil.
func (d *Doc) Get(name string) *Type {
	return d.share[name]
}

// Names returns the root type names in sorted order.
func (d *Doc) Names() []string {
	names := make([]string, 0, len(d.share))
	for n := range d.share {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Pending is the number of structs that could not be integrated because
// something they depend on is missing from the update.
func (d *Doc) Pending() int { return d.pending }

// Decode rebuilds a document from a v1 update. Bytes after the delete set are
// ignored.
func Decode(update []byte) (*Doc, error) {
	if len(update) == 0 {
		return nil, errors.WithStack(&Error{Where: "update", Err: ErrEmpty})
	}
	r := newReader(update)
	refs, err := readStructs(r)
	if err != nil {
		return nil, err
	}
	ds, err := readDeleteSet(r)
	if err != nil {
		return nil, err
	}

	d := newDoc()
	d.integrateAll(refs)
	for _, dr := range ds {
		d.store.deleteRange(dr.client, dr.clock, dr.length)
	}
	return d, nil
}

func readID(r *reader) (*ID, error) {
	client, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	clock, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	return &ID{Client: client, Clock: clock}, nil
}

func advance(r *reader, clock, n uint64) (uint64, error) {
	if clock+n < clock {
		return 0, r.fail("clock", ErrOverflow)
	}
	return clock + n, nil
}

func readStructs(r *reader) (map[uint64][]structRef, error) {
	numClients, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if numClients > uint64(r.remaining()) {
		return nil, r.fail("client count", ErrTruncated)
	}
	refs := make(map[uint64][]structRef, numClients)
	for i := uint64(0); i < numClients; i++ {
		numStructs, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if numStructs > uint64(r.remaining()) {
			return nil, r.fail("struct count", ErrTruncated)
		}
		client, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		clock, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		list := refs[client]
		for j := uint64(0); j < numStructs; j++ {
			info, err := r.readUint8()
			if err != nil {
				return nil, err
			}
			switch info & infoRefMask {
			case refGC:
				n, err := r.readVarUint()
				if err != nil {
					return nil, err
				}
				list = append(list, &gc{ID: ID{Client: client, Clock: clock}, n: n})
				if clock, err = advance(r, clock, n); err != nil {
					return nil, err
				}
			case refSkip:
				n, err := r.readVarUint()
				if err != nil {
					return nil, err
				}
				if clock, err = advance(r, clock, n); err != nil {
					return nil, err
				}
			default:
				it, err := readItem(r, info, ID{Client: client, Clock: clock})
				if err != nil {
					return nil, err
				}
				list = append(list, it)
				if clock, err = advance(r, clock, it.len()); err != nil {
					return nil, err
				}
			}
		}
		refs[client] = list
	}
	for c, list := range refs {
		sort.SliceStable(list, func(i, j int) bool { return list[i].id().Clock < list[j].id().Clock })
		refs[c] = list
	}
	return refs, nil
}

func readItem(r *reader, info byte, id ID) (*item, error) {
	it := &item{ID: id}
	var err error
	if info&infoOrigin != 0 {
		if it.origin, err = readID(r); err != nil {
			return nil, err
		}
	}
	if info&infoRightOrigin != 0 {
		if it.rightOrigin, err = readID(r); err != nil {
			return nil, err
		}
	}
	if info&(infoOrigin|infoRightOrigin) == 0 {
		isKey, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if isKey == 1 {
			if it.parentName, err = r.readVarString(); err != nil {
				return nil, err
			}
			it.hasParentName = true
		} else if it.parentID, err = readID(r); err != nil {
			return nil, err
		}
		if info&infoParentSub != 0 {
			if it.parentSub, err = r.readVarString(); err != nil {
				return nil, err
			}
			it.hasSub = true
		}
	}
	if it.content, err = readContent(r, info&infoRefMask); err != nil {
		return nil, err
	}
	return it, nil
}

type deleteRange struct {
	client, clock, length uint64
}

func readDeleteSet(r *reader) ([]deleteRange, error) {
	numClients, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if numClients > uint64(r.remaining()) {
		return nil, r.fail("delete set", ErrTruncated)
	}
	var out []deleteRange
	for i := uint64(0); i < numClients; i++ {
		client, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		n, err := r.readVarUint()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.remaining()) {
			return nil, r.fail("delete set", ErrTruncated)
		}
		for j := uint64(0); j < n; j++ {
			clock, err := r.readVarUint()
			if err != nil {
				return nil, err
			}
			length, err := r.readVarUint()
			if err != nil {
				return nil, err
			}
			out = append(out, deleteRange{client: client, clock: clock, length: length})
		}
	}
	return out, nil
}

// integrateAll integrates structs client by client in descending client
// order, repeating until no queue makes progress. Structs whose dependencies
// never arrive stay pending.
func (d *Doc) integrateAll(refs map[uint64][]structRef) {
	clients := make([]uint64, 0, len(refs))
	for c := range refs {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] > clients[j] })

	s := d.store
	for progress := true; progress; {
		progress = false
		for _, c := range clients {
			q := refs[c]
		queue:
			for len(q) > 0 {
				st := q[0]
				local := s.state(c)
				start := st.id().Clock
				if start > local {
					break
				}
				if start+st.len() <= local {
					q = q[1:]
					continue
				}
				offset := local - start
				switch v := st.(type) {
				case *gc:
					s.integrateGC(v, offset)
				case *item:
					if !s.ready(v) {
						break queue
					}
					s.integrate(v, offset)
				}
				q = q[1:]
				progress = true
			}
			refs[c] = q
		}
	}
	for _, q := range refs {
		d.pending += len(q)
	}
}
