package vm

import "fmt"

// ---------------------------------------------------------------------------
// Heap: reference-counted arena for applications that do not fit inline
// ---------------------------------------------------------------------------

// node is one heap-resident application.
type node struct {
	fn   Term
	arg  Term
	refs uint32 // owning references; 0 means the slot is free
	gen  uint32 // bumped on every free so stale handles are detected
}

// HeapStats reports arena activity.
type HeapStats struct {
	Live      int    // nodes currently allocated
	Peak      int    // highest Live observed
	Allocated uint64 // total allocations
	Freed     uint64 // total frees
	Steps     uint64 // reduction steps taken by Eval
}

// Heap owns every heap-resident term. Terms are only meaningful together
// with the Heap that produced them.
//
// Ownership protocol: a Term value held by a caller is one owning reference.
// Functions that "consume" a term take that reference over; Dup creates an
// additional reference before a term is shared, Release gives one up.
// Inline terms carry no references, so all of these are no-ops for them.
//
// A Heap is not safe for concurrent use.
type Heap struct {
	nodes []node
	free  []uint32
	work  []Term // release work-list, reused between calls
	stats HeapStats
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{
		// Index 0 is never handed out so a zero handle is always invalid.
		nodes: make([]node, 1, 64),
	}
}

// Stats returns a snapshot of arena activity.
func (h *Heap) Stats() HeapStats {
	return h.stats
}

// Live returns the number of allocated heap nodes.
func (h *Heap) Live() int {
	return h.stats.Live
}

// Bind constructs the application of fn to arg without consulting the
// shortcut table. It consumes both operands and returns one owning
// reference. The narrowest inline layout is used when both operands fit,
// otherwise a heap node is allocated with a reference count of one.
func (h *Heap) Bind(fn, arg Term) Term {
	if t, ok := pack(fn, arg); ok {
		return t
	}
	return h.alloc(fn, arg)
}

func (h *Heap) alloc(fn, arg Term) Term {
	var index uint32
	if n := len(h.free); n > 0 {
		index = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		if uint64(len(h.nodes)) > handleIndexMask {
			panic("vm: heap exhausted")
		}
		index = uint32(len(h.nodes))
		h.nodes = append(h.nodes, node{gen: 1})
	}
	nd := &h.nodes[index]
	nd.fn = fn
	nd.arg = arg
	nd.refs = 1

	h.stats.Allocated++
	h.stats.Live++
	if h.stats.Live > h.stats.Peak {
		h.stats.Peak = h.stats.Live
	}
	return heapHandle(index, nd.gen)
}

// node resolves a heap handle, panicking on stale or foreign handles.
func (h *Heap) node(t Term) *node {
	index, gen := t.handle()
	if index == 0 || int(index) >= len(h.nodes) {
		panic(fmt.Sprintf("vm: term handle %d out of range", index))
	}
	nd := &h.nodes[index]
	if nd.gen != gen || nd.refs == 0 {
		panic(fmt.Sprintf("vm: stale term handle %d (generation %d, live %d)", index, gen, nd.gen))
	}
	return nd
}

// freeNode returns a slot to the free list and invalidates its handles.
func (h *Heap) freeNode(t Term) {
	index, _ := t.handle()
	nd := &h.nodes[index]
	nd.fn, nd.arg, nd.refs = 0, 0, 0
	nd.gen = (nd.gen + 1) & handleGenMask
	if nd.gen == 0 {
		nd.gen = 1
	}
	h.free = append(h.free, index)
	h.stats.Freed++
	h.stats.Live--
}

// Refs returns the reference count of a heap term, or 0 for inline terms.
func (h *Heap) Refs(t Term) uint32 {
	if !t.IsHeap() {
		return 0
	}
	return h.node(t).refs
}

// Dup acquires an additional reference to t and returns it.
func (h *Heap) Dup(t Term) Term {
	if t.IsHeap() {
		nd := h.node(t)
		if nd.refs == ^uint32(0) {
			panic("vm: reference count overflow")
		}
		nd.refs++
	}
	return t
}

// Release gives up one reference to t. When the last reference to a node
// goes away its children are released too, using an explicit work-list so
// arbitrarily deep structures never grow the call stack.
func (h *Heap) Release(t Term) {
	if !t.IsHeap() {
		return
	}
	work := append(h.work[:0], t)
	for len(work) > 0 {
		t := work[len(work)-1]
		work = work[:len(work)-1]
		if !t.IsHeap() {
			continue
		}
		nd := h.node(t)
		nd.refs--
		if nd.refs > 0 {
			continue
		}
		work = append(work, nd.fn, nd.arg)
		h.freeNode(t)
	}
	h.work = work[:0]
}

// Ignore releases drop and returns keep unchanged. It implements the
// discarding side of constant-style rules without leaking drop.
func (h *Heap) Ignore(keep, drop Term) Term {
	h.Release(drop)
	return keep
}

// Split decomposes an application into its function and argument without
// touching reference counts: the results are borrowed from t and only stay
// valid while t does.
func (h *Heap) Split(t Term) (fn, arg Term, ok bool) {
	if t.IsHeap() {
		nd := h.node(t)
		return nd.fn, nd.arg, true
	}
	return t.inlineSplit()
}

// Unbind consumes an application and returns owning references to its
// function and argument. A node whose last reference is being consumed is
// freed and its children are moved out without reference-count traffic.
func (h *Heap) Unbind(t Term) (fn, arg Term, ok bool) {
	if !t.IsHeap() {
		return t.inlineSplit()
	}
	nd := h.node(t)
	fn, arg = nd.fn, nd.arg
	if nd.refs == 1 {
		h.freeNode(t)
		return fn, arg, true
	}
	nd.refs--
	return h.Dup(fn), h.Dup(arg), true
}

// Shape is the logical view of a term used for pattern dispatch. Fn and Arg
// are borrowed.
type Shape struct {
	Kind   Kind
	Prim   Prim
	Number uint32
	Fn     Term
	Arg    Term
}

// Shape decomposes t into its logical shape, independent of encoding.
func (h *Heap) Shape(t Term) Shape {
	switch t.Kind() {
	case KindPrimitive:
		p, _ := t.Prim()
		return Shape{Kind: KindPrimitive, Prim: p}
	case KindNumber:
		n, _ := t.Number()
		return Shape{Kind: KindNumber, Number: n}
	case KindApp:
		fn, arg, _ := h.Split(t)
		return Shape{Kind: KindApp, Fn: fn, Arg: arg}
	}
	return Shape{}
}

// Equal reports whether a and b denote the same term, regardless of how
// either is encoded.
func (h *Heap) Equal(a, b Term) bool {
	type pair struct{ a, b Term }
	work := []pair{{a, b}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		if p.a == p.b {
			continue
		}
		sa, sb := h.Shape(p.a), h.Shape(p.b)
		if sa.Kind != sb.Kind || sa.Kind != KindApp {
			// Distinct words of the same leaf kind are distinct values.
			return false
		}
		work = append(work, pair{sa.Fn, sb.Fn}, pair{sa.Arg, sb.Arg})
	}
	return true
}
