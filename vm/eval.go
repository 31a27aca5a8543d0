package vm

import "sync"

// ---------------------------------------------------------------------------
// Eval: iterative graph-reduction trampoline
// ---------------------------------------------------------------------------

var stackPool = sync.Pool{New: func() any { return &Stack{items: make([]Term, 0, 32)} }}

// Eval reduces t under ctx and returns the context's result. It consumes t.
//
// The loop walks the left spine of the head, pushing arguments on an
// explicit stack, and fires a primitive's rule whenever enough arguments are
// pending. Reduction depth is bounded by memory, never by the Go call stack.
func Eval[R any, C Context[R]](h *Heap, t Term, ctx C) R {
	s := stackPool.Get().(*Stack)
	ctx.Seed(s)
	for {
		next, ok := reduce[R](h, t, s, ctx)
		if !ok {
			break
		}
		h.stats.Steps++
		t = next
	}
	r := ctx.Result(h, t, s)
	s.items = s.items[:0]
	stackPool.Put(s)
	return r
}

// Normalize reduces t to head normal form, re-applying any arguments the
// head could not consume. It consumes t.
func (h *Heap) Normalize(t Term) Term {
	return Eval[Term](h, t, Pure{})
}

// Decode classifies t as end, a data byte, or malformed. It consumes t.
func (h *Heap) Decode(t Term) Verdict {
	return Eval[Verdict](h, t, &Decoder{})
}

// reduce performs one step on head t. When it reports false, neither t nor
// the stack has been touched.
func reduce[R any, C Context[R]](h *Heap, t Term, s *Stack, ctx C) (Term, bool) {
	switch t {
	case Plus:
		return h.evalPlus(s)
	case Minus:
		return h.evalMinus(s)
	case Pred:
		return h.evalPred(s)
	case Wrap:
		return h.evalWrap(s)
	case Const:
		return h.evalConst(s)
	case Rotate:
		return h.evalRotate(s)
	case Zero:
		return h.evalZero(s)
	case One:
		return h.evalOne(s)
	case MarkInc:
		return ctx.Count(h, 1, s)
	case MarkInit:
		return 0, false
	}

	if i, ok := t.Number(); ok {
		if s.Len() < 2 {
			return 0, false
		}
		f := s.Pop()
		if f == MarkInc {
			next, ok := ctx.Count(h, i, s)
			if !ok {
				s.Push(f)
			}
			return next, ok
		}
		return h.evalNumber(i, f, s)
	}

	fn, arg, ok := h.Unbind(t)
	if !ok {
		return 0, false
	}
	s.Push(arg)
	return fn, true
}

// ---------------------------------------------------------------------------
// General rules, arguments in application order
// ---------------------------------------------------------------------------

// plus m n f x = m f (n f x); numerals add directly when the sum fits.
func (h *Heap) evalPlus(s *Stack) (Term, bool) {
	if s.Len() < 4 {
		return 0, false
	}
	m := s.Pop()
	n := s.Pop()
	if a, ok := m.Number(); ok {
		if b, ok := n.Number(); ok {
			if v, ok := checkedAdd(a, b); ok {
				return Number(v), true
			}
		}
	}
	f := s.Pop()
	x := s.Pop()
	if m == Const {
		h.Release(n)
		h.Release(x)
		return f, true
	}
	s.Push(h.Apply(h.Apply(n, h.Dup(f)), x))
	s.Push(f)
	return m, true
}

// minus m n = n pred m, with saturating numerals and the fixed points that
// would otherwise unfold forever.
func (h *Heap) evalMinus(s *Stack) (Term, bool) {
	if s.Len() < 2 {
		return 0, false
	}
	m := s.Pop()
	n := s.Pop()
	switch m {
	case Plus:
		if n == plusMinus || n == One {
			return Rotate, true
		}
	case Minus:
		if n == Minus {
			return Zero, true
		}
	default:
		if a, ok := m.Number(); ok {
			if b, ok := n.Number(); ok {
				return Number(satSub(a, b)), true
			}
		}
	}
	s.Push(m)
	s.Push(Pred)
	return n, true
}

// pred m f x = m (wrap f) (const x) 1, the pairing construction of the
// Church predecessor; numerals step down directly, saturating at zero.
func (h *Heap) evalPred(s *Stack) (Term, bool) {
	if s.Len() < 3 {
		return 0, false
	}
	m := s.Pop()
	if a, ok := m.Number(); ok {
		return Number(satSub(a, 1)), true
	}
	f := s.Pop()
	x := s.Pop()
	if m == Pred {
		h.Release(f)
		h.Release(x)
		return One, true
	}
	s.Push(One)
	s.Push(h.Apply(Const, x))
	s.Push(h.Apply(Wrap, f))
	return m, true
}

// wrap f g k = k (g f)
func (h *Heap) evalWrap(s *Stack) (Term, bool) {
	if s.Len() < 3 {
		return 0, false
	}
	f := s.Pop()
	g := s.Pop()
	k := s.Pop()
	s.Push(h.Apply(g, f))
	return k, true
}

// const x y = x
func (h *Heap) evalConst(s *Stack) (Term, bool) {
	if s.Len() < 2 {
		return 0, false
	}
	x := s.Pop()
	return h.Ignore(x, s.Pop()), true
}

// rotate x y z = y z x, except that rotate const rotate and
// rotate 0 rotate toggle to 0 and const without touching z.
func (h *Heap) evalRotate(s *Stack) (Term, bool) {
	if s.Len() < 3 {
		return 0, false
	}
	x := s.Pop()
	y := s.Pop()
	if y == Rotate {
		switch x {
		case Const:
			return Zero, true
		case Zero:
			return Const, true
		}
	}
	z := s.Pop()
	s.Push(x)
	s.Push(z)
	return y, true
}

// 0 f x = x
func (h *Heap) evalZero(s *Stack) (Term, bool) {
	if s.Len() < 2 {
		return 0, false
	}
	f := s.Pop()
	return h.Ignore(s.Pop(), f), true
}

// 1 f = f
func (h *Heap) evalOne(s *Stack) (Term, bool) {
	if s.Len() < 1 {
		return 0, false
	}
	return s.Pop(), true
}

// n f x = f ((n-1) f x) for n >= 2, with the exponent and product fast
// paths of the shortcut table. f has already been popped; at least one more
// argument is pending.
func (h *Heap) evalNumber(n uint32, f Term, s *Stack) (Term, bool) {
	if t, ok := h.scaledPlus(n, f); ok {
		h.Release(f)
		return t, true
	}
	if b, ok := f.Number(); ok {
		if v, ok := checkedPow(b, n); ok {
			return Number(v), true
		}
	}
	x := s.Pop()
	s.Push(h.Apply(h.Apply(Number(n-1), h.Dup(f)), x))
	return f, true
}
