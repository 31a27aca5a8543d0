package vm

import "math/bits"

// ---------------------------------------------------------------------------
// Algebraic shortcuts applied at construction time
// ---------------------------------------------------------------------------

// Apply builds the application of f to x, consuming both. Before falling
// back to Bind it checks a fixed table of patterns whose result is already
// known, so common redexes collapse without running the engine. Every
// shortcut yields what Eval would eventually compute for the same term;
// correctness never depends on a shortcut firing.
func (h *Heap) Apply(f, x Term) Term {
	switch f {
	case Plus:
		if x == Const {
			// plus const n g y = const g (n g y) = g
			return constConst
		}
	case Pred:
		if x == Pred {
			return constZero
		}
		if n, ok := x.Number(); ok {
			return Number(satSub(n, 1))
		}
	case Zero:
		return h.Ignore(One, x)
	case One:
		return x
	case minusPlus:
		if x == plusMinus || x == One {
			return Rotate
		}
	case minusMinus:
		if x == Minus {
			return Zero
		}
	case rotateConst:
		if x == Rotate {
			return Zero
		}
	case rotateZero:
		if x == Rotate {
			return Const
		}
	default:
		if t, ok := h.applyNumeric(f, x); ok {
			return t
		}
	}
	return h.Bind(f, x)
}

// applyNumeric covers the arithmetic rows of the shortcut table. It only
// consumes f and x when it reports success.
func (h *Heap) applyNumeric(f, x Term) (Term, bool) {
	if m, ok := f.Number(); ok {
		// Church exponentiation: m n = n^m
		if n, ok := x.Number(); ok {
			if v, ok := checkedPow(n, m); ok {
				return Number(v), true
			}
			return 0, false
		}
		if t, ok := h.scaledPlus(m, x); ok {
			h.Release(x)
			return t, true
		}
		return 0, false
	}

	g, u, ok := h.Split(f)
	if !ok {
		return 0, false
	}
	switch g {
	case Plus:
		m, mok := u.Number()
		n, nok := x.Number()
		if mok && nok {
			if v, ok := checkedAdd(m, n); ok {
				h.Release(f)
				return Number(v), true
			}
		}
	case Minus:
		m, mok := u.Number()
		n, nok := x.Number()
		if mok && nok {
			h.Release(f)
			return Number(satSub(m, n)), true
		}
	case Const:
		u = h.Dup(u)
		h.Release(f)
		return h.Ignore(u, x), true
	}
	return 0, false
}

// scaledPlus recognises m (n plus), the m-fold composition of n plus, which
// is (m*n) plus. The result is built with Apply so the 0 and 1 rows apply.
// x is borrowed.
func (h *Heap) scaledPlus(m uint32, x Term) (Term, bool) {
	u, g, ok := h.Split(x)
	if !ok || g != Plus {
		return 0, false
	}
	n, ok := u.Number()
	if !ok {
		return 0, false
	}
	v, ok := checkedMul(m, n)
	if !ok {
		return 0, false
	}
	return h.Apply(Number(v), Plus), true
}

// ---------------------------------------------------------------------------
// 32-bit arithmetic
// ---------------------------------------------------------------------------

// Addition, multiplication and exponentiation report overflow so the caller
// can defer to the symbolic rule. Subtraction saturates at zero.

func checkedAdd(a, b uint32) (uint32, bool) {
	sum, carry := bits.Add32(a, b, 0)
	return sum, carry == 0
}

func checkedMul(a, b uint32) (uint32, bool) {
	hi, lo := bits.Mul32(a, b)
	return lo, hi == 0
}

// checkedPow returns base^exp.
func checkedPow(base, exp uint32) (uint32, bool) {
	result := uint32(1)
	for exp > 0 {
		if exp&1 == 1 {
			var ok bool
			if result, ok = checkedMul(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			var ok bool
			if base, ok = checkedMul(base, base); !ok {
				// The remaining exponent bits still need this square.
				return 0, false
			}
		}
	}
	return result, true
}

func satSub(a, b uint32) uint32 {
	if b >= a {
		return 0
	}
	return a - b
}
