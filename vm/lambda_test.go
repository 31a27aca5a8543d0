package vm

import "testing"

// ---------------------------------------------------------------------------
// Lambda terms compiled to combinators by bracket abstraction
// ---------------------------------------------------------------------------

// expr is a lambda-calculus expression over primitive leaves. A leaf is
// either a variable (name set) or a closed term.
type expr struct {
	name string
	term Term
	f, x *expr
}

func v(name string) *expr { return &expr{name: name} }

func c(t Term) *expr { return &expr{term: t} }

func ap(f *expr, args ...*expr) *expr {
	for _, a := range args {
		f = &expr{f: f, x: a}
	}
	return f
}

func (e *expr) has(name string) bool {
	if e.f != nil {
		return e.f.has(name) || e.x.has(name)
	}
	return e.name == name
}

// lam abstracts name out of body. Only saturated B, C, S and K forms are
// produced, written directly in the primitives:
//
//	I     = 1
//	K     = const
//	B m n = rotate m (rotate n wrap)
//	C m n = rotate n m
//	S m n = rotate const (plus m (rotate const (rotate n wrap)))
func lam(name string, body *expr) *expr {
	switch {
	case !body.has(name):
		return ap(c(Const), body)
	case body.f == nil:
		return c(One)
	case !body.f.has(name):
		return combB(body.f, lam(name, body.x))
	case !body.x.has(name):
		return combC(lam(name, body.f), body.x)
	}
	return combS(lam(name, body.f), lam(name, body.x))
}

func combB(m, n *expr) *expr {
	return ap(c(Rotate), m, ap(c(Rotate), n, c(Wrap)))
}

func combC(m, n *expr) *expr {
	return ap(c(Rotate), n, m)
}

func combS(m, n *expr) *expr {
	return ap(c(Rotate), c(Const), ap(c(Plus), m, ap(c(Rotate), c(Const), ap(c(Rotate), n, c(Wrap)))))
}

// build turns a closed expression into a term with Apply.
func build(h *Heap, e *expr) Term {
	if e.f != nil {
		f := build(h, e.f)
		return h.Apply(f, build(h, e.x))
	}
	if e.name != "" {
		panic("free variable " + e.name)
	}
	return e.term
}

// cons is the list cell λs. s head tail at the expression level.
func cons(head, tail *expr) *expr {
	return ap(c(Rotate), tail, ap(c(Rotate), head, c(One)))
}

// fix is the Y combinator applied to g.
func fix(g *expr) *expr {
	half := lam("x", ap(v("g"), ap(v("x"), v("x"))))
	y := lam("g", ap(half, half))
	return ap(y, g)
}

// echoProgram copies its input to its output:
//
//	echo = cons const (cons 0 (λx. cons x echo))
func echoProgram() *expr {
	return fix(lam("echo", cons(c(Const), cons(c(Zero), lam("x", cons(v("x"), v("echo")))))))
}

// ---------------------------------------------------------------------------
// Combinator tests
// ---------------------------------------------------------------------------

func TestBracketCombinators(t *testing.T) {
	plus := func(n uint32) *expr { return ap(c(Plus), c(Number(n))) }
	tests := []struct {
		name string
		e    *expr
		want Verdict
	}{
		{"I", ap(lam("x", v("x")), c(Number(12))), Byte(12)},
		{"K", ap(lam("x", lam("y", v("x"))), c(Number(3)), c(Number(4))), Byte(3)},
		{"B", ap(combB(plus(2), plus(3)), c(One)), Byte(6)},
		{"C", ap(combC(c(Minus), c(Number(2))), c(Number(7))), Byte(5)},
		{"S", ap(combS(c(Plus), plus(1)), c(Number(3))), Byte(7)},
		{"flip", ap(lam("a", lam("b", ap(c(Minus), v("b"), v("a")))), c(Number(2)), c(Number(9))), Byte(7)},
		{"twice", ap(lam("f", lam("x", ap(v("f"), ap(v("f"), v("x"))))), plus(10), c(Number(1))), Byte(21)},
	}
	for _, tt := range tests {
		h := NewHeap()
		if got := h.Decode(build(h, tt.e)); got != tt.want {
			t.Errorf("%s: Decode() = %v, want %v", tt.name, got, tt.want)
		}
		if h.Live() != 0 {
			t.Errorf("%s: Live() = %d, want 0", tt.name, h.Live())
		}
	}
}
