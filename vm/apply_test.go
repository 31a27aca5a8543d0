package vm

import (
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// Shortcut table
// ---------------------------------------------------------------------------

func TestApplyShortcuts(t *testing.T) {
	h := NewHeap()
	tests := []struct {
		name string
		f, x Term
		want Term
	}{
		{"plus m n", h.Apply(Plus, Number(2)), Number(3), Number(5)},
		{"minus m n", h.Apply(Minus, Number(9)), Number(4), Number(5)},
		{"minus saturates", h.Apply(Minus, Number(3)), Number(8), Zero},
		{"pred n", Pred, Number(7), Number(6)},
		{"pred 0", Pred, Zero, Zero},
		{"pred pred", Pred, Pred, constZero},
		{"exponent", Number(2), Number(3), Number(9)},
		{"exponent of zero", Number(3), Zero, Zero},
		{"0 x", Zero, Wrap, One},
		{"1 x", One, Wrap, Wrap},
		{"const x y", h.Apply(Const, Number(4)), Rotate, Number(4)},
		{"plus const", Plus, Const, constConst},
		{"minus plus (plus minus)", minusPlus, plusMinus, Rotate},
		{"minus plus 1", minusPlus, One, Rotate},
		{"minus minus minus", minusMinus, Minus, Zero},
		{"rotate const rotate", rotateConst, Rotate, Zero},
		{"rotate 0 rotate", rotateZero, Rotate, Const},
	}
	for _, tt := range tests {
		if got := h.Apply(tt.f, tt.x); got != tt.want {
			t.Errorf("%s: Apply(%v, %v) = %v, want %v", tt.name, tt.f, tt.x, got, tt.want)
		}
	}
	if h.Live() != 0 {
		t.Errorf("Live() = %d, want 0", h.Live())
	}
}

func TestApplyProductShortcut(t *testing.T) {
	h := NewHeap()
	twoPlus := h.Apply(Number(2), Plus)
	if want := h.Bind(Number(2), Plus); twoPlus != want {
		t.Fatalf("Apply(2, plus) = %v, want plain application", twoPlus)
	}
	got := h.Apply(Number(3), twoPlus)
	if want := h.Bind(Number(6), Plus); got != want {
		t.Errorf("Apply(3, 2 plus) = %v, want %v", got, want)
	}
	if got := h.Apply(One, h.Apply(Number(7), Plus)); got != h.Bind(Number(7), Plus) {
		t.Errorf("Apply(1, 7 plus) = %v", got)
	}
}

func TestApplyOverflowFallsThrough(t *testing.T) {
	h := NewHeap()
	max := Number(math.MaxUint32)
	tests := []struct {
		name string
		f, x Term
	}{
		{"sum", h.Apply(Plus, max), One},
		{"power", Number(40), Number(2)},
		{"product", Number(1 << 20), h.Bind(Number(1<<12), Plus)},
	}
	for _, tt := range tests {
		got := h.Apply(tt.f, tt.x)
		if got.Kind() != KindApp {
			t.Errorf("%s: Apply(%v, %v) = %v, want an unreduced application", tt.name, tt.f, tt.x, got)
			continue
		}
		fn, arg, _ := h.Split(got)
		if fn != tt.f || arg != tt.x {
			t.Errorf("%s: Apply() built (%v %v), want (%v %v)", tt.name, fn, arg, tt.f, tt.x)
		}
		h.Release(got)
	}
}

func TestApplyConstReleasesDiscarded(t *testing.T) {
	h := NewHeap()
	kept := h.Bind(bigLeaf(1), Wrap)
	dropped := h.Bind(bigLeaf(2), Wrap)
	k := h.Apply(Const, kept)
	if got := h.Apply(k, dropped); got != kept {
		t.Errorf("Apply(const x, y) = %v, want %v", got, kept)
	}
	if h.Live() != 1 {
		t.Errorf("Live() = %d, want 1", h.Live())
	}
	h.Release(kept)
	if h.Live() != 0 {
		t.Errorf("Live() = %d, want 0", h.Live())
	}
}

func TestApplyZeroReleasesArgument(t *testing.T) {
	h := NewHeap()
	if got := h.Apply(Zero, h.Bind(bigLeaf(1), Plus)); got != One {
		t.Errorf("Apply(0, x) = %v, want 1", got)
	}
	if h.Live() != 0 {
		t.Errorf("Live() = %d, want 0", h.Live())
	}
}

// Every numeric shortcut must agree with what the engine computes for the
// same unsimplified application.
func TestShortcutsAgreeWithEngine(t *testing.T) {
	tests := []struct {
		name    string
		fn, arg func(h *Heap) Term
	}{
		{"plus", func(h *Heap) Term { return h.Bind(Plus, Number(20)) }, num(22)},
		{"minus", func(h *Heap) Term { return h.Bind(Minus, Number(50)) }, num(8)},
		{"minus saturating", func(h *Heap) Term { return h.Bind(Minus, Number(5)) }, num(80)},
		{"pred", func(*Heap) Term { return Pred }, num(100)},
		{"pred zero", func(*Heap) Term { return Pred }, num(0)},
		{"exponent", func(*Heap) Term { return Number(3) }, num(6)},
		{"exponent one", func(*Heap) Term { return Number(7) }, num(1)},
		{"const", func(h *Heap) Term { return h.Bind(Const, Number(33)) }, num(4)},
		{"zero", func(*Heap) Term { return Zero }, num(9)},
	}
	for _, tt := range tests {
		h := NewHeap()
		short := h.Decode(h.Apply(tt.fn(h), tt.arg(h)))
		long := h.Decode(h.Bind(tt.fn(h), tt.arg(h)))
		if short != long {
			t.Errorf("%s: shortcut decodes as %v, engine as %v", tt.name, short, long)
		}
		if h.Live() != 0 {
			t.Errorf("%s: Live() = %d, want 0", tt.name, h.Live())
		}
	}
}

func num(n uint32) func(*Heap) Term {
	return func(*Heap) Term { return Number(n) }
}

func TestCheckedArithmetic(t *testing.T) {
	if _, ok := checkedAdd(math.MaxUint32, 1); ok {
		t.Error("checkedAdd(max, 1) should overflow")
	}
	if v, ok := checkedMul(1<<16, 1<<15); !ok || v != 1<<31 {
		t.Errorf("checkedMul(2^16, 2^15) = %d, %v", v, ok)
	}
	if _, ok := checkedMul(1<<16, 1<<16); ok {
		t.Error("checkedMul(2^16, 2^16) should overflow")
	}
	tests := []struct {
		base, exp uint32
		want      uint32
		ok        bool
	}{
		{2, 31, 1 << 31, true},
		{2, 32, 0, false},
		{0, 0, 1, true},
		{0, 5, 0, true},
		{1, math.MaxUint32, 1, true},
		{3, 20, 3486784401, true},
		{3, 21, 0, false},
		{65536, 2, 0, false},
	}
	for _, tt := range tests {
		got, ok := checkedPow(tt.base, tt.exp)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("checkedPow(%d, %d) = %d, %v, want %d, %v", tt.base, tt.exp, got, ok, tt.want, tt.ok)
		}
	}
	if got := satSub(3, 5); got != 0 {
		t.Errorf("satSub(3, 5) = %d, want 0", got)
	}
}
