package vm

import "testing"

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func TestStackOrder(t *testing.T) {
	var s Stack
	s.Push(Number(1))
	s.Push(Number(2))
	if s.Len() != 2 || s.Peek() != Number(2) {
		t.Fatalf("Len() = %d, Peek() = %v, want 2, 2", s.Len(), s.Peek())
	}
	if got := s.Pop(); got != Number(2) {
		t.Errorf("Pop() = %v, want 2", got)
	}
	if got := s.Pop(); got != Number(1) {
		t.Errorf("Pop() = %v, want 1", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStackReleaseAll(t *testing.T) {
	h := NewHeap()
	var s Stack
	s.Push(h.Bind(bigLeaf(1), Plus))
	s.Push(Const)
	s.releaseAll(h)
	if s.Len() != 0 || h.Live() != 0 {
		t.Errorf("after releaseAll: Len() = %d, Live() = %d, want 0, 0", s.Len(), h.Live())
	}
}

// ---------------------------------------------------------------------------
// Pure
// ---------------------------------------------------------------------------

func TestPureResultReappliesInOrder(t *testing.T) {
	h := NewHeap()
	var s Stack
	s.Push(bigLeaf(2)) // second argument
	s.Push(bigLeaf(1)) // first argument
	got := Pure{}.Result(h, Wrap, &s)
	want := h.Bind(h.Bind(Wrap, bigLeaf(1)), bigLeaf(2))
	if !h.Equal(got, want) {
		t.Errorf("Result() = %v, want wrap 1 2", got)
	}
	h.Release(got)
	h.Release(want)
	if h.Live() != 0 {
		t.Errorf("Live() = %d, want 0", h.Live())
	}
}

// ---------------------------------------------------------------------------
// Decoder
// ---------------------------------------------------------------------------

func TestDecoderSeed(t *testing.T) {
	var s Stack
	d := &Decoder{}
	d.Seed(&s)
	if s.Len() != 2 || s.Peek() != MarkInc {
		t.Fatalf("Seed: Len() = %d, Peek() = %v, want 2, mark-inc", s.Len(), s.Peek())
	}
}

func TestDecoderCount(t *testing.T) {
	h := NewHeap()
	var s Stack
	d := &Decoder{}
	d.Seed(&s)

	// Two arguments pending: counting must stop.
	if _, ok := d.Count(h, 1, &s); ok {
		t.Fatal("Count with two pending arguments continued")
	}
	if s.Len() != 2 {
		t.Fatalf("Count touched the stack: Len() = %d", s.Len())
	}

	s.Pop() // mark-inc consumed by the head
	next, ok := d.Count(h, 7, &s)
	if !ok || next != MarkInit {
		t.Fatalf("Count() = %v, %v, want mark-init, true", next, ok)
	}
	if got := d.Result(h, next, &s); got != Byte(7) {
		t.Errorf("Result() = %v, want byte(7)", got)
	}
}

func TestDecoderResult(t *testing.T) {
	tests := []struct {
		name     string
		counts   []uint32
		head     Term
		leftover bool
		want     Verdict
	}{
		{"end", nil, MarkInc, false, End},
		{"zero", nil, MarkInit, false, Byte(0)},
		{"accumulated", []uint32{200, 55}, MarkInit, false, Byte(255)},
		{"over a byte", []uint32{200, 56}, MarkInit, false, Malformed},
		{"large count", []uint32{1 << 20}, MarkInit, false, Malformed},
		{"counted end", []uint32{3}, MarkInc, false, Malformed},
		{"other head", nil, Plus, false, Malformed},
		{"leftover", nil, MarkInit, true, Malformed},
	}
	for _, tt := range tests {
		h := NewHeap()
		var s Stack
		d := &Decoder{}
		d.Seed(&s)
		s.Pop()
		for _, n := range tt.counts {
			next, ok := d.Count(h, n, &s)
			if !ok {
				t.Fatalf("%s: Count(%d) stopped", tt.name, n)
			}
			s.Push(next)
		}
		s.Pop()
		if tt.leftover {
			s.Push(h.Bind(bigLeaf(0), Const))
		}
		if got := d.Result(h, tt.head, &s); got != tt.want {
			t.Errorf("%s: Result() = %v, want %v", tt.name, got, tt.want)
		}
		if h.Live() != 0 {
			t.Errorf("%s: Live() = %d, want 0", tt.name, h.Live())
		}
	}
}
