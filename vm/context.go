package vm

import "fmt"

// ---------------------------------------------------------------------------
// Stack: pending arguments of the term being reduced
// ---------------------------------------------------------------------------

// Stack holds the arguments accumulated while walking a term's spine. The
// top of the stack is the argument applied first. Every entry is an owning
// reference.
type Stack struct {
	items []Term
}

// Len returns the number of pending arguments.
func (s *Stack) Len() int {
	return len(s.items)
}

// Push adds an argument on top of the stack.
func (s *Stack) Push(t Term) {
	s.items = append(s.items, t)
}

// Pop removes and returns the top argument. The caller must check Len.
func (s *Stack) Pop() Term {
	n := len(s.items) - 1
	t := s.items[n]
	s.items = s.items[:n]
	return t
}

// Peek returns the top argument without removing it.
func (s *Stack) Peek() Term {
	return s.items[len(s.items)-1]
}

// releaseAll gives up every pending argument.
func (s *Stack) releaseAll(h *Heap) {
	for _, t := range s.items {
		h.Release(t)
	}
	s.items = s.items[:0]
}

// ---------------------------------------------------------------------------
// Context: what the engine does at the edges of reduction
// ---------------------------------------------------------------------------

// Context selects the policy Eval runs under. Seed prepares the stack before
// reduction starts. Count is called instead of a structural reduction when
// the head is the mark-inc primitive (n = 1) or a numeral n is about to be
// applied to it; it returns the next head, or false to stop. Result turns
// the irreducible head and the leftover stack into the context's answer and
// takes ownership of both.
type Context[R any] interface {
	Seed(s *Stack)
	Count(h *Heap, n uint32, s *Stack) (Term, bool)
	Result(h *Heap, head Term, s *Stack) R
}

// Pure reduces a term to head normal form and hands back one explicit term.
type Pure struct{}

// Seed leaves the stack empty.
func (Pure) Seed(*Stack) {}

// Count never fires for terms built from source: only the decoder seeds
// markers. A marker head is simply left in place.
func (Pure) Count(*Heap, uint32, *Stack) (Term, bool) {
	return 0, false
}

// Result re-applies every unconsumed argument, first argument first, so a
// stuck partial application is preserved rather than lost.
func (Pure) Result(h *Heap, head Term, s *Stack) Term {
	for s.Len() > 0 {
		head = h.Apply(head, s.Pop())
	}
	return head
}

// VerdictKind classifies a decoded value.
type VerdictKind uint8

const (
	VerdictMalformed VerdictKind = iota
	VerdictEnd
	VerdictByte
)

// Verdict is what the Decoder makes of a term.
type Verdict struct {
	Kind VerdictKind
	Byte byte
}

// Verdict constructors
var (
	Malformed = Verdict{Kind: VerdictMalformed}
	End       = Verdict{Kind: VerdictEnd}
)

// Byte returns the verdict for a data byte.
func Byte(b byte) Verdict {
	return Verdict{Kind: VerdictByte, Byte: b}
}

func (v Verdict) String() string {
	switch v.Kind {
	case VerdictEnd:
		return "end"
	case VerdictByte:
		return fmt.Sprintf("byte(%d)", v.Byte)
	}
	return "malformed"
}

// Decoder probes a term by applying it to mark-inc and mark-init. A Church
// numeral n counts n through mark-inc and lands on mark-init, giving
// byte(n); const selects mark-inc itself with nothing counted, giving end.
type Decoder struct {
	acc   uint32
	valid bool
}

// Seed pushes mark-init and then mark-inc, so mark-inc is the first
// argument.
func (d *Decoder) Seed(s *Stack) {
	d.acc, d.valid = 0, true
	s.Push(MarkInit)
	s.Push(MarkInc)
}

// Count adds n to the accumulator and continues with the one remaining
// argument, so a numeral that is not yet a literal may count in several
// steps. Anything other than exactly one remaining argument stops
// reduction; the result is then malformed. A total above 255 is malformed.
func (d *Decoder) Count(h *Heap, n uint32, s *Stack) (Term, bool) {
	if s.Len() != 1 {
		return 0, false
	}
	if n > 0xff || d.acc+n > 0xff {
		d.valid = false
	} else {
		d.acc += n
	}
	return s.Pop(), true
}

// Result classifies the head left after reduction.
func (d *Decoder) Result(h *Heap, head Term, s *Stack) Verdict {
	leftover := s.Len()
	s.releaseAll(h)
	h.Release(head)
	if leftover != 0 || !d.valid {
		return Malformed
	}
	switch head {
	case MarkInc:
		if d.acc == 0 {
			return End
		}
	case MarkInit:
		return Byte(byte(d.acc))
	}
	return Malformed
}
