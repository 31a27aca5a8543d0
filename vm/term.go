package vm

import (
	"fmt"
	"math/bits"
)

// Term is a combinator-calculus term packed into one machine word.
//
// Small terms live entirely inside the word; applications whose operands do
// not fit any inline layout are stored in a Heap and the word holds a
// generation-checked handle to the node.
//
// Encoding scheme (low bits first):
//   - Primitive:   id<<1 | 1                      (4 bits)
//   - Number:      n<<4 | 0b0010                  (36 bits)
//   - Narrow pair: fn<<8  | arg<<4 | 0b0110       (slots of 4 bits)
//   - Medium pair: fn<<17 | arg<<4 | 0b1010       (slots of 13 bits)
//   - Wide pair:   fn<<34 | arg<<4 | 0b1110       (slots of 30 bits)
//   - Heap handle: gen<<34 | index<<2 | 0b00
//
// An operand fits a slot when it is not a heap handle and its own word is
// narrower than the slot. Bind always picks the narrowest layout, so every
// inline term has exactly one encoding and inline terms compare with ==.
type Term uint64

// Encoding constants
const (
	tagMask   uint64 = 0b11
	tagHeap   uint64 = 0b00
	tagInline uint64 = 0b10

	// Sub-tag of inline words (bits 2-3)
	subMask   uint64 = 0b1100
	subNumber uint64 = 0b0000
	subNarrow uint64 = 0b0100
	subMedium uint64 = 0b1000
	subWide   uint64 = 0b1100

	payloadShift = 4

	// Heap handle layout
	handleIndexShift = 2
	handleGenShift   = 34
	handleIndexMask  = 1<<32 - 1
	handleGenMask    = 1<<30 - 1
)

// width is the slot class a term needs when it becomes an operand.
type width uint8

const (
	widthNarrow width = iota // fits a 4-bit slot
	widthMedium              // fits a 13-bit slot
	widthWide                // fits a 30-bit slot
	widthHeap                // must be referenced from a heap node
)

// slotBits is the slot size of each inline pair layout.
var slotBits = [...]uint{widthNarrow: 4, widthMedium: 13, widthWide: 30}

var slotTags = [...]uint64{widthNarrow: subNarrow, widthMedium: subMedium, widthWide: subWide}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// Prim identifies one of the eight fixed combinators.
type Prim uint8

const (
	PrimPlus Prim = iota
	PrimMinus
	PrimPred
	PrimWrap
	PrimConst
	PrimRotate
	PrimMarkInc
	PrimMarkInit
)

// NumPrims is the number of primitive combinators.
const NumPrims = 8

// Term returns the primitive term for p.
func (p Prim) Term() Term {
	return Term(uint64(p)<<1 | 1)
}

// Pre-defined primitive terms
const (
	Plus     = Term(uint64(PrimPlus)<<1 | 1)
	Minus    = Term(uint64(PrimMinus)<<1 | 1)
	Pred     = Term(uint64(PrimPred)<<1 | 1)
	Wrap     = Term(uint64(PrimWrap)<<1 | 1)
	Const    = Term(uint64(PrimConst)<<1 | 1)
	Rotate   = Term(uint64(PrimRotate)<<1 | 1)
	MarkInc  = Term(uint64(PrimMarkInc)<<1 | 1)
	MarkInit = Term(uint64(PrimMarkInit)<<1 | 1)
)

// Pre-defined numerals
const (
	Zero = Term(0<<payloadShift | uint64(0b0010))
	One  = Term(1<<payloadShift | uint64(0b0010))
)

// Frequently matched applications. The shortcut layer compares against
// these with ==, which is sound because Bind packs them the same way.
var (
	plusMinus   = mustPack(Plus, Minus)
	minusPlus   = mustPack(Minus, Plus)
	minusMinus  = mustPack(Minus, Minus)
	constConst  = mustPack(Const, Const)
	constZero   = mustPack(Const, Zero)
	rotateConst = mustPack(Rotate, Const)
	rotateZero  = mustPack(Rotate, Zero)
)

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Number creates a numeral term. Every uint32 magnitude is representable
// inline.
func Number(n uint32) Term {
	return Term(uint64(n)<<payloadShift | subNumber | tagInline)
}

// pack encodes the application of fn to arg in the narrowest inline layout
// that holds both operands. It fails when either operand needs the heap.
func pack(fn, arg Term) (Term, bool) {
	w := max(fn.width(), arg.width())
	if w == widthHeap {
		return 0, false
	}
	s := slotBits[w]
	return Term(uint64(fn)<<(payloadShift+s) | uint64(arg)<<payloadShift | slotTags[w] | tagInline), true
}

func mustPack(fn, arg Term) Term {
	t, ok := pack(fn, arg)
	if !ok {
		panic(fmt.Sprintf("vm: %s applied to %s does not fit inline", fn, arg))
	}
	return t
}

func heapHandle(index, gen uint32) Term {
	return Term(uint64(gen)<<handleGenShift | uint64(index)<<handleIndexShift | tagHeap)
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Kind is the logical shape of a term.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindNumber
	KindApp
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindNumber:
		return "number"
	case KindApp:
		return "application"
	}
	return "invalid"
}

// IsValid returns false for the zero Term, which never denotes a value.
func (t Term) IsValid() bool {
	return t != 0
}

// IsHeap returns true if t is a handle to a heap node.
func (t Term) IsHeap() bool {
	return t != 0 && uint64(t)&tagMask == tagHeap
}

// IsPrimitive returns true if t is one of the eight combinators.
func (t Term) IsPrimitive() bool {
	return uint64(t)&1 == 1
}

// IsNumber returns true if t is a numeral.
func (t Term) IsNumber() bool {
	return uint64(t)&(tagMask|subMask) == subNumber|tagInline
}

// Kind returns the logical shape of t. Heap handles are applications.
func (t Term) Kind() Kind {
	switch {
	case t == 0:
		return KindInvalid
	case t.IsPrimitive():
		return KindPrimitive
	case t.IsNumber():
		return KindNumber
	}
	return KindApp
}

// Prim returns the combinator encoded in t.
func (t Term) Prim() (Prim, bool) {
	if !t.IsPrimitive() {
		return 0, false
	}
	return Prim(uint64(t) >> 1 & 0b111), true
}

// Number returns the magnitude of a numeral.
func (t Term) Number() (uint32, bool) {
	if !t.IsNumber() {
		return 0, false
	}
	return uint32(uint64(t) >> payloadShift), true
}

// inlineSplit decomposes an inline application word.
func (t Term) inlineSplit() (fn, arg Term, ok bool) {
	if uint64(t)&tagMask != tagInline {
		return 0, 0, false
	}
	var w width
	switch uint64(t) & subMask {
	case subNarrow:
		w = widthNarrow
	case subMedium:
		w = widthMedium
	case subWide:
		w = widthWide
	default:
		return 0, 0, false
	}
	s := slotBits[w]
	fn = Term(uint64(t) >> (payloadShift + s))
	arg = Term(uint64(t) >> payloadShift & (1<<s - 1))
	return fn, arg, true
}

// width returns the narrowest slot class t fits in.
func (t Term) width() width {
	if t.IsHeap() {
		return widthHeap
	}
	n := uint(bits.Len64(uint64(t)))
	for w := widthNarrow; w < widthHeap; w++ {
		if n <= slotBits[w] {
			return w
		}
	}
	return widthHeap
}

// handle returns the arena index and generation of a heap term.
func (t Term) handle() (index, gen uint32) {
	return uint32(uint64(t) >> handleIndexShift & handleIndexMask),
		uint32(uint64(t) >> handleGenShift & handleGenMask)
}

// String renders inline terms. Heap applications only show their handle;
// use compiler.Format for a full rendering.
func (t Term) String() string {
	switch t.Kind() {
	case KindPrimitive:
		p, _ := t.Prim()
		return p.String()
	case KindNumber:
		n, _ := t.Number()
		return fmt.Sprintf("%d", n)
	case KindApp:
		if fn, arg, ok := t.inlineSplit(); ok {
			return fmt.Sprintf("(%s %s)", fn, arg)
		}
		index, gen := t.handle()
		return fmt.Sprintf("#node%d.%d", index, gen)
	}
	return "<invalid>"
}
