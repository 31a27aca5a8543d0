package vm

// ---------------------------------------------------------------------------
// List encoding: how programs are read as byte streams
// ---------------------------------------------------------------------------

// A program denotes a list of cells. Each cell is a pair λs. s head tail,
// selected with const (true) or 0 (false):
//
//	cons b rest              emit byte b, continue with rest
//	cons const nil'          end of output, where nil' selects to const
//	cons const (cons 0 k)    read one input byte x, continue with k x
//
// Input bytes are numerals; end of input is delivered as const.

// Boolean selectors
const (
	True  = Const
	False = Zero
)

// Cons builds the pair λs. s head tail as rotate tail (rotate head 1). It
// consumes head and tail.
func Cons(h *Heap, head, tail Term) Term {
	return h.Apply(h.Apply(Rotate, tail), h.Apply(h.Apply(Rotate, head), One))
}

// Nil returns the end-of-output cell.
func Nil(h *Heap) Term {
	return Cons(h, True, Cons(h, True, Const))
}

// ReadCell returns the cell that requests one input byte and continues with
// k applied to it. It consumes k.
func ReadCell(h *Heap, k Term) Term {
	return Cons(h, True, Cons(h, False, k))
}

// EncodeBytes returns a program that emits data and then ends.
func EncodeBytes(h *Heap, data []byte) Term {
	list := Nil(h)
	for i := len(data) - 1; i >= 0; i-- {
		list = Cons(h, Number(uint32(data[i])), list)
	}
	return list
}
