package vm

// ---------------------------------------------------------------------------
// Centralized primitive table
// ---------------------------------------------------------------------------
//
// Every combinator has a fixed id (bits 1-3 of its word), a source spelling
// used by the compiler and the printer, and the number of arguments its
// reduction rule needs. This file is the single source of truth for them.
//
// IMPORTANT: ids are part of the term image format and must NEVER change.
// The two marker primitives are reserved for the decoder and have no source
// spelling.

// PrimInfo describes one primitive combinator.
type PrimInfo struct {
	Name     string
	Symbol   byte   // source spelling, 0 for reserved markers
	Arity    int    // arguments consumed by the general rule
	Law      string // reduction law, arguments in application order
	Reserved bool
}

var primTable = [NumPrims]PrimInfo{
	PrimPlus:     {Name: "plus", Symbol: '+', Arity: 4, Law: "plus m n f x = m f (n f x)"},
	PrimMinus:    {Name: "minus", Symbol: '-', Arity: 2, Law: "minus m n = n pred m"},
	PrimPred:     {Name: "pred", Symbol: '~', Arity: 3, Law: "pred m f x = m (wrap f) (const x) 1"},
	PrimWrap:     {Name: "wrap", Symbol: '*', Arity: 3, Law: "wrap f g h = h (g f)"},
	PrimConst:    {Name: "const", Symbol: '!', Arity: 2, Law: "const x y = x"},
	PrimRotate:   {Name: "rotate", Symbol: '@', Arity: 3, Law: "rotate x y z = y z x"},
	PrimMarkInc:  {Name: "mark-inc", Arity: 1, Law: "counts one toward the decoded byte", Reserved: true},
	PrimMarkInit: {Name: "mark-init", Arity: 0, Law: "terminates a decoded byte", Reserved: true},
}

// Info returns the table entry for p.
func (p Prim) Info() PrimInfo {
	return primTable[p&0b111]
}

func (p Prim) String() string {
	return p.Info().Name
}

// PrimBySymbol returns the primitive spelled by c in source text.
func PrimBySymbol(c byte) (Prim, bool) {
	for i, info := range primTable {
		if !info.Reserved && info.Symbol == c {
			return Prim(i), true
		}
	}
	return 0, false
}
