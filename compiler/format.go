package compiler

import (
	"strconv"
	"strings"

	"github.com/chazu/worse/vm"
)

// ---------------------------------------------------------------------------
// Format: Terms back to postfix source
// ---------------------------------------------------------------------------

// Format renders t as postfix source that parses back to an equal term. The
// application of f to x is written "x f .". t is borrowed.
//
// The two decoder markers have no source spelling; they print as
// {mark-inc} and {mark-init}, which do not parse.
func Format(h *vm.Heap, t vm.Term) string {
	var b strings.Builder
	emit := func(tok string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}

	type item struct {
		t     vm.Term
		apply bool
	}
	work := []item{{t: t}}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]
		if it.apply {
			emit(".")
			continue
		}

		sh := h.Shape(it.t)
		switch sh.Kind {
		case vm.KindPrimitive:
			info := sh.Prim.Info()
			if info.Reserved {
				emit("{" + info.Name + "}")
			} else {
				emit(string(info.Symbol))
			}
		case vm.KindNumber:
			emit(strconv.FormatUint(uint64(sh.Number), 10))
		case vm.KindApp:
			work = append(work, item{apply: true}, item{t: sh.Fn}, item{t: sh.Arg})
		default:
			emit("<invalid>")
		}
	}
	return b.String()
}
