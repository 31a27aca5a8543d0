package compiler

import (
	"testing"

	"github.com/chazu/worse/vm"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics and always terminates.
// ---------------------------------------------------------------------------

func FuzzLexer(f *testing.F) {
	seeds := []string{
		`+ - ~ * ! @ .`,
		`42`, `0`, `4294967296`, `'a`, `'`, `''`,
		"# comment\n1",
		"1 2 + . .",
		"\x00\xff",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		l := NewLexer(src)
		for i := 0; i <= len(src)+1; i++ {
			tok := l.NextToken()
			if tok.Type == TokenEOF {
				return
			}
			if tok.Pos.Offset < 0 || tok.Pos.Offset >= len(src) {
				t.Fatalf("token %v at offset %d outside input", tok, tok.Pos.Offset)
			}
		}
		t.Fatalf("lexer did not reach EOF on %q", src)
	})
}

// ---------------------------------------------------------------------------
// FuzzParse: Parse and Check agree, and failures leave nothing allocated.
// ---------------------------------------------------------------------------

func FuzzParse(f *testing.F) {
	seeds := []string{
		"", "1", "1 .", "1 2", "1 2 + . .", "'x ! .",
		Quote([]byte("fuzz")),
		"1 . 2 x .",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		h := vm.NewHeap()
		term, err := Parse(h, src)
		errs := Check(src)
		if (err == nil) != (len(errs) == 0) {
			t.Fatalf("Parse error = %v, Check = %v", err, errs)
		}
		if err != nil {
			if err.Error() != errs[0].Error() {
				t.Errorf("first Check error = %v, Parse error = %v", errs[0], err)
			}
			if h.Live() != 0 {
				t.Errorf("Live() = %d after failed parse", h.Live())
			}
			return
		}
		again, err := Parse(h, Format(h, term))
		if err != nil {
			t.Fatalf("Parse(Format()) error = %v", err)
		}
		if !h.Equal(term, again) {
			t.Errorf("Parse(Format(t)) differs from t")
		}
		h.Release(term)
		h.Release(again)
		if h.Live() != 0 {
			t.Errorf("Live() = %d, want 0", h.Live())
		}
	})
}
