package compiler

import (
	"fmt"
	"strconv"

	"github.com/chazu/worse/vm"
)

// ---------------------------------------------------------------------------
// LoadError: Malformed source
// ---------------------------------------------------------------------------

// LoadError reports source that does not denote exactly one term.
type LoadError struct {
	Pos Position
	Msg string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ---------------------------------------------------------------------------
// Parser: Postfix stack folding
// ---------------------------------------------------------------------------

// Parser folds a token stream into a single term. Leaves are pushed; the
// application operator pops the most recent term x, then y, and pushes x
// applied to y.
type Parser struct {
	lexer *Lexer
	heap  *vm.Heap
	stack []vm.Term
	pos   []Position // start of each pending term
}

// NewParser creates a parser that builds terms in h.
func NewParser(h *vm.Heap, input string) *Parser {
	return &Parser{lexer: NewLexer(input), heap: h}
}

// Parse parses src into one closed term owned by the caller.
func Parse(h *vm.Heap, src string) (vm.Term, error) {
	return NewParser(h, src).Parse()
}

// Parse consumes the whole input. On error every partial term is released.
func (p *Parser) Parse() (vm.Term, error) {
	for {
		tok := p.lexer.NextToken()
		switch {
		case tok.Type == TokenEOF:
			return p.finish(tok.Pos)

		case tok.Type == TokenError:
			return p.fail(tok.Pos, tok.Literal)

		case tok.Type == TokenApply:
			n := len(p.stack)
			if n < 2 {
				return p.fail(tok.Pos, underflowMsg(n))
			}
			x, y := p.stack[n-1], p.stack[n-2]
			p.stack = p.stack[:n-2]
			p.pos = p.pos[:n-1]
			p.stack = append(p.stack, p.heap.Apply(x, y))

		default:
			t, msg := leafTerm(tok)
			if msg != "" {
				return p.fail(tok.Pos, msg)
			}
			p.stack = append(p.stack, t)
			p.pos = append(p.pos, tok.Pos)
		}
	}
}

func (p *Parser) finish(end Position) (vm.Term, error) {
	switch len(p.stack) {
	case 0:
		return p.fail(end, "empty program")
	case 1:
		t := p.stack[0]
		p.stack = p.stack[:0]
		return t, nil
	}
	return p.fail(p.pos[1], leftoverMsg(len(p.stack)))
}

func (p *Parser) fail(pos Position, msg string) (vm.Term, error) {
	for _, t := range p.stack {
		p.heap.Release(t)
	}
	p.stack = p.stack[:0]
	return 0, &LoadError{Pos: pos, Msg: msg}
}

// leafTerm converts a leaf token into its term. A non-empty message reports
// a literal that names no term.
func leafTerm(tok Token) (vm.Term, string) {
	switch tok.Type {
	case TokenPrimitive:
		if prim, ok := vm.PrimBySymbol(tok.Literal[0]); ok {
			return prim.Term(), ""
		}
	case TokenNumber:
		n, err := strconv.ParseUint(tok.Literal, 10, 32)
		if err != nil {
			return 0, fmt.Sprintf("numeral %s does not fit in 32 bits", tok.Literal)
		}
		return vm.Number(uint32(n)), ""
	case TokenLetter:
		return vm.Number(uint32(tok.Literal[1])), ""
	}
	return 0, fmt.Sprintf("unexpected %s", tok)
}

func underflowMsg(n int) string {
	return fmt.Sprintf("application needs two terms, have %d", n)
}

func leftoverMsg(n int) string {
	return fmt.Sprintf("%d terms left unapplied, want exactly one", n)
}

// ---------------------------------------------------------------------------
// Check: Error collection without building terms
// ---------------------------------------------------------------------------

// Check reports every LoadError in src. Unlike Parse it keeps going after an
// error: an application that underflows counts as one term and a bad literal
// still occupies a stack slot, so later diagnostics stay meaningful.
func Check(src string) []*LoadError {
	var errs []*LoadError
	var pending []Position
	l := NewLexer(src)
	for {
		tok := l.NextToken()
		switch {
		case tok.Type == TokenEOF:
			switch len(pending) {
			case 0:
				errs = append(errs, &LoadError{Pos: tok.Pos, Msg: "empty program"})
			case 1:
			default:
				errs = append(errs, &LoadError{Pos: pending[1], Msg: leftoverMsg(len(pending))})
			}
			return errs

		case tok.Type == TokenError:
			errs = append(errs, &LoadError{Pos: tok.Pos, Msg: tok.Literal})

		case tok.Type == TokenApply:
			n := len(pending)
			if n < 2 {
				errs = append(errs, &LoadError{Pos: tok.Pos, Msg: underflowMsg(n)})
				pending = append(pending[:0], tok.Pos)
				continue
			}
			pending = pending[:n-1]

		default:
			if _, msg := leafTerm(tok); msg != "" {
				errs = append(errs, &LoadError{Pos: tok.Pos, Msg: msg})
			}
			pending = append(pending, tok.Pos)
		}
	}
}
