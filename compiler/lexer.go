package compiler

import (
	"fmt"

	"github.com/chazu/worse/vm"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for postfix combinator source
// ---------------------------------------------------------------------------

// Lexer tokenizes source bytes. The language is byte-oriented: columns count
// bytes and letter literals take exactly one byte.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current character
	eof     bool
	started bool
	line    int // current line (1-based)
	col     int // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.started {
		// Track line/column
		if !l.eof && l.ch == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.started = true
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.eof = true
		l.pos = len(l.input)
		return
	}
	l.ch = l.input[l.readPos]
	l.pos = l.readPos
	l.readPos++
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token. After the end of input it keeps
// returning TokenEOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()
	if l.eof {
		return Token{Type: TokenEOF, Pos: pos}
	}

	switch ch := l.ch; {
	case ch == '.':
		l.readChar()
		return Token{Type: TokenApply, Literal: ".", Pos: pos}

	case ch == '\'':
		return l.readLetter(pos)

	case isDigit(ch):
		return l.readNumber(pos)

	default:
		l.readChar()
		if _, ok := vm.PrimBySymbol(ch); ok {
			return Token{Type: TokenPrimitive, Literal: string(ch), Pos: pos}
		}
		return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character %q", ch), Pos: pos}
	}
}

// skipWhitespaceAndComments skips whitespace and # line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.eof {
		switch l.ch {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.readChar()
		case '#':
			for !l.eof && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readNumber reads a run of decimal digits. Range checking is left to the
// parser so the literal text survives for error messages.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for !l.eof && isDigit(l.ch) {
		l.readChar()
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

// readLetter reads 'c, the numeral of the byte c. Any byte may follow the
// quote, whitespace included.
func (l *Lexer) readLetter(pos Position) Token {
	l.readChar() // consume '
	if l.eof {
		return Token{Type: TokenError, Literal: "missing character after '", Pos: pos}
	}
	lit := l.input[pos.Offset : l.pos+1]
	l.readChar()
	return Token{Type: TokenLetter, Literal: lit, Pos: pos}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
