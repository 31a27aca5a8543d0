package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the postfix source language
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Leaves
	TokenPrimitive // + - ~ * ! @
	TokenNumber    // 42
	TokenLetter    // 'a

	// Application operator
	TokenApply // .
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenPrimitive: "PRIMITIVE",
	TokenNumber:    "NUMBER",
	TokenLetter:    "LETTER",
	TokenApply:     ".",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Position represents a source location.
type Position struct {
	Offset int // byte offset (0-based)
	Line   int // line number (1-based)
	Column int // column in bytes (1-based)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text, or the message of an error token
	Pos     Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// IsLeaf returns true for tokens that push a term.
func (t Token) IsLeaf() bool {
	switch t.Type {
	case TokenPrimitive, TokenNumber, TokenLetter:
		return true
	}
	return false
}
