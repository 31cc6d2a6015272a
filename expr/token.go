package expr

import "fmt"

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF

	// Literals
	TokenNumber // 1, 2.5, .5, 1e-3
	TokenIdent  // x, sin, Math.PI

	// Operators and delimiters
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenPercent   // %
	TokenPower     // ^ or **
	TokenLParen    // (
	TokenRParen    // )
	TokenComma     // ,
	TokenLess      // <
	TokenLessEq    // <=
	TokenGreater   // >
	TokenGreaterEq // >=
	TokenEqual     // ==
	TokenNotEqual  // !=
	TokenQuestion  // ?
	TokenColon     // :
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset in the source
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("Error(%s)", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}
