package expr

// Lexer splits an expression into tokens.
type Lexer struct {
	input string
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token in the stream
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	if isDigit(ch) || (ch == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])) {
		return l.readNumber()
	}
	if isIdentStart(ch) {
		return l.readIdent()
	}

	// Two-character operators first
	if l.pos+1 < len(l.input) {
		switch l.input[l.pos : l.pos+2] {
		case "**":
			l.pos += 2
			return Token{Type: TokenPower, Literal: "**", Pos: start}
		case "<=":
			l.pos += 2
			return Token{Type: TokenLessEq, Literal: "<=", Pos: start}
		case ">=":
			l.pos += 2
			return Token{Type: TokenGreaterEq, Literal: ">=", Pos: start}
		case "==":
			l.pos += 2
			return Token{Type: TokenEqual, Literal: "==", Pos: start}
		case "!=":
			l.pos += 2
			return Token{Type: TokenNotEqual, Literal: "!=", Pos: start}
		}
	}

	l.pos++
	switch ch {
	case '+':
		return Token{Type: TokenPlus, Literal: "+", Pos: start}
	case '-':
		return Token{Type: TokenMinus, Literal: "-", Pos: start}
	case '*':
		return Token{Type: TokenStar, Literal: "*", Pos: start}
	case '/':
		return Token{Type: TokenSlash, Literal: "/", Pos: start}
	case '%':
		return Token{Type: TokenPercent, Literal: "%", Pos: start}
	case '^':
		return Token{Type: TokenPower, Literal: "^", Pos: start}
	case '(':
		return Token{Type: TokenLParen, Literal: "(", Pos: start}
	case ')':
		return Token{Type: TokenRParen, Literal: ")", Pos: start}
	case ',':
		return Token{Type: TokenComma, Literal: ",", Pos: start}
	case '<':
		return Token{Type: TokenLess, Literal: "<", Pos: start}
	case '>':
		return Token{Type: TokenGreater, Literal: ">", Pos: start}
	case '?':
		return Token{Type: TokenQuestion, Literal: "?", Pos: start}
	case ':':
		return Token{Type: TokenColon, Literal: ":", Pos: start}
	}

	return Token{Type: TokenError, Literal: "unexpected character " + string(ch), Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	// Exponent: only consume when digits actually follow
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		j := l.pos + 1
		if j < len(l.input) && (l.input[j] == '+' || l.input[j] == '-') {
			j++
		}
		if j < len(l.input) && isDigit(l.input[j]) {
			l.pos = j
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start}
}

// readIdent reads a bare or dotted identifier (Math.sin).
func (l *Lexer) readIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && (isIdentPart(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}
	return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Pos: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
