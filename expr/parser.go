package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// evalFn is a compiled expression node.
type evalFn func(v *Vars) float64

// Parser compiles tokens straight into evalFn closures.
//
// Grammar, lowest precedence first:
//
//	ternary = compare [ "?" ternary ":" ternary ]
//	compare = sum { ("<" | "<=" | ">" | ">=" | "==" | "!=") sum }
//	sum     = product { ("+" | "-") product }
//	product = unary { ("*" | "/" | "%") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ ("^" | "**") unary ]
//	primary = number | ident | ident "(" [ ternary { "," ternary } ] ")" | "(" ternary ")"
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	depth     int
}

// MaxNesting bounds how deeply ternaries, unary operators and parentheses
// may nest.
const MaxNesting = 256

func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// Parse compiles the whole input into a single closure.
func (p *Parser) Parse() (evalFn, error) {
	if p.curToken.Type == TokenEOF {
		return nil, p.errorf(p.curToken, "empty expression")
	}
	fn, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != TokenEOF {
		return nil, p.errorf(p.curToken, "unexpected %s", p.curToken)
	}
	return fn, nil
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, tok.Pos, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(tt TokenType, what string) error {
	if p.curToken.Type != tt {
		return p.errorf(p.curToken, "expected %s, got %s", what, p.curToken)
	}
	p.nextToken()
	return nil
}

// enter tracks recursion depth; callers defer p.leave().
func (p *Parser) enter() error {
	p.depth++
	if p.depth > MaxNesting {
		return p.errorf(p.curToken, "expression nested too deeply")
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }

func (p *Parser) parseTernary() (evalFn, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		return nil, err
	}
	cond, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != TokenQuestion {
		return cond, nil
	}
	p.nextToken()

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon, "':'"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return func(v *Vars) float64 {
		if cond(v) != 0 {
			return then(v)
		}
		return els(v)
	}, nil
}

func (p *Parser) parseCompare() (evalFn, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	for {
		op := p.curToken.Type
		switch op {
		case TokenLess, TokenLessEq, TokenGreater, TokenGreaterEq, TokenEqual, TokenNotEqual:
		default:
			return left, nil
		}
		p.nextToken()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		left = compareFn(op, left, right)
	}
}

func compareFn(op TokenType, a, b evalFn) evalFn {
	return func(v *Vars) float64 {
		l, r := a(v), b(v)
		var ok bool
		switch op {
		case TokenLess:
			ok = l < r
		case TokenLessEq:
			ok = l <= r
		case TokenGreater:
			ok = l > r
		case TokenGreaterEq:
			ok = l >= r
		case TokenEqual:
			ok = l == r
		case TokenNotEqual:
			ok = l != r
		}
		if ok {
			return 1
		}
		return 0
	}
}

func (p *Parser) parseSum() (evalFn, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.curToken.Type == TokenPlus || p.curToken.Type == TokenMinus {
		op := p.curToken.Type
		p.nextToken()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		a, b := left, right
		if op == TokenPlus {
			left = func(v *Vars) float64 { return a(v) + b(v) }
		} else {
			left = func(v *Vars) float64 { return a(v) - b(v) }
		}
	}
	return left, nil
}

func (p *Parser) parseProduct() (evalFn, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.curToken.Type
		if op != TokenStar && op != TokenSlash && op != TokenPercent {
			return left, nil
		}
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		a, b := left, right
		switch op {
		case TokenStar:
			left = func(v *Vars) float64 { return a(v) * b(v) }
		case TokenSlash:
			left = func(v *Vars) float64 { return a(v) / b(v) }
		case TokenPercent:
			left = func(v *Vars) float64 { return jsMod(a(v), b(v)) }
		}
	}
}

func (p *Parser) parseUnary() (evalFn, error) {
	defer p.leave()
	if err := p.enter(); err != nil {
		return nil, err
	}
	switch p.curToken.Type {
	case TokenMinus:
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(v *Vars) float64 { return -operand(v) }, nil
	case TokenPlus:
		p.nextToken()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *Parser) parsePower() (evalFn, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != TokenPower {
		return base, nil
	}
	p.nextToken()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return func(v *Vars) float64 { return pow(base(v), exp(v)) }, nil
}

func (p *Parser) parsePrimary() (evalFn, error) {
	tok := p.curToken
	switch tok.Type {
	case TokenNumber:
		n, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok, "bad number %q", tok.Literal)
		}
		p.nextToken()
		return func(*Vars) float64 { return n }, nil

	case TokenIdent:
		p.nextToken()
		name := strings.TrimPrefix(tok.Literal, "Math.")
		if p.curToken.Type == TokenLParen {
			return p.parseCall(tok, name)
		}
		if fn, ok := variable(name); ok {
			return fn, nil
		}
		if c, ok := constants[name]; ok {
			return func(*Vars) float64 { return c }, nil
		}
		return nil, p.errorf(tok, "unknown identifier %q", tok.Literal)

	case TokenLParen:
		p.nextToken()
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenError:
		return nil, p.errorf(tok, "%s", tok.Literal)
	}
	return nil, p.errorf(tok, "unexpected %s", tok)
}

func (p *Parser) parseCall(tok Token, name string) (evalFn, error) {
	b, ok := builtins[name]
	if !ok {
		return nil, p.errorf(tok, "unknown function %q", tok.Literal)
	}
	p.nextToken() // consume (

	var args []evalFn
	if p.curToken.Type != TokenRParen {
		for {
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.curToken.Type != TokenComma {
				break
			}
			p.nextToken()
		}
	}
	if err := p.expect(TokenRParen, "')'"); err != nil {
		return nil, err
	}

	if b.arity >= 0 && len(args) != b.arity {
		return nil, p.errorf(tok, "%s expects %d argument(s), got %d", name, b.arity, len(args))
	}
	if b.arity < 0 && len(args) == 0 {
		return nil, p.errorf(tok, "%s expects at least one argument", name)
	}
	return b.bind(args), nil
}

func variable(name string) (evalFn, bool) {
	switch name {
	case "x":
		return func(v *Vars) float64 { return v.X }, true
	case "y":
		return func(v *Vars) float64 { return v.Y }, true
	case "width":
		return func(v *Vars) float64 { return v.Width }, true
	case "height":
		return func(v *Vars) float64 { return v.Height }, true
	}
	return nil, false
}
