package parser

import (
	"strconv"
	"strings"

	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/lexer"
)

// Binding powers, lowest first.
const (
	_ int = iota
	LOWEST
	OR      // ||
	AND     // &&
	EQUALS  // == !=
	COMPARE // < <= > >=
	SUM     // + -
	PRODUCT // * / %
	PREFIX  // -x !x
	POSTFIX // f(x) a[i] p.x
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:      OR,
	lexer.AND:     AND,
	lexer.EQ:      EQUALS,
	lexer.NE:      EQUALS,
	lexer.LT:      COMPARE,
	lexer.LE:      COMPARE,
	lexer.GT:      COMPARE,
	lexer.GE:      COMPARE,
	lexer.PLUS:    SUM,
	lexer.MINUS:   SUM,
	lexer.MULT:    PRODUCT,
	lexer.DIV:     PRODUCT,
	lexer.MOD:     PRODUCT,
	lexer.LPAREN:  POSTFIX,
	lexer.LSBRACE: POSTFIX,
	lexer.DOT:     POSTFIX,
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.currentToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// parseExpression parses operators binding tighter than prec. It returns
// nil after recording an error.
func (p *Parser) parseExpression(prec int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for prec < p.curPrecedence() {
		switch p.currentToken.Type {
		case lexer.LPAREN:
			left = p.parseCall(left)
		case lexer.LSBRACE:
			left = p.parseIndex(left)
		case lexer.DOT:
			left = p.parseMember(left)
		default:
			left = p.parseInfix(left)
		}
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.currentToken
	switch tok.Type {
	case lexer.ID:
		p.nextToken()
		if p.curIs(lexer.LBRACE) && p.noStructLit == 0 {
			return p.parseStructInit(tok)
		}
		return &ast.Identifier{Pos: pos(tok), Name: tok.Lexeme}
	case lexer.NUM:
		p.nextToken()
		return p.parseNumber(tok)
	case lexer.STRING:
		p.nextToken()
		return &ast.Literal{Pos: pos(tok), Kind: ast.LitString, Str: tok.Literal}
	case lexer.CHAR:
		p.nextToken()
		r := []rune(tok.Literal)
		return &ast.Literal{Pos: pos(tok), Kind: ast.LitChar, Char: r[0]}
	case lexer.TRUE, lexer.FALSE:
		p.nextToken()
		return &ast.Literal{Pos: pos(tok), Kind: ast.LitBool, Bool: tok.Type == lexer.TRUE}
	case lexer.NIL:
		p.nextToken()
		return &ast.Literal{Pos: pos(tok), Kind: ast.LitNil}
	case lexer.MINUS, lexer.NOT:
		p.nextToken()
		right := p.parseExpression(PREFIX)
		if right == nil {
			return nil
		}
		return &ast.Prefix{Pos: pos(tok), Op: tok.Lexeme, Right: right}
	case lexer.LPAREN:
		p.nextToken()
		saved := p.noStructLit
		p.noStructLit = 0
		expr := p.parseExpression(LOWEST)
		p.noStructLit = saved
		if expr == nil || !p.expect(lexer.RPAREN) {
			return nil
		}
		return expr
	case lexer.LSBRACE:
		return p.parseArray()
	case lexer.LBRACE:
		if p.noStructLit == 0 {
			return p.parseMap()
		}
	}
	p.addError("Missing expression")
	return nil
}

func (p *Parser) parseNumber(tok lexer.Token) ast.Expression {
	if strings.ContainsAny(tok.Lexeme, ".eE") {
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.addError("Invalid float literal '" + tok.Lexeme + "'")
			return nil
		}
		return &ast.Literal{Pos: pos(tok), Kind: ast.LitFloat, Float: f}
	}
	n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		p.addError("Integer literal '" + tok.Lexeme + "' out of range")
		return nil
	}
	return &ast.Literal{Pos: pos(tok), Kind: ast.LitInt, Int: n}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	tok := p.currentToken
	prec := p.curPrecedence()
	p.nextToken()
	p.skipNewlines()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &ast.Infix{Pos: pos(tok), Op: tok.Lexeme, Left: left, Right: right}
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	call := &ast.Call{Pos: pos(p.currentToken), Callee: callee}
	args, ok := p.parseList(lexer.RPAREN)
	if !ok {
		return nil
	}
	call.Args = args
	return call
}

func (p *Parser) parseIndex(left ast.Expression) ast.Expression {
	tok := p.currentToken
	p.nextToken()
	saved := p.noStructLit
	p.noStructLit = 0
	idx := p.parseExpression(LOWEST)
	p.noStructLit = saved
	if idx == nil || !p.expect(lexer.RSBRACE) {
		return nil
	}
	return &ast.Index{Pos: pos(tok), Left: left, Index: idx}
}

func (p *Parser) parseMember(obj ast.Expression) ast.Expression {
	tok := p.currentToken
	p.nextToken()
	if !p.curIs(lexer.ID) {
		p.addContextualError(lexer.ID)
		return nil
	}
	name := p.currentToken.Lexeme
	p.nextToken()
	return &ast.Member{Pos: pos(tok), Object: obj, Name: name}
}

func (p *Parser) parseArray() ast.Expression {
	arr := &ast.ArrayLit{Pos: pos(p.currentToken)}
	elems, ok := p.parseList(lexer.RSBRACE)
	if !ok {
		return nil
	}
	arr.Elems = elems
	return arr
}

// parseList parses comma separated expressions between the current opening
// token and end. Newlines are allowed between elements.
func (p *Parser) parseList(end lexer.TokenType) ([]ast.Expression, bool) {
	p.nextToken()
	saved := p.noStructLit
	p.noStructLit = 0
	defer func() { p.noStructLit = saved }()

	var list []ast.Expression
	for {
		p.skipNewlines()
		if p.curIs(end) {
			break
		}
		e := p.parseExpression(LOWEST)
		if e == nil {
			return nil, false
		}
		list = append(list, e)
		p.skipNewlines()
		if !p.curIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expect(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseMap() ast.Expression {
	m := &ast.MapLit{Pos: pos(p.currentToken)}
	p.nextToken()
	for {
		p.skipNewlines()
		if p.curIs(lexer.RBRACE) {
			break
		}
		key := p.parseExpression(LOWEST)
		if key == nil || !p.expect(lexer.COLON) {
			return nil
		}
		p.skipNewlines()
		val := p.parseExpression(LOWEST)
		if val == nil {
			return nil
		}
		m.Entries = append(m.Entries, ast.MapEntry{Key: key, Value: val})
		p.skipNewlines()
		if !p.curIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expect(lexer.RBRACE) {
		return nil
	}
	return m
}

func (p *Parser) parseStructInit(name lexer.Token) ast.Expression {
	init := &ast.StructInit{Pos: pos(name), Name: name.Lexeme}
	p.nextToken()
	for {
		p.skipNewlines()
		if p.curIs(lexer.RBRACE) {
			break
		}
		if !p.curIs(lexer.ID) {
			p.addContextualError(lexer.ID)
			return nil
		}
		field := ast.FieldInit{Name: p.currentToken.Lexeme}
		p.nextToken()
		if !p.expect(lexer.COLON) {
			return nil
		}
		p.skipNewlines()
		if field.Value = p.parseExpression(LOWEST); field.Value == nil {
			return nil
		}
		init.Fields = append(init.Fields, field)
		p.skipNewlines()
		if !p.curIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expect(lexer.RBRACE) {
		return nil
	}
	return init
}
