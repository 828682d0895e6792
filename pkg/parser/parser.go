package parser

import (
	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/lexer"
)

type Parser struct {
	lexer        *lexer.Lexer  // lexer instance
	currentToken lexer.Token   // current token
	peekToken    lexer.Token   // one token of lookahead
	errors       []parseError  // errors in source order
	noStructLit  int           // >0 while parsing a control-flow header
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l}

	// Fill currentToken and peekToken
	p.nextToken()
	p.nextToken()

	return p
}

// ParseProgram parses src and returns the first error, if any.
func ParseProgram(src string) (*ast.Program, error) {
	p := NewParser(lexer.NewLexer(src))
	prog := p.Parse()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Parse parses statements until EOF, recovering at statement boundaries so
// several errors can be reported at once.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for {
		p.skipTerminators()
		if p.currentToken.Type == lexer.EOF {
			return prog
		}
		before := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > before {
			p.synchronize()
			continue
		}
		prog.Statements = append(prog.Statements, stmt)
		if !p.endStatement() {
			p.synchronize()
		}
	}
}

// nextToken advances to the next token from the lexer
func (p *Parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	if p.currentToken.Type == lexer.ILLEGAL {
		p.addLexicalError(p.currentToken)
	}
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.currentToken.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expect consumes a token of type t or records an error.
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curIs(t) {
		p.nextToken()
		return true
	}
	p.addContextualError(t)
	return false
}

func (p *Parser) skipNewlines() {
	for p.curIs(lexer.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) skipTerminators() {
	for p.curIs(lexer.NEWLINE) || p.curIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

// endStatement checks that a statement is followed by a newline, ';', '}'
// or the end of input. Only newline and ';' are consumed.
func (p *Parser) endStatement() bool {
	switch p.currentToken.Type {
	case lexer.NEWLINE, lexer.SEMICOLON:
		p.nextToken()
		return true
	case lexer.RBRACE, lexer.EOF:
		return true
	}
	p.addError("Missing newline or ';' after statement")
	return false
}

// synchronize skips to the start of the next statement.
func (p *Parser) synchronize() {
	for !p.curIs(lexer.EOF) && !p.curIs(lexer.NEWLINE) && !p.curIs(lexer.SEMICOLON) && !p.curIs(lexer.RBRACE) {
		p.nextToken()
	}
	if !p.curIs(lexer.EOF) && !p.curIs(lexer.RBRACE) {
		p.nextToken()
	}
}

func pos(t lexer.Token) ast.Pos {
	return ast.Pos{Line: t.Pos.Line, Column: t.Pos.Column}
}
