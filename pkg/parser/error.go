package parser

import (
	"fmt"

	"github.com/rayone121/widow/pkg/color"
	"github.com/rayone121/widow/pkg/diag"
	"github.com/rayone121/widow/pkg/lexer"
)

type parseError struct {
	kind diag.Kind
	pos  lexer.Position
	msg  string
}

// addError records a parsing error at the current token
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, parseError{kind: diag.Parse, pos: p.currentToken.Pos, msg: msg})
}

func (p *Parser) addLexicalError(tok lexer.Token) {
	p.errors = append(p.errors, parseError{
		kind: diag.Lexical,
		pos:  tok.Pos,
		msg:  fmt.Sprintf("unexpected character %q", tok.Lexeme),
	})
}

// Errors returns the list of parsing errors, formatted for the console
func (p *Parser) Errors() []string {
	out := make([]string, 0, len(p.errors))
	for _, e := range p.errors {
		out = append(out, color.RedText(e.msg)+" at "+color.YellowText(fmt.Sprintf("Line: %d, Column %d", e.pos.Line, e.pos.Column)))
	}
	return out
}

// Err returns the first error as a positioned diagnostic, or nil.
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}
	e := p.errors[0]
	return diag.New(e.kind, e.pos.Line, e.pos.Column, nil, "%s", e.msg)
}

// addContextualError reports a missing token, naming it by what was expected
func (p *Parser) addContextualError(expected lexer.TokenType) {
	p.addError(p.categorizeError(expected, p.currentToken))
}

func (p *Parser) categorizeError(expected lexer.TokenType, current lexer.Token) string {
	switch expected {
	case lexer.RPAREN:
		return "Missing closing parenthesis"
	case lexer.RBRACE:
		return "Missing closing brace"
	case lexer.RSBRACE:
		return "Missing closing bracket"
	case lexer.LBRACE:
		if current.Type == lexer.LPAREN {
			return "Wrong bracket type - expected brace"
		}
		return "Missing opening brace"
	case lexer.LPAREN:
		if current.Type == lexer.LBRACE {
			return "Wrong bracket type - expected parenthesis"
		}
		return "Missing opening parenthesis"
	case lexer.ASSIGN:
		return "Missing assignment operator"
	case lexer.COLON:
		return "Missing ':'"
	case lexer.IN:
		return "Missing 'in'"
	case lexer.ID:
		if current.Type == lexer.ASSIGN || current.Type == lexer.SEMICOLON || current.Type == lexer.NEWLINE {
			return "Missing identifier"
		}
		if current.Type.GetCategory() == lexer.KEYWORD {
			return "Cannot use reserved keyword as identifier"
		}
		return "Expected identifier"
	}
	return fmt.Sprintf("Syntax error: expected %s, got %s", expected, describeToken(current))
}

func describeToken(t lexer.Token) string {
	switch t.Type {
	case lexer.EOF, lexer.NEWLINE:
		return t.Type.String()
	}
	return fmt.Sprintf("'%s'", t.Lexeme)
}
