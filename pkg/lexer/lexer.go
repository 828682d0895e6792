package lexer

import (
	"strconv"

	"github.com/rayone121/widow/pkg/diag"
)

type Lexer struct {
	input        string // input string to be tokenized
	length       int    // length of the input string
	position     int    // current position in the input string
	line         int    // current line number for error reporting
	column       int    // current column number for error reporting
	currentToken Token  // last token produced
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:  s,
		length: len(s),
		line:   1,
		column: 1,
	}
}

// NextToken returns the next token. Newlines are tokens because they end
// statements.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.position >= l.length {
		tok := NewToken(EOF, "", "", l.currentPosition())
		l.currentToken = tok
		return tok
	}

	start := l.currentPosition()
	remaining := l.input[l.position:]
	tokenType, lexeme, matched := MatchToken(remaining)

	if !matched || tokenType == EOF {
		char := string(l.input[l.position])
		l.advance(1)

		tok := NewToken(ILLEGAL, char, "", start)
		l.currentToken = tok
		return tok
	}

	literal := lexeme
	switch tokenType {
	case STRING:
		s, err := strconv.Unquote(lexeme)
		if err != nil {
			tokenType = ILLEGAL
		}
		literal = s
	case CHAR:
		r, _, tail, err := strconv.UnquoteChar(lexeme[1:len(lexeme)-1], '\'')
		if err != nil || tail != "" {
			tokenType = ILLEGAL
		}
		literal = string(r)
	}

	tok := NewToken(tokenType, lexeme, literal, start)
	l.advance(len(lexeme))
	l.currentToken = tok

	return tok
}

// View next token without advancing the position
func (l *Lexer) Peek() Token {
	cpos := l.position
	cline := l.line
	ccol := l.column
	ctok := l.currentToken

	token := l.NextToken()

	l.position = cpos
	l.line = cline
	l.column = ccol
	l.currentToken = ctok

	return token
}

// Tokenize lexes the whole input, ending with EOF. The first illegal
// character or malformed literal is reported as a lexical error.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			return nil, diag.New(diag.Lexical, tok.Pos.Line, tok.Pos.Column, nil,
				"unexpected character %q", tok.Lexeme)
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// Skip blanks and comments, stopping at a newline
func (l *Lexer) skipWhitespace() {
	for l.position < l.length {
		t, match, ok := MatchToken(l.input[l.position:])
		if !ok || t != EOF || match == "" {
			return
		}
		l.advance(len(match))
	}
}

// Advance the lexer position by n bytes
func (l *Lexer) advance(n int) {
	for range n {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
