package lexer

import (
	"fmt"
)

type TokenType int
type TokenCategory int

type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Decoded value for strings and chars, lexeme otherwise
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     pos,
	}
}

const (
	NONE TokenCategory = iota
	KEYWORD
	IDENTIFIER
	LITERAL
	OPERATOR
	DELIMITER
)

const (
	EOF TokenType = iota // End of file

	LET      // let
	CONST    // const
	FUNC     // func
	RET      // ret
	IF       // if
	ELIF     // elif
	ELSE     // else
	FOR      // for
	IN       // in
	BREAK    // break
	CONTINUE // continue
	STRUCT   // struct
	IMPL     // impl
	SWITCH   // switch
	CASE     // case
	DEFAULT  // default
	NIL      // nil
	TRUE     // true
	FALSE    // false

	ID     // identifier
	NUM    // integer or float literal
	STRING // "string"
	CHAR   // 'c'

	ASSIGN // =
	PLUS   // +
	MINUS  // -
	MULT   // *
	DIV    // /
	MOD    // %
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=
	EQ     // ==
	NE     // !=
	AND    // &&
	OR     // ||
	NOT    // !
	DOT    // .
	DOTDOT // ..

	SEMICOLON // ;
	COMMA     // ,
	COLON     // :
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LSBRACE   // [
	RSBRACE   // ]
	NEWLINE   // \n

	ILLEGAL // illegal token
)

var Keywords = map[string]TokenType{
	"let":      LET,
	"const":    CONST,
	"func":     FUNC,
	"ret":      RET,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"struct":   STRUCT,
	"impl":     IMPL,
	"switch":   SWITCH,
	"case":     CASE,
	"default":  DEFAULT,
	"nil":      NIL,
	"true":     TRUE,
	"false":    FALSE,
}

var tokenNames = map[TokenType]string{
	EOF:       "EOF",
	ID:        "identifier",
	NUM:       "number",
	STRING:    "string",
	CHAR:      "char",
	ASSIGN:    "=",
	PLUS:      "+",
	MINUS:     "-",
	MULT:      "*",
	DIV:       "/",
	MOD:       "%",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	EQ:        "==",
	NE:        "!=",
	AND:       "&&",
	OR:        "||",
	NOT:       "!",
	DOT:       ".",
	DOTDOT:    "..",
	SEMICOLON: ";",
	COMMA:     ",",
	COLON:     ":",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LSBRACE:   "[",
	RSBRACE:   "]",
	NEWLINE:   "newline",
	ILLEGAL:   "illegal",
}

func init() {
	for word, t := range Keywords {
		tokenNames[t] = word
	}
}

// String returns a string representation of the Token
func (t Token) String() string {
	return fmt.Sprintf("T_{%s, %q, %s}", t.Type, t.Lexeme, t.Pos)
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := tokenNames[t]; ok {
		return str
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// GetCategory returns the category of the token
func (t TokenType) GetCategory() TokenCategory {
	switch {
	case t >= LET && t <= FALSE:
		return KEYWORD
	case t == ID:
		return IDENTIFIER
	case t == NUM || t == STRING || t == CHAR:
		return LITERAL
	case t >= ASSIGN && t <= DOTDOT:
		return OPERATOR
	case t >= SEMICOLON && t <= NEWLINE:
		return DELIMITER
	default:
		return NONE
	}
}

// IsKeyword checks if the given identifier is a keyword and returns its TokenType if it is
func IsKeyword(identifier string) (TokenType, bool) {
	tokenType, ok := Keywords[identifier]
	return tokenType, ok
}
