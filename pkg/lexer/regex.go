package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Pattern *regexp.Regexp
}

func rx(raw string) tokenRegex {
	return tokenRegex{regexp.MustCompile(raw)}
}

// Token regex patterns
var tokenRegexes = map[TokenType]tokenRegex{
	LE:     rx(`^<=`),
	GE:     rx(`^>=`),
	EQ:     rx(`^==`),
	NE:     rx(`^!=`),
	AND:    rx(`^&&`),
	OR:     rx(`^\|\|`),
	DOTDOT: rx(`^\.\.`),

	LET:      rx(`^let\b`),
	CONST:    rx(`^const\b`),
	FUNC:     rx(`^func\b`),
	RET:      rx(`^ret\b`),
	IF:       rx(`^if\b`),
	ELIF:     rx(`^elif\b`),
	ELSE:     rx(`^else\b`),
	FOR:      rx(`^for\b`),
	IN:       rx(`^in\b`),
	BREAK:    rx(`^break\b`),
	CONTINUE: rx(`^continue\b`),
	STRUCT:   rx(`^struct\b`),
	IMPL:     rx(`^impl\b`),
	SWITCH:   rx(`^switch\b`),
	CASE:     rx(`^case\b`),
	DEFAULT:  rx(`^default\b`),
	NIL:      rx(`^nil\b`),
	TRUE:     rx(`^true\b`),
	FALSE:    rx(`^false\b`),

	ASSIGN: rx(`^=`),
	PLUS:   rx(`^\+`),
	MINUS:  rx(`^-`),
	MULT:   rx(`^\*`),
	DIV:    rx(`^/`),
	MOD:    rx(`^%`),
	LT:     rx(`^<`),
	GT:     rx(`^>`),
	NOT:    rx(`^!`),
	DOT:    rx(`^\.`),

	SEMICOLON: rx(`^;`),
	COMMA:     rx(`^,`),
	COLON:     rx(`^:`),
	LPAREN:    rx(`^\(`),
	RPAREN:    rx(`^\)`),
	LBRACE:    rx(`^\{`),
	RBRACE:    rx(`^\}`),
	LSBRACE:   rx(`^\[`),
	RSBRACE:   rx(`^\]`),
	NEWLINE:   rx(`^\n`),

	NUM:    rx(`^\d+(\.\d+)?([eE][+-]?\d+)?`),
	STRING: rx(`^"([^"\\\n]|\\.)*"`),
	CHAR:   rx(`^'([^'\\\n]|\\.)'`),
	ID:     rx(`^[a-zA-Z_][a-zA-Z0-9_]*`),
}

var (
	whitespaceRegex = regexp.MustCompile(`^[ \t\r]+`)
	commentRegex    = regexp.MustCompile(`^(//|#)[^\n]*`)
)

// Token precedence order for matching (longer patterns first)
var tokenPrecedenceOrder = []TokenType{
	CONTINUE, DEFAULT, STRUCT, SWITCH, BREAK, CONST, FALSE, FUNC, ELIF,
	ELSE, IMPL, CASE, TRUE, LET, RET, FOR, NIL, IF, IN,
	LE, GE, EQ, NE, AND, OR, DOTDOT,
	ASSIGN, PLUS, MINUS, MULT, DIV, MOD, LT, GT, NOT, DOT,
	SEMICOLON, COMMA, COLON, LPAREN, RPAREN, LBRACE, RBRACE, LSBRACE, RSBRACE, NEWLINE,
	NUM, STRING, CHAR, ID,
}

// MatchToken matches the token at the start of s. Whitespace and comments
// match as EOF with their text so the caller can skip them.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if match := regex.Pattern.FindString(s); match != "" {
				return tokenType, match, true
			}
		}
	}

	return ILLEGAL, string(s[0]), false
}
