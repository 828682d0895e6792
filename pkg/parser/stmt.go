package parser

import (
	"github.com/rayone121/widow/pkg/ast"
	"github.com/rayone121/widow/pkg/lexer"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.currentToken.Type {
	case lexer.LET, lexer.CONST:
		return p.parseVarDecl()
	case lexer.FUNC:
		if fn := p.parseFuncDecl(); fn != nil {
			return fn
		}
		return nil
	case lexer.STRUCT:
		return p.parseStructDecl()
	case lexer.IMPL:
		return p.parseImplDecl()
	case lexer.IF:
		return p.parseIf()
	case lexer.FOR:
		return p.parseFor()
	case lexer.SWITCH:
		return p.parseSwitch()
	case lexer.RET:
		return p.parseReturn()
	case lexer.BREAK:
		s := &ast.Break{Pos: pos(p.currentToken)}
		p.nextToken()
		return s
	case lexer.CONTINUE:
		s := &ast.Continue{Pos: pos(p.currentToken)}
		p.nextToken()
		return s
	case lexer.LBRACE:
		if b := p.parseBlock(); b != nil {
			return b
		}
		return nil
	case lexer.RBRACE:
		p.addError("Unexpected closing brace")
		p.nextToken()
		return nil
	case lexer.ELIF, lexer.ELSE:
		p.addError("'" + p.currentToken.Lexeme + "' without matching 'if'")
		return nil
	}
	return p.parseSimpleStatement()
}

// parseSimpleStatement parses an expression statement or an assignment.
func (p *Parser) parseSimpleStatement() ast.Statement {
	start := p.currentToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !p.curIs(lexer.ASSIGN) {
		return &ast.ExpressionStatement{Pos: pos(start), Expr: expr}
	}
	switch expr.(type) {
	case *ast.Identifier, *ast.Index, *ast.Member:
	default:
		p.addError("Invalid assignment target")
		return nil
	}
	p.nextToken()
	val := p.parseExpression(LOWEST)
	if val == nil {
		return nil
	}
	return &ast.Assignment{Pos: pos(start), Target: expr, Value: val}
}

func (p *Parser) parseVarDecl() ast.Statement {
	decl := &ast.VarDecl{Pos: pos(p.currentToken), Const: p.curIs(lexer.CONST)}
	p.nextToken()

	if !p.curIs(lexer.ID) {
		p.addContextualError(lexer.ID)
		return nil
	}
	decl.Name = p.currentToken.Lexeme
	p.nextToken()

	if p.curIs(lexer.COLON) {
		p.nextToken()
		decl.Type = p.parseTypeName()
		if decl.Type == "" {
			return nil
		}
	}

	if !p.curIs(lexer.ASSIGN) {
		if decl.Const {
			p.addError("Constant '" + decl.Name + "' needs a value")
			return nil
		}
		return decl
	}
	p.nextToken()
	decl.Value = p.parseExpression(LOWEST)
	if decl.Value == nil {
		return nil
	}
	return decl
}

// parseTypeName reads a type annotation. Annotations are recorded but not
// checked.
func (p *Parser) parseTypeName() string {
	if p.curIs(lexer.LSBRACE) {
		p.nextToken()
		inner := p.parseTypeName()
		if inner == "" || !p.expect(lexer.RSBRACE) {
			return ""
		}
		return "[" + inner + "]"
	}
	if !p.curIs(lexer.ID) {
		p.addError("Expected type name")
		return ""
	}
	name := p.currentToken.Lexeme
	p.nextToken()
	return name
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	fn := &ast.FuncDecl{Pos: pos(p.currentToken)}
	p.nextToken()

	if !p.curIs(lexer.ID) {
		p.addContextualError(lexer.ID)
		return nil
	}
	fn.Name = p.currentToken.Lexeme
	p.nextToken()

	if !p.expect(lexer.LPAREN) {
		return nil
	}
	for !p.curIs(lexer.RPAREN) {
		if !p.curIs(lexer.ID) {
			p.addContextualError(lexer.ID)
			return nil
		}
		param := ast.Param{Name: p.currentToken.Lexeme}
		p.nextToken()
		if p.curIs(lexer.COLON) {
			p.nextToken()
			if param.Type = p.parseTypeName(); param.Type == "" {
				return nil
			}
		}
		fn.Params = append(fn.Params, param)
		if !p.curIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expect(lexer.RPAREN) {
		return nil
	}

	if !p.curIs(lexer.LBRACE) {
		if fn.ReturnType = p.parseTypeName(); fn.ReturnType == "" {
			return nil
		}
	}
	fn.Body = p.parseBlock()
	if fn.Body == nil {
		return nil
	}
	return fn
}

func (p *Parser) parseStructDecl() ast.Statement {
	decl := &ast.StructDecl{Pos: pos(p.currentToken)}
	p.nextToken()

	if !p.curIs(lexer.ID) {
		p.addContextualError(lexer.ID)
		return nil
	}
	decl.Name = p.currentToken.Lexeme
	p.nextToken()

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	for {
		p.skipSeparators()
		if p.curIs(lexer.RBRACE) {
			break
		}
		if !p.curIs(lexer.ID) {
			p.addContextualError(lexer.ID)
			return nil
		}
		field := ast.Field{Name: p.currentToken.Lexeme}
		p.nextToken()
		if p.curIs(lexer.COLON) {
			p.nextToken()
			if field.Type = p.parseTypeName(); field.Type == "" {
				return nil
			}
		}
		decl.Fields = append(decl.Fields, field)
		if !p.curIs(lexer.COMMA) && !p.curIs(lexer.NEWLINE) && !p.curIs(lexer.RBRACE) {
			p.addContextualError(lexer.RBRACE)
			return nil
		}
	}
	p.nextToken()
	return decl
}

func (p *Parser) parseImplDecl() ast.Statement {
	decl := &ast.ImplDecl{Pos: pos(p.currentToken)}
	p.nextToken()

	if !p.curIs(lexer.ID) {
		p.addContextualError(lexer.ID)
		return nil
	}
	decl.Name = p.currentToken.Lexeme
	p.nextToken()

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	for {
		p.skipTerminators()
		if p.curIs(lexer.RBRACE) {
			break
		}
		if !p.curIs(lexer.FUNC) {
			p.addError("Expected method declaration")
			return nil
		}
		m := p.parseFuncDecl()
		if m == nil {
			return nil
		}
		decl.Methods = append(decl.Methods, m)
	}
	p.nextToken()
	return decl
}

// parseBlock parses '{' statements '}'. Errors inside the block are
// recovered at statement boundaries.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Pos: pos(p.currentToken)}
	if !p.expect(lexer.LBRACE) {
		return nil
	}
	failed := false
	for {
		p.skipTerminators()
		if p.curIs(lexer.RBRACE) {
			break
		}
		if p.curIs(lexer.EOF) {
			p.addContextualError(lexer.RBRACE)
			return nil
		}
		before := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > before {
			failed = true
			p.synchronize()
			continue
		}
		block.Statements = append(block.Statements, stmt)
		if !p.endStatement() {
			failed = true
			p.synchronize()
		}
	}
	p.nextToken()
	if failed {
		return nil
	}
	return block
}

// parseHeader parses a control-flow condition, where '{' opens the body
// rather than a struct or map literal.
func (p *Parser) parseHeader() ast.Expression {
	p.noStructLit++
	defer func() { p.noStructLit-- }()
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseIf() ast.Statement {
	stmt := &ast.If{Pos: pos(p.currentToken)}
	p.nextToken()

	if stmt.Cond = p.parseHeader(); stmt.Cond == nil {
		return nil
	}
	if stmt.Then = p.parseBlock(); stmt.Then == nil {
		return nil
	}
	for p.curIs(lexer.ELIF) {
		p.nextToken()
		var elif ast.ElseIf
		if elif.Cond = p.parseHeader(); elif.Cond == nil {
			return nil
		}
		if elif.Body = p.parseBlock(); elif.Body == nil {
			return nil
		}
		stmt.Elifs = append(stmt.Elifs, elif)
	}
	if p.curIs(lexer.ELSE) {
		p.nextToken()
		if stmt.Else = p.parseBlock(); stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseFor() ast.Statement {
	start := pos(p.currentToken)
	p.nextToken()

	// for { ... }
	if p.curIs(lexer.LBRACE) {
		body := p.parseBlock()
		if body == nil {
			return nil
		}
		return &ast.ForCond{Pos: start, Body: body}
	}

	// for x in a..b { ... } / for x in coll { ... }
	if p.curIs(lexer.ID) && p.peekIs(lexer.IN) {
		name := p.currentToken.Lexeme
		p.nextToken()
		p.nextToken()
		first := p.parseHeader()
		if first == nil {
			return nil
		}
		if p.curIs(lexer.DOTDOT) {
			p.nextToken()
			end := p.parseHeader()
			if end == nil {
				return nil
			}
			body := p.parseBlock()
			if body == nil {
				return nil
			}
			return &ast.ForRange{Pos: start, Var: name, Start: first, End: end, Body: body}
		}
		body := p.parseBlock()
		if body == nil {
			return nil
		}
		return &ast.ForEach{Pos: start, Var: name, Iterable: first, Body: body}
	}

	cond := p.parseHeader()
	if cond == nil {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.ForCond{Pos: start, Cond: cond, Body: body}
}

func (p *Parser) parseSwitch() ast.Statement {
	stmt := &ast.Switch{Pos: pos(p.currentToken)}
	p.nextToken()

	if stmt.Subject = p.parseHeader(); stmt.Subject == nil {
		return nil
	}
	if !p.expect(lexer.LBRACE) {
		return nil
	}
	for {
		p.skipTerminators()
		switch p.currentToken.Type {
		case lexer.RBRACE:
			p.nextToken()
			return stmt
		case lexer.CASE:
			c := ast.Case{Pos: pos(p.currentToken)}
			p.nextToken()
			for {
				v := p.parseExpression(LOWEST)
				if v == nil {
					return nil
				}
				c.Values = append(c.Values, v)
				if !p.curIs(lexer.COMMA) {
					break
				}
				p.nextToken()
			}
			if c.Body = p.parseCaseBody(); c.Body == nil {
				return nil
			}
			stmt.Cases = append(stmt.Cases, c)
		case lexer.DEFAULT:
			if stmt.Default != nil {
				p.addError("Duplicate default case")
				return nil
			}
			p.nextToken()
			if stmt.Default = p.parseCaseBody(); stmt.Default == nil {
				return nil
			}
		default:
			p.addError("Expected 'case' or 'default'")
			return nil
		}
	}
}

// parseCaseBody parses ':' followed by statements up to the next case
// label or the closing brace.
func (p *Parser) parseCaseBody() *ast.Block {
	block := &ast.Block{Pos: pos(p.currentToken)}
	if !p.expect(lexer.COLON) {
		return nil
	}
	for {
		p.skipTerminators()
		switch p.currentToken.Type {
		case lexer.CASE, lexer.DEFAULT, lexer.RBRACE:
			return block
		case lexer.EOF:
			p.addContextualError(lexer.RBRACE)
			return nil
		}
		before := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > before || !p.endStatement() {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
	}
}

func (p *Parser) parseReturn() ast.Statement {
	stmt := &ast.Return{Pos: pos(p.currentToken)}
	p.nextToken()
	switch p.currentToken.Type {
	case lexer.NEWLINE, lexer.SEMICOLON, lexer.RBRACE, lexer.EOF:
		return stmt
	}
	if stmt.Value = p.parseExpression(LOWEST); stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) skipSeparators() {
	for p.curIs(lexer.NEWLINE) || p.curIs(lexer.COMMA) {
		p.nextToken()
	}
}
