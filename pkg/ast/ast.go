package ast

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) Position() Pos { return p }

type Node interface {
	Position() Pos
}

type Statement interface {
	Node
	stmtNode()
}

type Expression interface {
	Node
	exprNode()
}

type Program struct {
	Statements []Statement
}

// Statements

type ExpressionStatement struct {
	Pos
	Expr Expression
}

// VarDecl declares one variable. Value is nil when there is no initializer.
type VarDecl struct {
	Pos
	Name  string
	Type  string
	Value Expression
	Const bool
}

type Param struct {
	Name string
	Type string
}

type FuncDecl struct {
	Pos
	Name       string
	Params     []Param
	ReturnType string
	Body       *Block
}

type Field struct {
	Name string
	Type string
}

type StructDecl struct {
	Pos
	Name   string
	Fields []Field
}

type ImplDecl struct {
	Pos
	Name    string
	Methods []*FuncDecl
}

// Assignment targets an Identifier, Index or Member expression.
type Assignment struct {
	Pos
	Target Expression
	Value  Expression
}

type Block struct {
	Pos
	Statements []Statement
}

type ElseIf struct {
	Cond Expression
	Body *Block
}

type If struct {
	Pos
	Cond  Expression
	Then  *Block
	Elifs []ElseIf
	Else  *Block
}

// ForCond loops while Cond is truthy; a nil Cond loops forever.
type ForCond struct {
	Pos
	Cond Expression
	Body *Block
}

// ForRange iterates Var over the half-open range [Start, End).
type ForRange struct {
	Pos
	Var   string
	Start Expression
	End   Expression
	Body  *Block
}

// ForEach iterates Var over array elements, map keys or string characters.
type ForEach struct {
	Pos
	Var      string
	Iterable Expression
	Body     *Block
}

type Case struct {
	Pos
	Values []Expression
	Body   *Block
}

type Switch struct {
	Pos
	Subject Expression
	Cases   []Case
	Default *Block
}

type Return struct {
	Pos
	Value Expression
}

type Break struct{ Pos }

type Continue struct{ Pos }

func (*ExpressionStatement) stmtNode() {}
func (*VarDecl) stmtNode()             {}
func (*FuncDecl) stmtNode()            {}
func (*StructDecl) stmtNode()          {}
func (*ImplDecl) stmtNode()            {}
func (*Assignment) stmtNode()          {}
func (*Block) stmtNode()               {}
func (*If) stmtNode()                  {}
func (*ForCond) stmtNode()             {}
func (*ForRange) stmtNode()            {}
func (*ForEach) stmtNode()             {}
func (*Switch) stmtNode()              {}
func (*Return) stmtNode()              {}
func (*Break) stmtNode()               {}
func (*Continue) stmtNode()            {}

// Expressions

type Identifier struct {
	Pos
	Name string
}

type LiteralKind int

const (
	LitNil LiteralKind = iota
	LitInt
	LitFloat
	LitString
	LitChar
	LitBool
)

type Literal struct {
	Pos
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Char  rune
	Bool  bool
}

type Prefix struct {
	Pos
	Op    string
	Right Expression
}

type Infix struct {
	Pos
	Op    string
	Left  Expression
	Right Expression
}

type Call struct {
	Pos
	Callee Expression
	Args   []Expression
}

type Index struct {
	Pos
	Left  Expression
	Index Expression
}

type Member struct {
	Pos
	Object Expression
	Name   string
}

type ArrayLit struct {
	Pos
	Elems []Expression
}

type MapEntry struct {
	Key   Expression
	Value Expression
}

type MapLit struct {
	Pos
	Entries []MapEntry
}

type FieldInit struct {
	Name  string
	Value Expression
}

type StructInit struct {
	Pos
	Name   string
	Fields []FieldInit
}

func (*Identifier) exprNode() {}
func (*Literal) exprNode()    {}
func (*Prefix) exprNode()     {}
func (*Infix) exprNode()      {}
func (*Call) exprNode()       {}
func (*Index) exprNode()      {}
func (*Member) exprNode()     {}
func (*ArrayLit) exprNode()   {}
func (*MapLit) exprNode()     {}
func (*StructInit) exprNode() {}

// Describe names a node kind for diagnostics.
func Describe(n Node) string {
	switch n.(type) {
	case *ExpressionStatement:
		return "expression statement"
	case *VarDecl:
		return "variable declaration"
	case *FuncDecl:
		return "function declaration"
	case *StructDecl:
		return "struct declaration"
	case *ImplDecl:
		return "impl declaration"
	case *Assignment:
		return "assignment"
	case *Block:
		return "block"
	case *If:
		return "if statement"
	case *ForCond, *ForRange, *ForEach:
		return "for loop"
	case *Switch:
		return "switch statement"
	case *Return:
		return "return statement"
	case *Break:
		return "break statement"
	case *Continue:
		return "continue statement"
	case *Identifier:
		return "identifier"
	case *Literal:
		return "literal"
	case *Prefix:
		return "prefix expression"
	case *Infix:
		return "infix expression"
	case *Call:
		return "call expression"
	case *Index:
		return "index expression"
	case *Member:
		return "member access"
	case *ArrayLit:
		return "array literal"
	case *MapLit:
		return "map literal"
	case *StructInit:
		return "struct literal"
	}
	return "node"
}
