// Package ast defines quill's abstract syntax tree: the typed node
// variants the parser produces and the evaluator consumes (spec §3, §4.5).
package ast

import "github.com/quilldb/quill/internal/token"

// Node is the base interface every AST node satisfies.
type Node interface {
	Pos() token.Pos
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
}

// Expr is a scalar expression: a literal, identifier, binary operation,
// or aggregate call.
type Expr interface {
	Node
	exprNode()
}

// SelectItem is one entry in a SELECT column list: '*', an aliased
// expression, or an aggregate call.
type SelectItem interface {
	Node
	selectItemNode()
}

// ---- statements ----

// SelectStmt is a SELECT statement.
type SelectStmt struct {
	StartPos token.Pos
	Columns  []SelectItem
	From     *TableRef
	Where    Expr
	GroupBy  []*Identifier
	Having   Expr
}

func (*SelectStmt) statementNode()  {}
func (s *SelectStmt) Pos() token.Pos { return s.StartPos }

// InsertStmt is an INSERT statement.
type InsertStmt struct {
	StartPos token.Pos
	Table    string
	Columns  []string // explicit list; empty when omitted (the evaluator then uses all declared columns)
	Rows     [][]Expr
}

func (*InsertStmt) statementNode()  {}
func (s *InsertStmt) Pos() token.Pos { return s.StartPos }

// Assignment is one `col = expr` entry in an UPDATE's SET clause.
type Assignment struct {
	Column string
	Value  Expr
}

// UpdateStmt is an UPDATE statement.
type UpdateStmt struct {
	StartPos token.Pos
	Table    string
	Set      []*Assignment
	Where    Expr
}

func (*UpdateStmt) statementNode()  {}
func (s *UpdateStmt) Pos() token.Pos { return s.StartPos }

// DeleteStmt is a DELETE statement.
type DeleteStmt struct {
	StartPos token.Pos
	Table    string
	Where    Expr
}

func (*DeleteStmt) statementNode()  {}
func (s *DeleteStmt) Pos() token.Pos { return s.StartPos }

// ColumnDef is one column declaration in CREATE TABLE.
type ColumnDef struct {
	Name         string
	Type         string // canonical type tag: INT, VARCHAR, TEXT, DECIMAL, BOOLEAN, DATETIME, DATE
	IsPrimaryKey bool
}

// CreateTableStmt is a CREATE TABLE statement.
type CreateTableStmt struct {
	StartPos token.Pos
	Table    string
	Columns  []*ColumnDef
}

func (*CreateTableStmt) statementNode()  {}
func (s *CreateTableStmt) Pos() token.Pos { return s.StartPos }

// DropTableStmt is a DROP TABLE statement.
type DropTableStmt struct {
	StartPos token.Pos
	Table    string
}

func (*DropTableStmt) statementNode()  {}
func (s *DropTableStmt) Pos() token.Pos { return s.StartPos }

// ---- expressions ----

// Identifier is a bare column reference.
type Identifier struct {
	StartPos token.Pos
	Name     string
}

func (*Identifier) exprNode()        {}
func (i *Identifier) Pos() token.Pos { return i.StartPos }

// LiteralKind tags the concrete type of a Literal node.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
)

// Literal is a number or string literal (spec §4.5 grammar has no boolean
// or null literal production; those values only arise through coercion of
// a string literal or a column default — see SPEC_FULL.md §4.5).
type Literal struct {
	StartPos token.Pos
	Kind     LiteralKind
	Value    string
}

func (*Literal) exprNode()        {}
func (l *Literal) Pos() token.Pos { return l.StartPos }

// BinaryExpr is a binary operator application: arithmetic, comparison,
// LIKE, AND, or OR.
type BinaryExpr struct {
	StartPos token.Pos
	Op       token.Token
	Left     Expr
	Right    Expr
}

func (*BinaryExpr) exprNode()        {}
func (b *BinaryExpr) Pos() token.Pos { return b.StartPos }

// ParenExpr is a parenthesized sub-expression, kept distinct from its
// child only to preserve source position for error messages.
type ParenExpr struct {
	StartPos token.Pos
	Inner    Expr
}

func (*ParenExpr) exprNode()        {}
func (p *ParenExpr) Pos() token.Pos { return p.StartPos }

// ---- select items ----

// Star is the unqualified '*' projection.
type Star struct {
	StartPos token.Pos
}

func (*Star) selectItemNode()   {}
func (s *Star) Pos() token.Pos { return s.StartPos }

// AggFunc names an aggregate function kind.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// Aggregate is a COUNT/SUM/AVG/MIN/MAX(expr) or COUNT(*) call.
type Aggregate struct {
	StartPos token.Pos
	Func     AggFunc
	Star     bool // true for COUNT(*)
	Arg      Expr // nil iff Star
}

func (*Aggregate) exprNode()        {}
func (*Aggregate) selectItemNode()  {}
func (a *Aggregate) Pos() token.Pos { return a.StartPos }

// Alias renames a projected column or aggregate's output key.
type Alias struct {
	StartPos token.Pos
	Expr     SelectItem
	As       string
}

func (*Alias) selectItemNode()  {}
func (a *Alias) Pos() token.Pos { return a.StartPos }

// ExprItem wraps a bare expression used as a select-list entry (no alias).
type ExprItem struct {
	StartPos token.Pos
	Expr     Expr
}

func (*ExprItem) selectItemNode()  {}
func (e *ExprItem) Pos() token.Pos { return e.StartPos }

// TableRef is a FROM-clause table reference with an optional alias.
type TableRef struct {
	StartPos token.Pos
	Name     string
	Alias    string // empty if none
}

func (t *TableRef) Pos() token.Pos { return t.StartPos }

// EffectiveName returns the alias if present, else the table name — the
// name queries resolve unqualified columns against.
func (t *TableRef) EffectiveName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}
