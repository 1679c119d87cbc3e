// Package format renders an AST back to SQL text (spec §4.5's round-trip
// requirement: parse(format(parse(s))) reproduces the same AST).
package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/quilldb/quill/internal/ast"
)

// Formatter accumulates SQL text for a single AST node.
type Formatter struct {
	buf bytes.Buffer
}

// String formats node to a single-line SQL string with uppercase keywords.
func String(node ast.Node) string {
	f := &Formatter{}
	f.Format(node)
	return f.buf.String()
}

func (f *Formatter) write(s string)        { f.buf.WriteString(s) }
func (f *Formatter) writeKeyword(kw string) { f.buf.WriteString(kw) }

// Format appends node's textual form to f.
func (f *Formatter) Format(node ast.Node) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *ast.SelectStmt:
		f.formatSelect(n)
	case *ast.InsertStmt:
		f.formatInsert(n)
	case *ast.UpdateStmt:
		f.formatUpdate(n)
	case *ast.DeleteStmt:
		f.formatDelete(n)
	case *ast.CreateTableStmt:
		f.formatCreateTable(n)
	case *ast.DropTableStmt:
		f.formatDropTable(n)
	case *ast.Identifier:
		f.write(n.Name)
	case *ast.Literal:
		f.formatLiteral(n)
	case *ast.BinaryExpr:
		f.formatBinary(n)
	case *ast.ParenExpr:
		f.write("(")
		f.Format(n.Inner)
		f.write(")")
	case *ast.Star:
		f.write("*")
	case *ast.Aggregate:
		f.formatAggregate(n)
	case *ast.Alias:
		f.Format(n.Expr)
		f.write(" AS ")
		f.write(n.As)
	case *ast.ExprItem:
		f.Format(n.Expr)
	default:
		panic(fmt.Sprintf("format: unhandled node type %T", node))
	}
}

func (f *Formatter) formatSelect(s *ast.SelectStmt) {
	f.writeKeyword("SELECT ")
	for i, c := range s.Columns {
		if i > 0 {
			f.write(", ")
		}
		f.Format(c)
	}
	f.writeKeyword(" FROM ")
	f.write(s.From.Name)
	if s.From.Alias != "" {
		f.write(" AS ")
		f.write(s.From.Alias)
	}
	if s.Where != nil {
		f.writeKeyword(" WHERE ")
		f.Format(s.Where)
	}
	if len(s.GroupBy) > 0 {
		f.writeKeyword(" GROUP BY ")
		for i, g := range s.GroupBy {
			if i > 0 {
				f.write(", ")
			}
			f.write(g.Name)
		}
	}
	if s.Having != nil {
		f.writeKeyword(" HAVING ")
		f.Format(s.Having)
	}
}

func (f *Formatter) formatInsert(s *ast.InsertStmt) {
	f.writeKeyword("INSERT INTO ")
	f.write(s.Table)
	if len(s.Columns) > 0 {
		f.write(" (")
		for i, c := range s.Columns {
			if i > 0 {
				f.write(", ")
			}
			f.write(c)
		}
		f.write(")")
	}
	f.writeKeyword(" VALUES ")
	for i, row := range s.Rows {
		if i > 0 {
			f.write(", ")
		}
		f.write("(")
		for j, e := range row {
			if j > 0 {
				f.write(", ")
			}
			f.Format(e)
		}
		f.write(")")
	}
}

func (f *Formatter) formatUpdate(s *ast.UpdateStmt) {
	f.writeKeyword("UPDATE ")
	f.write(s.Table)
	f.writeKeyword(" SET ")
	for i, a := range s.Set {
		if i > 0 {
			f.write(", ")
		}
		f.write(a.Column)
		f.write(" = ")
		f.Format(a.Value)
	}
	if s.Where != nil {
		f.writeKeyword(" WHERE ")
		f.Format(s.Where)
	}
}

func (f *Formatter) formatDelete(s *ast.DeleteStmt) {
	f.writeKeyword("DELETE FROM ")
	f.write(s.Table)
	if s.Where != nil {
		f.writeKeyword(" WHERE ")
		f.Format(s.Where)
	}
}

func (f *Formatter) formatCreateTable(s *ast.CreateTableStmt) {
	f.writeKeyword("CREATE TABLE ")
	f.write(s.Table)
	f.write(" (")
	for i, c := range s.Columns {
		if i > 0 {
			f.write(", ")
		}
		f.write(c.Name)
		f.write(" ")
		f.write(c.Type)
		if c.IsPrimaryKey {
			f.writeKeyword(" PRIMARY KEY")
		}
	}
	f.write(")")
}

func (f *Formatter) formatDropTable(s *ast.DropTableStmt) {
	f.writeKeyword("DROP TABLE ")
	f.write(s.Table)
}

func (f *Formatter) formatLiteral(l *ast.Literal) {
	switch l.Kind {
	case ast.LiteralNumber:
		f.write(l.Value)
	case ast.LiteralString:
		// A quote inside the value is written as \' so the lexer reads it
		// back as part of the string.
		f.write("'")
		f.write(strings.ReplaceAll(l.Value, "'", `\'`))
		f.write("'")
	}
}

func (f *Formatter) formatBinary(b *ast.BinaryExpr) {
	f.Format(b.Left)
	f.write(" ")
	f.write(b.Op.String())
	f.write(" ")
	f.Format(b.Right)
}

var aggName = map[ast.AggFunc]string{
	ast.AggCount: "COUNT",
	ast.AggSum:   "SUM",
	ast.AggAvg:   "AVG",
	ast.AggMin:   "MIN",
	ast.AggMax:   "MAX",
}

func (f *Formatter) formatAggregate(a *ast.Aggregate) {
	f.writeKeyword(aggName[a.Func])
	f.write("(")
	if a.Star {
		f.write("*")
	} else {
		f.Format(a.Arg)
	}
	f.write(")")
}
