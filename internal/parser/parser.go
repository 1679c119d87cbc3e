// Package parser implements quill's recursive descent SQL parser (spec
// §4.5): SELECT, INSERT, UPDATE, DELETE, CREATE TABLE, and DROP TABLE over
// the OrExpr/AndExpr/CmpExpr/AddExpr/MulExpr/Primary precedence chain.
package parser

import (
	"fmt"

	"github.com/quilldb/quill/internal/ast"
	"github.com/quilldb/quill/internal/engineerrors"
	"github.com/quilldb/quill/internal/lexer"
	"github.com/quilldb/quill/internal/token"
)

// Parser is a recursive descent parser over a single statement's tokens.
type Parser struct {
	lexer *lexer.Lexer
	cur   token.Item
	err   error // first error encountered; once set, parsing unwinds
}

// New creates a parser for input.
func New(input string) *Parser {
	p := &Parser{lexer: lexer.New(input)}
	p.advance()
	return p
}

// Parse parses exactly one statement, requiring the remaining input (after
// an optional trailing ';') to be empty.
func Parse(input string) (ast.Statement, error) {
	p := New(input)
	stmt := p.parseStatement()
	if p.err != nil {
		return nil, p.err
	}
	for p.curIs(token.SEMICOLON) {
		p.advance()
	}
	if !p.curIs(token.EOF) {
		p.errorf("unexpected token %s after statement", p.cur.Type)
		return nil, p.err
	}
	return stmt, nil
}

func (p *Parser) advance() {
	if p.err != nil {
		return
	}
	item, err := p.lexer.Next()
	if err != nil {
		p.err = err
		p.cur = token.Item{Type: token.EOF}
		return
	}
	p.cur = item
}

func (p *Parser) curIs(t token.Token) bool { return p.cur.Type == t }

func (p *Parser) peekIs(t token.Token) bool {
	item, err := p.lexer.Peek()
	if err != nil {
		return false
	}
	return item.Type == t
}

func (p *Parser) expect(t token.Token) bool {
	if p.curIs(t) {
		p.advance()
		return true
	}
	p.errorf("expected %s, got %s", t, p.cur.Type)
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	p.err = engineerrors.SyntaxError.New(p.cur.Pos.Line, p.cur.Pos.Column, msg)
}

// expectIdent returns the current token's text if it is an identifier, else
// records a syntax error. Keywords are not accepted as identifiers.
func (p *Parser) expectIdent() string {
	if p.cur.Type != token.IDENT {
		p.errorf("expected identifier, got %s", p.cur.Type)
		return ""
	}
	v := p.cur.Value
	p.advance()
	return v
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.SELECT:
		return p.parseSelect()
	case token.INSERT:
		return p.parseInsert()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	case token.CREATE:
		return p.parseCreateTable()
	case token.DROP:
		return p.parseDropTable()
	default:
		p.errorf("unexpected token %s at start of statement", p.cur.Type)
		return nil
	}
}

// ---- SELECT ----

func (p *Parser) parseSelect() *ast.SelectStmt {
	stmt := &ast.SelectStmt{StartPos: p.cur.Pos}
	p.advance() // SELECT

	stmt.Columns = p.parseSelectList()
	if p.err != nil {
		return stmt
	}

	if !p.expect(token.FROM) {
		return stmt
	}
	stmt.From = p.parseTableRef()
	if p.err != nil {
		return stmt
	}

	if p.curIs(token.WHERE) {
		p.advance()
		stmt.Where = p.parseOrExpr()
		if p.err != nil {
			return stmt
		}
	}

	if p.curIs(token.GROUP) {
		p.advance()
		if !p.expect(token.BY) {
			return stmt
		}
		for {
			id := &ast.Identifier{StartPos: p.cur.Pos, Name: p.expectIdent()}
			if p.err != nil {
				return stmt
			}
			stmt.GroupBy = append(stmt.GroupBy, id)
			if !p.curIs(token.COMMA) {
				break
			}
			p.advance()
		}
	}

	if p.curIs(token.HAVING) {
		if len(stmt.GroupBy) == 0 {
			p.errorf("HAVING requires a GROUP BY clause")
			return stmt
		}
		p.advance()
		stmt.Having = p.parseOrExpr()
	}
	return stmt
}

func (p *Parser) parseSelectList() []ast.SelectItem {
	var items []ast.SelectItem
	for {
		item := p.parseSelectItem()
		if p.err != nil {
			return items
		}
		items = append(items, item)
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	return items
}

func (p *Parser) parseSelectItem() ast.SelectItem {
	pos := p.cur.Pos
	if p.curIs(token.ASTERISK) {
		p.advance()
		return &ast.Star{StartPos: pos}
	}

	var item ast.SelectItem
	if p.cur.Type.IsAggregate() {
		item = p.parseAggregate()
	} else {
		item = &ast.ExprItem{StartPos: pos, Expr: p.parseOrExpr()}
	}
	if p.err != nil {
		return item
	}

	if p.curIs(token.AS) {
		p.advance()
		name := p.expectIdent()
		if p.err != nil {
			return item
		}
		return &ast.Alias{StartPos: pos, Expr: item, As: name}
	}
	// A bare identifier following a select item with no AS keyword is
	// also treated as an alias (spec §4.5: "AS is optional").
	if p.curIs(token.IDENT) {
		name := p.cur.Value
		p.advance()
		return &ast.Alias{StartPos: pos, Expr: item, As: name}
	}
	return item
}

func (p *Parser) parseAggregate() *ast.Aggregate {
	pos := p.cur.Pos
	var fn ast.AggFunc
	switch p.cur.Type {
	case token.COUNT:
		fn = ast.AggCount
	case token.SUM:
		fn = ast.AggSum
	case token.AVG:
		fn = ast.AggAvg
	case token.MIN:
		fn = ast.AggMin
	case token.MAX:
		fn = ast.AggMax
	}
	p.advance()
	if !p.expect(token.LPAREN) {
		return &ast.Aggregate{StartPos: pos, Func: fn}
	}
	agg := &ast.Aggregate{StartPos: pos, Func: fn}
	if fn == ast.AggCount && p.curIs(token.ASTERISK) {
		p.advance()
		agg.Star = true
	} else {
		agg.Arg = p.parseOrExpr()
	}
	p.expect(token.RPAREN)
	return agg
}

func (p *Parser) parseTableRef() *ast.TableRef {
	pos := p.cur.Pos
	name := p.expectIdent()
	ref := &ast.TableRef{StartPos: pos, Name: name}
	if p.curIs(token.AS) {
		p.advance()
		ref.Alias = p.expectIdent()
	} else if p.curIs(token.IDENT) {
		ref.Alias = p.cur.Value
		p.advance()
	}
	return ref
}

// ---- INSERT ----

func (p *Parser) parseInsert() *ast.InsertStmt {
	stmt := &ast.InsertStmt{StartPos: p.cur.Pos}
	p.advance() // INSERT
	if !p.expect(token.INTO) {
		return stmt
	}
	stmt.Table = p.expectIdent()
	if p.err != nil {
		return stmt
	}

	if p.curIs(token.LPAREN) {
		p.advance()
		for {
			stmt.Columns = append(stmt.Columns, p.expectIdent())
			if p.err != nil {
				return stmt
			}
			if !p.curIs(token.COMMA) {
				break
			}
			p.advance()
		}
		p.expect(token.RPAREN)
	}

	if !p.expect(token.VALUES) {
		return stmt
	}
	for {
		row := p.parseValueTuple()
		if p.err != nil {
			return stmt
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	return stmt
}

func (p *Parser) parseValueTuple() []ast.Expr {
	if !p.expect(token.LPAREN) {
		return nil
	}
	var row []ast.Expr
	for {
		row = append(row, p.parseOrExpr())
		if p.err != nil {
			return row
		}
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	return row
}

// ---- UPDATE ----

func (p *Parser) parseUpdate() *ast.UpdateStmt {
	stmt := &ast.UpdateStmt{StartPos: p.cur.Pos}
	p.advance() // UPDATE
	stmt.Table = p.expectIdent()
	if p.err != nil {
		return stmt
	}
	if !p.expect(token.SET) {
		return stmt
	}
	for {
		col := p.expectIdent()
		if p.err != nil {
			return stmt
		}
		if !p.expect(token.EQ) {
			return stmt
		}
		val := p.parseOrExpr()
		if p.err != nil {
			return stmt
		}
		stmt.Set = append(stmt.Set, &ast.Assignment{Column: col, Value: val})
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	if p.curIs(token.WHERE) {
		p.advance()
		stmt.Where = p.parseOrExpr()
	}
	return stmt
}

// ---- DELETE ----

func (p *Parser) parseDelete() *ast.DeleteStmt {
	stmt := &ast.DeleteStmt{StartPos: p.cur.Pos}
	p.advance() // DELETE
	if !p.expect(token.FROM) {
		return stmt
	}
	stmt.Table = p.expectIdent()
	if p.err != nil {
		return stmt
	}
	if p.curIs(token.WHERE) {
		p.advance()
		stmt.Where = p.parseOrExpr()
	}
	return stmt
}

// ---- CREATE TABLE / DROP TABLE ----

func (p *Parser) parseCreateTable() *ast.CreateTableStmt {
	stmt := &ast.CreateTableStmt{StartPos: p.cur.Pos}
	p.advance() // CREATE
	if !p.expect(token.TABLE) {
		return stmt
	}
	stmt.Table = p.expectIdent()
	if p.err != nil {
		return stmt
	}
	if !p.expect(token.LPAREN) {
		return stmt
	}
	for {
		col := p.parseColumnDef()
		if p.err != nil {
			return stmt
		}
		stmt.Columns = append(stmt.Columns, col)
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	p.expect(token.RPAREN)
	return stmt
}

func (p *Parser) parseColumnDef() *ast.ColumnDef {
	name := p.expectIdent()
	if p.err != nil {
		return nil
	}
	typ := p.parseTypeName()
	if p.err != nil {
		return nil
	}
	col := &ast.ColumnDef{Name: name, Type: typ}
	if p.curIs(token.PRIMARY) {
		p.advance()
		if !p.expect(token.KEY) {
			return col
		}
		col.IsPrimaryKey = true
	}
	return col
}

func (p *Parser) parseTypeName() string {
	switch p.cur.Type {
	case token.INT, token.VARCHAR, token.TEXT, token.DECIMAL, token.BOOLEAN, token.DATETIME, token.DATE:
		name := p.cur.Type.String()
		p.advance()
		return name
	default:
		p.errorf("expected a column type, got %s", p.cur.Type)
		return ""
	}
}

func (p *Parser) parseDropTable() *ast.DropTableStmt {
	stmt := &ast.DropTableStmt{StartPos: p.cur.Pos}
	p.advance() // DROP
	if !p.expect(token.TABLE) {
		return stmt
	}
	stmt.Table = p.expectIdent()
	return stmt
}

// ---- expressions: Or < And < Cmp < Add < Mul < Primary ----

func (p *Parser) parseOrExpr() ast.Expr {
	left := p.parseAndExpr()
	for p.curIs(token.OR) && p.err == nil {
		pos := p.cur.Pos
		p.advance()
		right := p.parseAndExpr()
		left = &ast.BinaryExpr{StartPos: pos, Op: token.OR, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAndExpr() ast.Expr {
	left := p.parseCmpExpr()
	for p.curIs(token.AND) && p.err == nil {
		pos := p.cur.Pos
		p.advance()
		right := p.parseCmpExpr()
		left = &ast.BinaryExpr{StartPos: pos, Op: token.AND, Left: left, Right: right}
	}
	return left
}

func isCmpOp(t token.Token) bool {
	switch t {
	case token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE, token.LIKE:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCmpExpr() ast.Expr {
	left := p.parseAddExpr()
	if isCmpOp(p.cur.Type) && p.err == nil {
		op := p.cur.Type
		pos := p.cur.Pos
		p.advance()
		right := p.parseAddExpr()
		return &ast.BinaryExpr{StartPos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func isAddOp(t token.Token) bool { return t == token.PLUS || t == token.MINUS }

func (p *Parser) parseAddExpr() ast.Expr {
	left := p.parseMulExpr()
	for isAddOp(p.cur.Type) && p.err == nil {
		op := p.cur.Type
		pos := p.cur.Pos
		p.advance()
		right := p.parseMulExpr()
		left = &ast.BinaryExpr{StartPos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func isMulOp(t token.Token) bool {
	return t == token.ASTERISK || t == token.SLASH || t == token.PERCENT
}

func (p *Parser) parseMulExpr() ast.Expr {
	left := p.parsePrimary()
	for isMulOp(p.cur.Type) && p.err == nil {
		op := p.cur.Type
		pos := p.cur.Pos
		p.advance()
		right := p.parsePrimary()
		left = &ast.BinaryExpr{StartPos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.cur.Pos
	if p.cur.Type.IsAggregate() {
		// An aggregate call only evaluates in a per-group context: HAVING,
		// or a select-list expression of an aggregate query (evalGroupExpr).
		// Anywhere else the evaluator rejects it (evalExpr's Aggregate
		// case).
		return p.parseAggregate()
	}
	switch p.cur.Type {
	case token.NUMBER:
		lit := &ast.Literal{StartPos: pos, Kind: ast.LiteralNumber, Value: p.cur.Value}
		p.advance()
		return lit
	case token.STRING:
		lit := &ast.Literal{StartPos: pos, Kind: ast.LiteralString, Value: p.cur.Value}
		p.advance()
		return lit
	case token.LPAREN:
		p.advance()
		inner := p.parseOrExpr()
		p.expect(token.RPAREN)
		return &ast.ParenExpr{StartPos: pos, Inner: inner}
	case token.IDENT:
		id := &ast.Identifier{StartPos: pos, Name: p.cur.Value}
		p.advance()
		return id
	default:
		p.errorf("unexpected token %s in expression", p.cur.Type)
		return &ast.Literal{StartPos: pos, Kind: ast.LiteralNumber, Value: "0"}
	}
}
