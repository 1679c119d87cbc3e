// Package eval implements the tree-walking evaluator (spec §4.6): it
// dispatches on the root AST node, reads and mutates the catalog, and
// returns a Result tagged as DDL (CREATE/DROP), a row count
// (UPDATE/DELETE), or a row set (INSERT/SELECT).
package eval

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quilldb/quill/internal/ast"
	"github.com/quilldb/quill/internal/catalog"
	"github.com/quilldb/quill/internal/engineerrors"
	"github.com/quilldb/quill/internal/token"
	"github.com/quilldb/quill/internal/value"
)

// Kind tags the shape of a Result.
type Kind int

const (
	KindDDL Kind = iota
	KindCount
	KindRows
)

// Result is the evaluator's output: exactly one of its fields is
// meaningful, selected by Kind.
type Result struct {
	Kind    Kind
	Count   int
	Columns []string
	Rows    []OutputRow
}

// OutputRow is a single projected result row: a mapping from display-cased
// output column name to value. Column order is given by Result.Columns.
type OutputRow map[string]value.Value

// Eval dispatches stmt against db.
func Eval(db *catalog.Database, stmt ast.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return evalSelect(db, s)
	case *ast.InsertStmt:
		return evalInsert(db, s)
	case *ast.UpdateStmt:
		return evalUpdate(db, s)
	case *ast.DeleteStmt:
		return evalDelete(db, s)
	case *ast.CreateTableStmt:
		return evalCreateTable(db, s)
	case *ast.DropTableStmt:
		return evalDropTable(db, s)
	default:
		return nil, engineerrors.InvalidArgument.New("unknown statement type")
	}
}

// ---- CREATE / DROP ----

func evalCreateTable(db *catalog.Database, s *ast.CreateTableStmt) (*Result, error) {
	columns := make([]*catalog.Column, len(s.Columns))
	for i, c := range s.Columns {
		columns[i] = &catalog.Column{
			Name:         c.Name,
			Type:         c.Type,
			IsPrimaryKey: c.IsPrimaryKey,
			IsNullable:   !c.IsPrimaryKey,
		}
	}
	if _, err := db.CreateTable(s.Table, columns); err != nil {
		return nil, err
	}
	return &Result{Kind: KindDDL}, nil
}

func evalDropTable(db *catalog.Database, s *ast.DropTableStmt) (*Result, error) {
	if err := db.DropTable(s.Table); err != nil {
		return nil, err
	}
	return &Result{Kind: KindDDL}, nil
}

// ---- INSERT ----

func evalInsert(db *catalog.Database, s *ast.InsertStmt) (*Result, error) {
	table, err := db.GetTable(s.Table)
	if err != nil {
		return nil, err
	}

	columns := s.Columns
	if len(columns) == 0 {
		columns = make([]string, len(table.Columns))
		for i, c := range table.Columns {
			columns[i] = c.Name
		}
	}

	pk := table.PrimaryKey()
	inserted := make([]OutputRow, 0, len(s.Rows))
	for _, tuple := range s.Rows {
		if len(tuple) != len(columns) {
			return nil, engineerrors.ArityError.New(len(columns), len(tuple))
		}
		partial := make(catalog.Row, len(tuple))
		for i, expr := range tuple {
			v, err := evalExpr(expr, nil)
			if err != nil {
				return nil, err
			}
			col, ok := table.Column(columns[i])
			if !ok {
				return nil, engineerrors.ColumnNotFound.New(columns[i])
			}
			coerced, err := table.Coerce(col, v)
			if err != nil {
				return nil, err
			}
			partial.Set(col.Name, coerced)
		}
		row := table.RowWithDefaults(partial)
		keyVal, _ := row.Get(pk.Name)
		if keyVal.IsNull() {
			return nil, engineerrors.NullViolation.New(pk.Name)
		}
		if err := table.Store().Insert(keyVal.CanonicalString(), row); err != nil {
			return nil, err
		}
		inserted = append(inserted, rowToOutput(row, table))
	}

	return &Result{Kind: KindRows, Columns: columnNames(table), Rows: inserted}, nil
}

// ---- UPDATE ----

func evalUpdate(db *catalog.Database, s *ast.UpdateStmt) (*Result, error) {
	table, err := db.GetTable(s.Table)
	if err != nil {
		return nil, err
	}
	pk := table.PrimaryKey()

	// Snapshot before mutation: the tree is not safe to mutate while its
	// leaf chain is being walked (spec §4.6, §9).
	snapshot := make([]catalog.Row, 0, table.Store().Len())
	for _, row := range table.Store().All() {
		snapshot = append(snapshot, row)
	}

	count := 0
	for _, row := range snapshot {
		if s.Where != nil {
			truthy, err := evalTruthy(s.Where, row)
			if err != nil {
				return nil, err
			}
			if !truthy {
				continue
			}
		}
		updated := row.Clone()
		for _, a := range s.Set {
			v, err := evalExpr(a.Value, row)
			if err != nil {
				return nil, err
			}
			col, ok := table.Column(a.Column)
			if !ok {
				return nil, engineerrors.ColumnNotFound.New(a.Column)
			}
			coerced, err := table.Coerce(col, v)
			if err != nil {
				return nil, err
			}
			updated.Set(col.Name, coerced)
		}
		oldKey, _ := row.Get(pk.Name)
		newKey, _ := updated.Get(pk.Name)
		if newKey.IsNull() {
			return nil, engineerrors.NullViolation.New(pk.Name)
		}
		if !value.Equal(oldKey, newKey) {
			if err := table.Store().Remove(oldKey.CanonicalString()); err != nil {
				return nil, err
			}
		}
		if err := table.Store().Insert(newKey.CanonicalString(), updated); err != nil {
			return nil, err
		}
		count++
	}
	return &Result{Kind: KindCount, Count: count}, nil
}

// ---- DELETE ----

func evalDelete(db *catalog.Database, s *ast.DeleteStmt) (*Result, error) {
	table, err := db.GetTable(s.Table)
	if err != nil {
		return nil, err
	}
	pk := table.PrimaryKey()

	snapshot := make([]catalog.Row, 0, table.Store().Len())
	for _, row := range table.Store().All() {
		snapshot = append(snapshot, row)
	}

	count := 0
	for _, row := range snapshot {
		if s.Where != nil {
			truthy, err := evalTruthy(s.Where, row)
			if err != nil {
				return nil, err
			}
			if !truthy {
				continue
			}
		}
		keyVal, _ := row.Get(pk.Name)
		if err := table.Store().Remove(keyVal.CanonicalString()); err != nil {
			return nil, err
		}
		count++
	}
	return &Result{Kind: KindCount, Count: count}, nil
}

// ---- SELECT ----

func evalSelect(db *catalog.Database, s *ast.SelectStmt) (*Result, error) {
	table, err := db.GetTable(s.From.Name)
	if err != nil {
		return nil, err
	}

	var rows []catalog.Row
	for _, row := range table.Store().All() {
		rows = append(rows, row)
	}

	if s.Where != nil {
		filtered := rows[:0:0]
		for _, row := range rows {
			truthy, err := evalTruthy(s.Where, row)
			if err != nil {
				return nil, err
			}
			if truthy {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	hasAgg := false
	for _, item := range s.Columns {
		if containsAggregate(item) {
			hasAgg = true
			break
		}
	}

	if hasAgg || len(s.GroupBy) > 0 {
		return evalAggregateSelect(s, table, rows)
	}
	return evalProjection(s, table, rows)
}

func evalProjection(s *ast.SelectStmt, table *catalog.Table, rows []catalog.Row) (*Result, error) {
	var columns []string
	outRows := make([]OutputRow, 0, len(rows))
	for _, row := range rows {
		out := make(OutputRow)
		var cols []string
		for _, item := range s.Columns {
			names, err := projectItem(item, row, table, out)
			if err != nil {
				return nil, err
			}
			cols = append(cols, names...)
		}
		if columns == nil {
			columns = cols
		}
		outRows = append(outRows, out)
	}
	if columns == nil {
		// No matching rows: still resolve the column header shape.
		for _, item := range s.Columns {
			names, err := projectItemHeader(item, table)
			if err != nil {
				return nil, err
			}
			columns = append(columns, names...)
		}
	}
	return &Result{Kind: KindRows, Columns: columns, Rows: outRows}, nil
}

// projectItem evaluates item against row, writing into out and returning
// the output column name(s) it contributed (more than one only for '*').
func projectItem(item ast.SelectItem, row catalog.Row, table *catalog.Table, out OutputRow) ([]string, error) {
	switch it := item.(type) {
	case *ast.Star:
		var names []string
		for _, c := range table.Columns {
			v, _ := row.Get(c.Name)
			out[c.Name] = v
			names = append(names, c.Name)
		}
		return names, nil
	case *ast.Alias:
		v, err := evalAliasedValue(it.Expr, row, table)
		if err != nil {
			return nil, err
		}
		out[it.As] = v
		return []string{it.As}, nil
	case *ast.ExprItem:
		v, err := evalExpr(it.Expr, row)
		if err != nil {
			return nil, err
		}
		name := exprOutputName(it.Expr, table)
		out[name] = v
		return []string{name}, nil
	default:
		return nil, engineerrors.InvalidArgument.New("unsupported select item")
	}
}

func evalAliasedValue(inner ast.SelectItem, row catalog.Row, table *catalog.Table) (value.Value, error) {
	switch it := inner.(type) {
	case *ast.ExprItem:
		return evalExpr(it.Expr, row)
	case *ast.Aggregate:
		return evalAggregate(it, []catalog.Row{row})
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unsupported aliased select item")
	}
}

func exprOutputName(expr ast.Expr, table *catalog.Table) string {
	if id, ok := expr.(*ast.Identifier); ok {
		if c, ok := table.Column(id.Name); ok {
			return c.Name
		}
		return id.Name
	}
	return formatExprName(expr)
}

// projectItemHeader resolves only the column name(s) an item contributes,
// for the zero-row case where no row exists to project a value from.
func projectItemHeader(item ast.SelectItem, table *catalog.Table) ([]string, error) {
	switch it := item.(type) {
	case *ast.Star:
		var names []string
		for _, c := range table.Columns {
			names = append(names, c.Name)
		}
		return names, nil
	case *ast.Alias:
		return []string{it.As}, nil
	case *ast.ExprItem:
		return []string{exprOutputName(it.Expr, table)}, nil
	default:
		return nil, engineerrors.InvalidArgument.New("unsupported select item")
	}
}

func formatExprName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.Literal:
		return e.Value
	default:
		return "expr"
	}
}

// ---- GROUP BY / aggregates ----

func containsAggregate(item ast.SelectItem) bool {
	switch it := item.(type) {
	case *ast.Aggregate:
		return true
	case *ast.Alias:
		return containsAggregate(it.Expr)
	default:
		return false
	}
}

type group struct {
	key  string
	rows []catalog.Row
}

func evalAggregateSelect(s *ast.SelectStmt, table *catalog.Table, rows []catalog.Row) (*Result, error) {
	var groups []*group
	index := make(map[string]*group)

	if len(s.GroupBy) == 0 {
		groups = []*group{{key: "", rows: rows}}
	} else {
		for _, row := range rows {
			key, err := groupKey(s.GroupBy, row)
			if err != nil {
				return nil, err
			}
			g, ok := index[key]
			if !ok {
				g = &group{key: key}
				index[key] = g
				groups = append(groups, g)
			}
			g.rows = append(g.rows, row)
		}
	}

	var columns []string
	outRows := make([]OutputRow, 0, len(groups))
	for _, g := range groups {
		out := make(OutputRow)
		var cols []string
		for _, item := range s.Columns {
			names, err := projectGroupItem(item, g.rows, table, out)
			if err != nil {
				return nil, err
			}
			cols = append(cols, names...)
		}
		if columns == nil {
			columns = cols
		}
		if s.Having != nil {
			truthy, err := evalGroupTruthy(s.Having, g.rows)
			if err != nil {
				return nil, err
			}
			if !truthy {
				continue
			}
		}
		outRows = append(outRows, out)
	}
	return &Result{Kind: KindRows, Columns: columns, Rows: outRows}, nil
}

func groupKey(cols []*ast.Identifier, row catalog.Row) (string, error) {
	parts := make([]string, len(cols))
	for i, id := range cols {
		v, ok := row.Get(id.Name)
		if !ok {
			return "", engineerrors.ColumnNotFound.New(id.Name)
		}
		parts[i] = v.CanonicalString()
	}
	return strings.Join(parts, ":"), nil
}

func projectGroupItem(item ast.SelectItem, rows []catalog.Row, table *catalog.Table, out OutputRow) ([]string, error) {
	switch it := item.(type) {
	case *ast.Star:
		var names []string
		var rep catalog.Row
		if len(rows) > 0 {
			rep = rows[0]
		}
		for _, c := range table.Columns {
			var v value.Value
			if rep != nil {
				v, _ = rep.Get(c.Name)
			} else {
				v = value.Null
			}
			out[c.Name] = v
			names = append(names, c.Name)
		}
		return names, nil
	case *ast.Alias:
		v, err := evalGroupSelectItem(it.Expr, rows)
		if err != nil {
			return nil, err
		}
		out[it.As] = v
		return []string{it.As}, nil
	case *ast.Aggregate:
		v, err := evalAggregate(it, rows)
		if err != nil {
			return nil, err
		}
		name := aggregateName(it)
		out[name] = v
		return []string{name}, nil
	case *ast.ExprItem:
		v, err := evalGroupExpr(it.Expr, rows)
		if err != nil {
			return nil, err
		}
		name := exprOutputName(it.Expr, table)
		out[name] = v
		return []string{name}, nil
	default:
		return nil, engineerrors.InvalidArgument.New("unsupported select item")
	}
}

func evalGroupSelectItem(item ast.SelectItem, rows []catalog.Row) (value.Value, error) {
	switch it := item.(type) {
	case *ast.Aggregate:
		return evalAggregate(it, rows)
	case *ast.ExprItem:
		return evalGroupExpr(it.Expr, rows)
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unsupported aliased select item")
	}
}

var aggFuncName = map[ast.AggFunc]string{
	ast.AggCount: "COUNT",
	ast.AggSum:   "SUM",
	ast.AggAvg:   "AVG",
	ast.AggMin:   "MIN",
	ast.AggMax:   "MAX",
}

func aggregateName(a *ast.Aggregate) string {
	if a.Star {
		return aggFuncName[a.Func] + "(*)"
	}
	return aggFuncName[a.Func] + "(" + formatExprName(a.Arg) + ")"
}

func evalAggregate(a *ast.Aggregate, rows []catalog.Row) (value.Value, error) {
	if a.Func == ast.AggCount {
		if a.Star {
			return value.Int(int64(len(rows))), nil
		}
		n := 0
		for _, row := range rows {
			v, err := evalExpr(a.Arg, row)
			if err != nil {
				return value.Value{}, err
			}
			if !v.IsNull() {
				n++
			}
		}
		return value.Int(int64(n)), nil
	}

	if len(rows) == 0 {
		return value.Null, nil
	}

	switch a.Func {
	case ast.AggSum, ast.AggAvg:
		sum := decimal.Zero
		count := 0
		for _, row := range rows {
			v, err := evalExpr(a.Arg, row)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			d, err := toDecimal(v)
			if err != nil {
				return value.Value{}, err
			}
			sum = sum.Add(d)
			count++
		}
		if count == 0 {
			return value.Null, nil
		}
		if a.Func == ast.AggSum {
			return value.Decimal(sum), nil
		}
		return value.Decimal(sum.Div(decimal.NewFromInt(int64(count)))), nil
	case ast.AggMin, ast.AggMax:
		var best value.Value
		found := false
		for _, row := range rows {
			v, err := evalExpr(a.Arg, row)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			if !found {
				best = v
				found = true
				continue
			}
			cmp := value.Compare(v, best)
			if (a.Func == ast.AggMin && cmp < 0) || (a.Func == ast.AggMax && cmp > 0) {
				best = v
			}
		}
		if !found {
			return value.Null, nil
		}
		return best, nil
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unknown aggregate function")
	}
}

func toDecimal(v value.Value) (decimal.Decimal, error) {
	switch v.Kind() {
	case value.KindDecimal:
		return v.DecimalValue(), nil
	case value.KindInt:
		return decimal.NewFromInt(v.IntValue()), nil
	default:
		parsed, err := value.ParseDecimal(v.CanonicalString())
		if err != nil {
			return decimal.Zero, err
		}
		return parsed.DecimalValue(), nil
	}
}

// ---- shared expression evaluation ----

// evalExpr evaluates expr against a single row (WHERE, SET, INSERT
// VALUES). row may be nil when evaluating a literal-only INSERT value.
func evalExpr(expr ast.Expr, row catalog.Row) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return evalLiteral(e)
	case *ast.Identifier:
		if row == nil {
			return value.Value{}, engineerrors.ColumnNotFound.New(e.Name)
		}
		v, ok := row.Get(e.Name)
		if !ok {
			return value.Value{}, engineerrors.ColumnNotFound.New(e.Name)
		}
		return v, nil
	case *ast.ParenExpr:
		return evalExpr(e.Inner, row)
	case *ast.BinaryExpr:
		return evalBinary(e, row)
	case *ast.Aggregate:
		return value.Value{}, engineerrors.InvalidArgument.New("aggregate function not allowed here")
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unsupported expression")
	}
}

func evalLiteral(l *ast.Literal) (value.Value, error) {
	switch l.Kind {
	case ast.LiteralString:
		return value.String(l.Value), nil
	case ast.LiteralNumber:
		if strings.Contains(l.Value, ".") {
			return value.ParseDecimal(l.Value)
		}
		return value.ParseInt32(l.Value)
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unknown literal kind")
	}
}

func evalBinary(e *ast.BinaryExpr, row catalog.Row) (value.Value, error) {
	switch e.Op {
	case token.AND:
		left, err := evalTruthy(e.Left, row)
		if err != nil {
			return value.Value{}, err
		}
		if !left {
			return value.Bool(false), nil
		}
		right, err := evalTruthy(e.Right, row)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right), nil
	case token.OR:
		left, err := evalTruthy(e.Left, row)
		if err != nil {
			return value.Value{}, err
		}
		if left {
			return value.Bool(true), nil
		}
		right, err := evalTruthy(e.Right, row)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right), nil
	}

	left, err := evalExpr(e.Left, row)
	if err != nil {
		return value.Value{}, err
	}
	right, err := evalExpr(e.Right, row)
	if err != nil {
		return value.Value{}, err
	}
	return applyOp(e.Op, left, right)
}

func applyOp(op token.Token, left, right value.Value) (value.Value, error) {
	switch op {
	case token.PLUS:
		return value.Add(left, right)
	case token.MINUS:
		return value.Sub(left, right)
	case token.ASTERISK:
		return value.Mul(left, right)
	case token.SLASH:
		return value.Div(left, right)
	case token.PERCENT:
		return value.Mod(left, right)
	case token.EQ:
		return value.Bool(value.Equal(left, right)), nil
	case token.NEQ:
		return value.Bool(!value.Equal(left, right)), nil
	case token.LT:
		return value.Bool(value.Compare(left, right) < 0), nil
	case token.LTE:
		return value.Bool(value.Compare(left, right) <= 0), nil
	case token.GT:
		return value.Bool(value.Compare(left, right) > 0), nil
	case token.GTE:
		return value.Bool(value.Compare(left, right) >= 0), nil
	case token.LIKE:
		return value.Bool(value.Like(left.CanonicalString(), right.CanonicalString())), nil
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unsupported operator")
	}
}

// evalTruthy evaluates expr against row and reports its truthiness (spec
// §4.6: "a bare identifier in boolean position is truthy iff non-null").
func evalTruthy(expr ast.Expr, row catalog.Row) (bool, error) {
	v, err := evalExpr(expr, row)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// evalGroupExpr evaluates expr in a per-group context (HAVING, or an
// aggregate query's non-aggregate select items): identifiers resolve
// against the group's representative row, aggregates compute over the
// whole group, and AND/OR/comparison/arithmetic recurse the same way.
func evalGroupExpr(expr ast.Expr, rows []catalog.Row) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Aggregate:
		return evalAggregate(e, rows)
	case *ast.Identifier:
		if len(rows) == 0 {
			return value.Null, nil
		}
		v, ok := rows[0].Get(e.Name)
		if !ok {
			return value.Value{}, engineerrors.ColumnNotFound.New(e.Name)
		}
		return v, nil
	case *ast.Literal:
		return evalLiteral(e)
	case *ast.ParenExpr:
		return evalGroupExpr(e.Inner, rows)
	case *ast.BinaryExpr:
		return evalGroupBinary(e, rows)
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unsupported expression")
	}
}

func evalGroupBinary(e *ast.BinaryExpr, rows []catalog.Row) (value.Value, error) {
	switch e.Op {
	case token.AND:
		left, err := evalGroupTruthy(e.Left, rows)
		if err != nil {
			return value.Value{}, err
		}
		if !left {
			return value.Bool(false), nil
		}
		right, err := evalGroupTruthy(e.Right, rows)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right), nil
	case token.OR:
		left, err := evalGroupTruthy(e.Left, rows)
		if err != nil {
			return value.Value{}, err
		}
		if left {
			return value.Bool(true), nil
		}
		right, err := evalGroupTruthy(e.Right, rows)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right), nil
	}
	left, err := evalGroupExpr(e.Left, rows)
	if err != nil {
		return value.Value{}, err
	}
	right, err := evalGroupExpr(e.Right, rows)
	if err != nil {
		return value.Value{}, err
	}
	return applyOp(e.Op, left, right)
}

func evalGroupTruthy(expr ast.Expr, rows []catalog.Row) (bool, error) {
	v, err := evalGroupExpr(expr, rows)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// ---- helpers ----

func columnNames(table *catalog.Table) []string {
	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	return names
}

func rowToOutput(row catalog.Row, table *catalog.Table) OutputRow {
	out := make(OutputRow, len(table.Columns))
	for _, c := range table.Columns {
		v, _ := row.Get(c.Name)
		out[c.Name] = v
	}
	return out
}
