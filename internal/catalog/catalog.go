// Package catalog implements quill's table registry (spec §3, §4.3):
// Column metadata with type validation and coercion, Table invariants, and
// the Database mapping of case-insensitive table names to Tables.
package catalog

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/quilldb/quill/internal/bptree"
	"github.com/quilldb/quill/internal/engineerrors"
	"github.com/quilldb/quill/internal/value"
)

// Column is an immutable column declaration.
type Column struct {
	Name         string
	Type         string // canonical type tag: INT, VARCHAR, TEXT, DECIMAL, BOOLEAN, DATETIME, DATE
	IsPrimaryKey bool
	IsNullable   bool
	Default      *value.Value // nil means "no default"
}

// Row is a case-insensitive column-name → Value mapping. Keys are stored
// lowercased; canonical display casing lives on the owning Table's Columns.
type Row map[string]value.Value

// Get looks up col case-insensitively.
func (r Row) Get(col string) (value.Value, bool) {
	v, ok := r[strings.ToLower(col)]
	return v, ok
}

// Set stores v under col's case-insensitive key.
func (r Row) Set(col string, v value.Value) { r[strings.ToLower(col)] = v }

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a named, ordered set of Columns backed by a B+ tree keyed by
// the primary key column's canonical string form.
type Table struct {
	Name    string
	Columns []*Column
	store   *bptree.Tree[Row]
}

// PrimaryKey returns the table's single primary-key column.
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			return c
		}
	}
	return nil // unreachable once newTable has validated columns
}

// Column looks up a declared column case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// Store returns the table's underlying B+ tree.
func (t *Table) Store() *bptree.Tree[Row] { return t.store }

// newTable validates spec §3's Table invariants and constructs the B+ tree.
func newTable(name string, columns []*Column, order int) (*Table, error) {
	if len(columns) == 0 {
		return nil, engineerrors.InvalidArgument.New("table must declare at least one column")
	}
	seen := make(map[string]bool, len(columns))
	pkCount := 0
	for _, c := range columns {
		if c.Name == "" {
			return nil, engineerrors.InvalidArgument.New("column name must not be empty")
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return nil, engineerrors.InvalidArgument.New("duplicate column name: " + c.Name)
		}
		seen[key] = true
		if c.IsPrimaryKey {
			pkCount++
			c.IsNullable = false
		}
		if c.Default != nil {
			if err := checkDefaultType(c); err != nil {
				return nil, err
			}
		}
	}
	if pkCount != 1 {
		return nil, engineerrors.InvalidArgument.New("table must declare exactly one primary key column")
	}
	tree, err := bptree.New[Row](order)
	if err != nil {
		return nil, err
	}
	return &Table{Name: name, Columns: columns, store: tree}, nil
}

func checkDefaultType(c *Column) error {
	if c.Default.IsNull() {
		return nil
	}
	if typeTagForKind(c.Default.Kind()) != c.Type {
		return engineerrors.InvalidArgument.New("default value for column " + c.Name + " does not match its declared type")
	}
	return nil
}

func typeTagForKind(k value.Kind) string {
	switch k {
	case value.KindInt:
		return "INT"
	case value.KindDecimal:
		return "DECIMAL"
	case value.KindString:
		return "VARCHAR"
	case value.KindBool:
		return "BOOLEAN"
	case value.KindDateTime:
		return "DATETIME"
	case value.KindDate:
		return "DATE"
	default:
		return ""
	}
}

// Coerce converts v to col's declared type using canonical string parsing
// (spec §4.3), rejecting a null against a non-nullable column.
func (t *Table) Coerce(col *Column, v value.Value) (value.Value, error) {
	if v.IsNull() {
		if !col.IsNullable {
			return value.Value{}, engineerrors.NullViolation.New(col.Name)
		}
		return value.Null, nil
	}
	switch col.Type {
	case "INT":
		if v.Kind() == value.KindInt {
			return v, nil
		}
		return value.ParseInt32(v.CanonicalString())
	case "DECIMAL":
		if v.Kind() == value.KindDecimal {
			return v, nil
		}
		return value.ParseDecimal(v.CanonicalString())
	case "VARCHAR", "TEXT":
		return value.String(v.CanonicalString()), nil
	case "BOOLEAN":
		if v.Kind() == value.KindBool {
			return v, nil
		}
		return value.ParseBool(v.CanonicalString())
	case "DATETIME":
		if v.Kind() == value.KindDateTime {
			return v, nil
		}
		return value.ParseDateTime(v.CanonicalString())
	case "DATE":
		if v.Kind() == value.KindDate {
			return v, nil
		}
		return value.ParseDate(v.CanonicalString())
	default:
		return value.Value{}, engineerrors.InvalidArgument.New("unknown column type: " + col.Type)
	}
}

// RowWithDefaults fills any column missing from partial with its default
// (or null, if nullable and no default given), yielding a complete Row.
func (t *Table) RowWithDefaults(partial Row) Row {
	out := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		if v, ok := partial.Get(c.Name); ok {
			out.Set(c.Name, v)
			continue
		}
		if c.Default != nil {
			out.Set(c.Name, *c.Default)
		} else {
			out.Set(c.Name, value.Null)
		}
	}
	return out
}

// Database is quill's catalog: a case-insensitive table-name registry
// that preserves original casing for display (spec §3).
type Database struct {
	tables map[string]*Table // keyed lowercase
	order  int
	log    *logrus.Logger
}

// New constructs an empty Database whose tables use B+ trees of the given
// order (spec §4.1: order >= 3).
func New(order int, log *logrus.Logger) *Database {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Database{tables: make(map[string]*Table), order: order, log: log}
}

// CreateTable registers a new table (spec §4.3).
func (d *Database) CreateTable(name string, columns []*Column) (*Table, error) {
	key := strings.ToLower(name)
	if _, exists := d.tables[key]; exists {
		return nil, engineerrors.TableExists.New(name)
	}
	t, err := newTable(name, columns, d.order)
	if err != nil {
		return nil, err
	}
	d.tables[key] = t
	d.log.WithField("table", name).Debug("catalog: table created")
	return t, nil
}

// GetTable looks up a table case-insensitively.
func (d *Database) GetTable(name string) (*Table, error) {
	t, ok := d.tables[strings.ToLower(name)]
	if !ok {
		return nil, engineerrors.TableNotFound.New(name)
	}
	return t, nil
}

// DropTable removes a table.
func (d *Database) DropTable(name string) error {
	key := strings.ToLower(name)
	if _, ok := d.tables[key]; !ok {
		return engineerrors.TableNotFound.New(name)
	}
	delete(d.tables, key)
	d.log.WithField("table", name).Debug("catalog: table dropped")
	return nil
}

// Tables returns every registered table, in no particular order.
func (d *Database) Tables() []*Table {
	out := make([]*Table, 0, len(d.tables))
	for _, t := range d.tables {
		out = append(out, t)
	}
	return out
}

// ReplaceTable installs t directly, bypassing CreateTable's existence
// check — used only by the codec while rebuilding a Database from disk.
func (d *Database) ReplaceTable(t *Table) {
	d.tables[strings.ToLower(t.Name)] = t
}

// Order returns the B+ tree order new tables are constructed with.
func (d *Database) Order() int { return d.order }
