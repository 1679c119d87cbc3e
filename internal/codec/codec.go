// Package codec implements the whole-file binary persistence format (spec
// §4.2, §6): on any mutating statement, the entire catalog is rewritten;
// on load, every Table invariant is re-checked and a violation fails with
// CorruptDatabase.
package codec

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quilldb/quill/internal/catalog"
	"github.com/quilldb/quill/internal/engineerrors"
	"github.com/quilldb/quill/internal/value"
)

// Save writes db's entire contents to w in the format documented in
// SPEC_FULL.md §4.2.
func Save(db *catalog.Database, w io.Writer) error {
	tables := db.Tables()
	if err := writeU32(w, uint32(len(tables))); err != nil {
		return err
	}
	for _, t := range tables {
		if err := saveTable(t, w); err != nil {
			return err
		}
	}
	return nil
}

func saveTable(t *catalog.Table, w io.Writer) error {
	if err := writeString(w, t.Name); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(t.Columns))); err != nil {
		return err
	}
	for _, c := range t.Columns {
		if err := writeString(w, c.Name); err != nil {
			return err
		}
		if err := writeString(w, c.Type); err != nil {
			return err
		}
		if err := writeBool(w, c.IsPrimaryKey); err != nil {
			return err
		}
		if err := writeBool(w, c.IsNullable); err != nil {
			return err
		}
	}

	rows := make([]catalog.Row, 0, t.Store().Len())
	for _, row := range t.Store().All() {
		rows = append(rows, row)
	}
	if err := writeU32(w, uint32(len(rows))); err != nil {
		return err
	}
	for _, row := range rows {
		for _, c := range t.Columns {
			v, _ := row.Get(c.Name)
			if err := writeValue(w, c.Type, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeValue(w io.Writer, typeTag string, v value.Value) error {
	if v.IsNull() {
		return writeBool(w, true)
	}
	if err := writeBool(w, false); err != nil {
		return err
	}
	switch typeTag {
	case "INT":
		return writeI32(w, int32(v.IntValue()))
	case "DECIMAL":
		return writeDecimal(w, v)
	case "BOOLEAN":
		return writeBool(w, v.BoolValue())
	case "DATETIME":
		return writeI64(w, v.TimeValue().UnixNano())
	case "DATE":
		return writeI32(w, int32(v.TimeValue().Unix()/86400))
	case "VARCHAR", "TEXT":
		return writeString(w, v.StringValue())
	default:
		return engineerrors.CorruptDatabase.New("unknown column type: " + typeTag)
	}
}

// writeDecimal encodes a DECIMAL as a 16-byte little-endian pair: the
// unscaled int64 coefficient followed by the int64 base-10 exponent, which
// round-trips exactly; this is the realization of spec §6's "128-bit fixed
// point". A value whose coefficient does not fit in an int64 is rejected
// with TypeMismatch rather than written truncated.
func writeDecimal(w io.Writer, v value.Value) error {
	d := v.DecimalValue()
	if !d.Coefficient().IsInt64() {
		return engineerrors.TypeMismatch.New("decimal " + d.String() + " does not fit the on-disk encoding")
	}
	coeff := d.Coefficient().Int64()
	exp := int64(d.Exponent())
	if err := writeI64(w, coeff); err != nil {
		return err
	}
	return writeI64(w, exp)
}

// Load reads a database previously written by Save, reconstructing a
// Database of the given B+ tree order.
func Load(r io.Reader, order int, log *logrus.Logger) (*catalog.Database, error) {
	db := catalog.New(order, log)
	tableCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < tableCount; i++ {
		if err := loadTable(r, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func loadTable(r io.Reader, db *catalog.Database) error {
	name, err := readString(r)
	if err != nil {
		return err
	}
	columnCount, err := readU32(r)
	if err != nil {
		return err
	}
	columns := make([]*catalog.Column, columnCount)
	for i := range columns {
		cname, err := readString(r)
		if err != nil {
			return err
		}
		ctype, err := readString(r)
		if err != nil {
			return err
		}
		isPK, err := readBool(r)
		if err != nil {
			return err
		}
		isNullable, err := readBool(r)
		if err != nil {
			return err
		}
		columns[i] = &catalog.Column{Name: cname, Type: ctype, IsPrimaryKey: isPK, IsNullable: isNullable}
	}
	table, err := db.CreateTable(name, columns)
	if err != nil {
		return engineerrors.CorruptDatabase.New(err.Error())
	}

	recordCount, err := readU32(r)
	if err != nil {
		return err
	}
	pk := table.PrimaryKey()
	if pk == nil {
		return engineerrors.CorruptDatabase.New("table " + name + " has no primary key")
	}
	for i := uint32(0); i < recordCount; i++ {
		row := make(catalog.Row, len(table.Columns))
		for _, c := range table.Columns {
			v, err := readValue(r, c.Type)
			if err != nil {
				return err
			}
			row.Set(c.Name, v)
		}
		keyVal, ok := row.Get(pk.Name)
		if !ok || keyVal.IsNull() {
			return engineerrors.CorruptDatabase.New("table " + name + " has a row with a null primary key")
		}
		if _, exists, _ := table.Store().Get(keyVal.CanonicalString()); exists {
			return engineerrors.CorruptDatabase.New("table " + name + " has a duplicate primary key")
		}
		if err := table.Store().Insert(keyVal.CanonicalString(), row); err != nil {
			return engineerrors.CorruptDatabase.New(err.Error())
		}
	}
	return nil
}

func readValue(r io.Reader, typeTag string) (value.Value, error) {
	isNull, err := readBool(r)
	if err != nil {
		return value.Value{}, err
	}
	if isNull {
		return value.Null, nil
	}
	switch typeTag {
	case "INT":
		i, err := readI32(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int64(i)), nil
	case "DECIMAL":
		return readDecimal(r)
	case "BOOLEAN":
		b, err := readBool(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(b), nil
	case "DATETIME":
		ticks, err := readI64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.DateTime(time.Unix(0, ticks).UTC()), nil
	case "DATE":
		days, err := readI32(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Date(time.Unix(int64(days)*86400, 0).UTC()), nil
	case "VARCHAR", "TEXT":
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	default:
		return value.Value{}, engineerrors.CorruptDatabase.New("unknown column type: " + typeTag)
	}
}

func readDecimal(r io.Reader) (value.Value, error) {
	coeff, err := readI64(r)
	if err != nil {
		return value.Value{}, err
	}
	exp, err := readI64(r)
	if err != nil {
		return value.Value{}, err
	}
	d := value.DecimalFromParts(coeff, int32(exp))
	return value.Decimal(d), nil
}

// ---- primitive encoding helpers ----

func writeU32(w io.Writer, v uint32) error { return binary.Write(w, binary.LittleEndian, v) }
func writeI32(w io.Writer, v int32) error  { return binary.Write(w, binary.LittleEndian, v) }
func writeI64(w io.Writer, v int64) error  { return binary.Write(w, binary.LittleEndian, v) }
func writeBool(w io.Writer, v bool) error  { return binary.Write(w, binary.LittleEndian, v) }

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, wrapReadErr(err)
}

func readI32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, wrapReadErr(err)
}

func readI64(r io.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, wrapReadErr(err)
}

func readBool(r io.Reader) (bool, error) {
	var v bool
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, wrapReadErr(err)
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapReadErr(err)
	}
	return string(buf), nil
}

func wrapReadErr(err error) error {
	if err == nil {
		return nil
	}
	return engineerrors.CorruptDatabase.New(err.Error())
}
