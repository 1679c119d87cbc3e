// Package value implements quill's dynamically typed scalar (spec §3): a
// tagged variant over integer, decimal, string, boolean, datetime, date,
// and null, plus the comparison/arithmetic/coercion rules the evaluator
// and catalog lean on (spec §4.6).
package value

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/quilldb/quill/internal/engineerrors"
)

// Kind tags the concrete type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindDecimal
	KindString
	KindBool
	KindDateTime
	KindDate
)

// DateLayout and DateTimeLayout are the canonical string forms used for
// parsing and display (spec: "canonical string parsing (invariant
// culture)").
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339
)

// Value is an immutable dynamically typed scalar.
type Value struct {
	kind Kind
	i    int64
	d    decimal.Decimal
	s    string
	b    bool
	t    time.Time
}

// Null is the null value.
var Null = Value{kind: KindNull}

func Int(i int64) Value               { return Value{kind: KindInt, i: i} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }
func String(s string) Value           { return Value{kind: KindString, s: s} }
func Bool(b bool) Value               { return Value{kind: KindBool, b: b} }
func DateTime(t time.Time) Value      { return Value{kind: KindDateTime, t: t.UTC()} }
func Date(t time.Time) Value {
	t = t.UTC()
	return Value{kind: KindDate, t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }
func (v Value) IntValue() int64 { return v.i }
func (v Value) DecimalValue() decimal.Decimal { return v.d }
func (v Value) StringValue() string           { return v.s }
func (v Value) BoolValue() bool               { return v.b }
func (v Value) TimeValue() time.Time          { return v.t }

// CanonicalString returns the value's canonical string form (SPEC_FULL.md
// §3), used for LIKE matching, for keying the primary-key B+ tree, and as
// the fallback for equality/arithmetic coercion.
func (v Value) CanonicalString() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindDecimal:
		return v.d.String()
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindDateTime:
		return v.t.Format(DateTimeLayout)
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

func (v Value) String() string { return v.CanonicalString() }

// asDecimal converts a value to decimal for arithmetic, per spec §4.6
// ("otherwise convert both to decimal"). Returns an error for values with
// no sensible numeric reading.
func (v Value) asDecimal() (decimal.Decimal, error) {
	switch v.kind {
	case KindInt:
		return decimal.NewFromInt(v.i), nil
	case KindDecimal:
		return v.d, nil
	case KindBool:
		if v.b {
			return decimal.NewFromInt(1), nil
		}
		return decimal.NewFromInt(0), nil
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.s))
		if err != nil {
			return decimal.Zero, engineerrors.TypeMismatch.New(fmt.Sprintf("cannot convert %q to a number", v.s))
		}
		return d, nil
	default:
		return decimal.Zero, engineerrors.TypeMismatch.New(fmt.Sprintf("cannot convert %s to a number", v.kind))
	}
}

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindDecimal:
		return "DECIMAL"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOLEAN"
	case KindDateTime:
		return "DATETIME"
	case KindDate:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

// Add, Sub, Mul implement the arithmetic coercion rules of spec §4.6:
// decimal+decimal stays decimal; '+' between strings concatenates;
// otherwise both sides convert to decimal.

func Add(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return String(a.CanonicalString() + b.CanonicalString()), nil
	}
	return decimalOp(a, b, decimal.Decimal.Add)
}

func Sub(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Value{}, engineerrors.TypeMismatch.New("cannot subtract strings")
	}
	return decimalOp(a, b, decimal.Decimal.Sub)
}

func Mul(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Value{}, engineerrors.TypeMismatch.New("cannot multiply strings")
	}
	return decimalOp(a, b, decimal.Decimal.Mul)
}

func Div(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Value{}, engineerrors.TypeMismatch.New("cannot divide strings")
	}
	da, err := a.asDecimal()
	if err != nil {
		return Value{}, err
	}
	db, err := b.asDecimal()
	if err != nil {
		return Value{}, err
	}
	if db.IsZero() {
		return Value{}, engineerrors.DivisionByZero.New()
	}
	return Decimal(da.Div(db)), nil
}

// Mod implements the mathematical modulo a - floor(a/b)*b (spec §4.6),
// not Go's truncating remainder.
func Mod(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Value{}, engineerrors.TypeMismatch.New("cannot modulo strings")
	}
	da, err := a.asDecimal()
	if err != nil {
		return Value{}, err
	}
	db, err := b.asDecimal()
	if err != nil {
		return Value{}, err
	}
	if db.IsZero() {
		return Value{}, engineerrors.DivisionByZero.New()
	}
	quotient := da.Div(db).Floor()
	return Decimal(da.Sub(quotient.Mul(db))), nil
}

func decimalOp(a, b Value, op func(decimal.Decimal, decimal.Decimal) decimal.Decimal) (Value, error) {
	da, err := a.asDecimal()
	if err != nil {
		return Value{}, err
	}
	db, err := b.asDecimal()
	if err != nil {
		return Value{}, err
	}
	return Decimal(op(da, db)), nil
}

// Compare implements spec §4.6's comparison rule: nulls sort below
// non-nulls; both-string compares case-insensitive lexicographically;
// otherwise tries numeric parse of both stringifications, falling back to
// case-insensitive string compare. Dates/datetimes compare chronologically
// on their own axis before falling into that general rule.
func Compare(a, b Value) int {
	if a.kind == KindNull || b.kind == KindNull {
		an, bn := a.kind == KindNull, b.kind == KindNull
		switch {
		case an && bn:
			return 0
		case an:
			return -1
		default:
			return 1
		}
	}
	if (a.kind == KindDate || a.kind == KindDateTime) && (b.kind == KindDate || b.kind == KindDateTime) {
		switch {
		case a.t.Before(b.t):
			return -1
		case a.t.After(b.t):
			return 1
		default:
			return 0
		}
	}
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(strings.ToLower(a.s), strings.ToLower(b.s))
	}
	da, errA := a.asDecimal()
	db, errB := b.asDecimal()
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(strings.ToLower(a.CanonicalString()), strings.ToLower(b.CanonicalString()))
}

// Equal implements spec §4.6 equality: case-insensitive string equality of
// the two values' canonical stringifications.
func Equal(a, b Value) bool {
	return strings.EqualFold(a.CanonicalString(), b.CanonicalString())
}

// Truthy implements "a bare identifier in boolean position is truthy iff
// its value is non-null", except that a BOOLEAN value is truthy iff it is
// true. Every other non-null value, including numeric zero, is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Like implements the case-insensitive glob matcher of spec §4.6: '%'
// matches any (possibly empty) substring, '_' matches exactly one
// character, everything else matches literally.
func Like(s, pattern string) bool {
	return likeMatch([]rune(strings.ToLower(s)), []rune(strings.ToLower(pattern)))
}

func likeMatch(s, pattern []rune) bool {
	// Classic DP over the two strings; small inputs in practice (row
	// values and user-authored patterns), so O(len(s)*len(pattern)) is fine.
	sl, pl := len(s), len(pattern)
	match := make([][]bool, sl+1)
	for i := range match {
		match[i] = make([]bool, pl+1)
	}
	match[0][0] = true
	for j := 1; j <= pl; j++ {
		if pattern[j-1] == '%' {
			match[0][j] = match[0][j-1]
		}
	}
	for i := 1; i <= sl; i++ {
		for j := 1; j <= pl; j++ {
			switch pattern[j-1] {
			case '%':
				match[i][j] = match[i-1][j] || match[i][j-1]
			case '_':
				match[i][j] = match[i-1][j-1]
			default:
				match[i][j] = match[i-1][j-1] && s[i-1] == pattern[j-1]
			}
		}
	}
	return match[sl][pl]
}

// ParseDate parses a canonical YYYY-MM-DD date string.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Value{}, engineerrors.TypeMismatch.New(fmt.Sprintf("invalid date %q", s))
	}
	return Date(t), nil
}

// ParseDateTime parses an RFC3339 datetime string.
func ParseDateTime(s string) (Value, error) {
	t, err := time.Parse(DateTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return Value{}, engineerrors.TypeMismatch.New(fmt.Sprintf("invalid datetime %q", s))
	}
	return DateTime(t), nil
}

// ParseBool uses spf13/cast for the canonical true/false/0/1 readings a
// coerced string may carry.
func ParseBool(s string) (Value, error) {
	b, err := cast.ToBoolE(strings.TrimSpace(s))
	if err != nil {
		return Value{}, engineerrors.TypeMismatch.New(fmt.Sprintf("invalid boolean %q", s))
	}
	return Bool(b), nil
}

// ParseInt32 parses a canonical signed 32-bit integer (spec §6: INT is
// stored as a signed 32-bit value on disk).
func ParseInt32(s string) (Value, error) {
	i, err := cast.ToInt64E(strings.TrimSpace(s))
	if err != nil {
		return Value{}, engineerrors.TypeMismatch.New(fmt.Sprintf("invalid integer %q", s))
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return Value{}, engineerrors.TypeMismatch.New(fmt.Sprintf("integer %d out of 32-bit range", i))
	}
	return Int(i), nil
}

// ParseDecimal parses a canonical fixed-point decimal string.
func ParseDecimal(s string) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Value{}, engineerrors.TypeMismatch.New(fmt.Sprintf("invalid decimal %q", s))
	}
	return Decimal(d), nil
}

// DecimalFromParts reconstructs a decimal.Decimal from an unscaled int64
// coefficient and a base-10 exponent, the codec's on-disk DECIMAL
// representation (spec §6).
func DecimalFromParts(coefficient int64, exponent int32) decimal.Decimal {
	return decimal.New(coefficient, exponent)
}
