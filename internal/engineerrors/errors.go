// Package engineerrors declares the quill error taxonomy (spec §7) as
// gopkg.in/src-d/go-errors.v1 Kinds, the same pattern dolthub-go-mysql-
// server's auth package uses for its own permission errors. Each failure
// site constructs a concrete error with Kind.New(...); Classify identifies
// the Kind behind a returned error by walking the Kind table with Kind.Is.
// The Execute boundary formats any error as "Error: <message>" without
// classifying it.
package engineerrors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
	kinderrors "gopkg.in/src-d/go-errors.v1"
)

var (
	// LexError marks malformed source text at the token level. Carries
	// line/column via the formatted message.
	LexError = kinderrors.NewKind("lex error at line %d, column %d: %s")
	// SyntaxError marks a grammar violation caught by the parser.
	SyntaxError = kinderrors.NewKind("syntax error at line %d, column %d: %s")
	// TableNotFound marks a catalog lookup of an unregistered table.
	TableNotFound = kinderrors.NewKind("table not found: %s")
	// TableExists marks CREATE TABLE naming an already-registered table.
	TableExists = kinderrors.NewKind("table already exists: %s")
	// ColumnNotFound marks a reference to an undeclared column.
	ColumnNotFound = kinderrors.NewKind("column not found: %s")
	// TypeMismatch marks a value that cannot be coerced to a column's type.
	TypeMismatch = kinderrors.NewKind("type mismatch: %s")
	// NullViolation marks a null value for a non-nullable column.
	NullViolation = kinderrors.NewKind("null violation: column %s is not nullable")
	// ArityError marks a VALUES tuple whose arity disagrees with the
	// column list.
	ArityError = kinderrors.NewKind("arity error: expected %d values, got %d")
	// KeyNotFound marks a point operation (Get/Remove) on an absent key.
	KeyNotFound = kinderrors.NewKind("key not found: %s")
	// DivisionByZero marks a division or modulo by zero.
	DivisionByZero = kinderrors.NewKind("division by zero")
	// CorruptDatabase marks an on-disk format violation discovered while
	// loading a database file.
	CorruptDatabase = kinderrors.NewKind("corrupt database: %s")
	// InvalidArgument marks programmer misuse: an empty key, an order below
	// the tree's minimum, etc.
	InvalidArgument = kinderrors.NewKind("invalid argument: %s")
)

// allKinds is walked by Classify to find which Kind (if any) produced err.
var allKinds = []*kinderrors.Kind{
	LexError, SyntaxError, TableNotFound, TableExists, ColumnNotFound,
	TypeMismatch, NullViolation, ArityError, KeyNotFound, DivisionByZero,
	CorruptDatabase, InvalidArgument,
}

// Classify returns the Kind that produced err, and true, or (nil, false)
// if err was not raised through this package (e.g. a raw I/O error).
func Classify(err error) (*kinderrors.Kind, bool) {
	cause := pkgerrors.Cause(err)
	for _, k := range allKinds {
		if k.Is(cause) {
			return k, true
		}
	}
	var wrapped *kinderrors.Error
	if stderrors.As(cause, &wrapped) {
		return wrapped.Kind, true
	}
	return nil, false
}
