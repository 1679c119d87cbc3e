// Package engine wires the lexer, parser, catalog, evaluator, and codec
// into the embedded engine's external contract (spec §6): construct with
// an optional file path, execute one SQL statement at a time, get back a
// formatted string — a result table, a success message, or "Error: ...".
package engine

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quilldb/quill/internal/ast"
	"github.com/quilldb/quill/internal/catalog"
	"github.com/quilldb/quill/internal/codec"
	"github.com/quilldb/quill/internal/eval"
	"github.com/quilldb/quill/internal/parser"
	"github.com/quilldb/quill/internal/resultfmt"
)

// DefaultOrder is the B+ tree order new Engines build their tables with
// unless overridden (spec §4.1: order >= 3).
const DefaultOrder = 64

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithFile sets the database file an Engine loads from and persists to on
// every mutating statement (spec §6). An Engine with no WithFile option
// runs in-memory only.
func WithFile(path string) Option {
	return func(e *Engine) { e.filePath = path }
}

// WithOrder overrides the B+ tree order used for every table.
func WithOrder(order int) Option {
	return func(e *Engine) { e.order = order }
}

// WithLogger overrides the structured logger used for catalog and
// persistence events.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine is quill's embedded SQL engine: one catalog, optionally backed by
// a single file rewritten whole on every mutating statement (spec §4.2,
// §5).
type Engine struct {
	db       *catalog.Database
	filePath string
	order    int
	log      *logrus.Logger
}

// New constructs an Engine. If WithFile names a path and the file exists,
// its contents are loaded; if it does not exist, the engine starts empty
// and creates the file on its first mutating statement; with no WithFile
// option, the engine is in-memory only.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{order: DefaultOrder, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(e)
	}

	if e.filePath == "" {
		e.db = catalog.New(e.order, e.log)
		return e, nil
	}

	f, err := os.Open(e.filePath)
	if errors.Is(err, os.ErrNotExist) {
		e.log.WithField("path", e.filePath).Debug("engine: database file does not exist yet, starting empty")
		e.db = catalog.New(e.order, e.log)
		return e, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "engine: open database file")
	}
	defer f.Close()

	db, err := codec.Load(f, e.order, e.log)
	if err != nil {
		return nil, errors.Wrap(err, "engine: load database file")
	}
	e.db = db
	e.log.WithField("path", e.filePath).Info("engine: database file loaded")
	return e, nil
}

// Execute parses and evaluates a single SQL statement, returning its
// formatted result. It is equivalent to ExecuteContext(context.Background(),
// sql).
func (e *Engine) Execute(sql string) string {
	return e.ExecuteContext(context.Background(), sql)
}

// ExecuteContext is Execute with a context governing the statement's file
// I/O (spec §5: file I/O is the only blocking operation a statement
// performs). Any error anywhere in the pipeline is caught here and
// rendered as "Error: <message>" rather than propagated (spec §6, §7).
func (e *Engine) ExecuteContext(ctx context.Context, sql string) string {
	result, err := e.execute(ctx, sql)
	if err != nil {
		e.log.WithError(err).Debug("engine: statement failed")
		return resultfmt.Error(err)
	}
	return result
}

func (e *Engine) execute(ctx context.Context, sql string) (string, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return "", err
	}
	if stmt == nil {
		return resultfmt.Success(), nil
	}

	result, err := eval.Eval(e.db, stmt)
	if err != nil {
		return "", err
	}

	if isMutating(stmt) {
		if err := e.persist(ctx); err != nil {
			// The in-memory catalog is already mutated; the file is now
			// stale. Per spec §7 this partial-failure mode is surfaced,
			// not recovered from.
			return "", err
		}
	}

	return resultfmt.Format(result), nil
}

func (e *Engine) persist(ctx context.Context) error {
	if e.filePath == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "engine: save database file")
	}
	f, err := os.Create(e.filePath)
	if err != nil {
		return errors.Wrap(err, "engine: create database file")
	}
	defer f.Close()
	if err := codec.Save(e.db, f); err != nil {
		return errors.Wrap(err, "engine: save database file")
	}
	e.log.WithField("path", e.filePath).Debug("engine: database file persisted")
	return nil
}

// isMutating reports whether stmt changes catalog or row state and so
// requires a whole-file rewrite when a file path is configured.
func isMutating(stmt ast.Statement) bool {
	switch stmt.(type) {
	case *ast.InsertStmt, *ast.UpdateStmt, *ast.DeleteStmt, *ast.CreateTableStmt, *ast.DropTableStmt:
		return true
	default:
		return false
	}
}
