package sqlpen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"modernc.org/sqlite"
)

// driverName is the database/sql driver name registered by modernc.org/sqlite.
const driverName = "sqlite"

// Result message constants
const (
	// commandConfirmation is returned when a batch contains only command statements
	commandConfirmation = "Executed non-SELECT statement."
	// sqlErrorPrefix marks engine-level execution errors
	sqlErrorPrefix = "SQL Error: "
	// genericErrorPrefix marks unexpected failures
	genericErrorPrefix = "An error occurred: "
)

// Result is the classified outcome of executing a statement batch.
// Exactly one of two shapes holds: a query result carries Columns and
// Rows together, anything else carries only a Message. Failures
// additionally set Err; the Message then holds the human-readable text.
type Result struct {
	// Columns holds result column names for a query-shaped statement.
	Columns []string
	// Rows holds the fetched rows, one []any per row.
	Rows [][]any
	// Message holds a confirmation or error text for non-query outcomes.
	Message string
	// Err is the underlying error when the batch failed.
	Err error
}

// IsQuery reports whether the result carries rows and column names.
func (r Result) IsQuery() bool {
	return r.Columns != nil
}

// IsError reports whether the batch failed.
func (r Result) IsError() bool {
	return r.Err != nil
}

// Executor runs raw multi-statement SQL against databases in a workspace.
type Executor struct {
	ws     *Workspace
	logger *slog.Logger
}

// NewExecutor creates an Executor bound to the workspace.
func NewExecutor(ws *Workspace) *Executor {
	return &Executor{ws: ws, logger: ws.logger}
}

// Execute is ExecuteContext with a background context.
func (e *Executor) Execute(dbName, raw string) Result {
	return e.ExecuteContext(context.Background(), dbName, raw)
}

// ExecuteContext executes semicolon-separated SQL statements against the
// named database and returns exactly one Result. It never panics and
// never reports failure other than through the Result.
//
// Statements run in order inside a single transaction spanning the whole
// batch. The first query-shaped statement (SELECT/WITH prefix) ends the
// batch: its rows and column names become the result, later statements
// never run, and the transaction is not committed. A batch with no
// query-shaped statement commits after the last statement and returns a
// generic confirmation. On any failure the transaction is rolled back,
// so no statement's effect survives a failing batch.
//
// The database must already exist; unknown names are an error rather
// than an implicit empty database (creation belongs to the Workspace).
func (e *Executor) ExecuteContext(ctx context.Context, dbName, raw string) Result {
	statements := SplitStatements(raw)
	if len(statements) == 0 {
		return genericErrorResult(ErrNoStatements)
	}

	if !e.ws.Exists(dbName) {
		return genericErrorResult(fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbName))
	}

	db, err := sql.Open(driverName, e.ws.DatabasePath(dbName))
	if err != nil {
		return genericErrorResult(err)
	}
	defer func() {
		_ = db.Close() // Ignore close error; the call owns the connection
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return genericErrorResult(err)
	}

	for _, stmt := range statements {
		if isQueryShaped(stmt) {
			res := e.runQuery(ctx, tx, stmt)
			// Query batches are never committed: commands executed
			// before the query are discarded with the rollback.
			_ = tx.Rollback()
			return res
		}

		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			e.logger.Warn("statement failed", "database", dbName, "error", err)
			return errorResult(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errorResult(err)
	}

	e.logger.Debug("batch committed", "database", dbName, "statements", len(statements))
	return Result{Message: commandConfirmation}
}

// runQuery executes a single query-shaped statement and fetches all
// rows and column names.
func (e *Executor) runQuery(ctx context.Context, tx *sql.Tx, stmt string) Result {
	rows, err := tx.QueryContext(ctx, stmt)
	if err != nil {
		return errorResult(err)
	}
	defer func() {
		_ = rows.Close() // Ignore close error after full iteration
	}()

	columns, err := rows.Columns()
	if err != nil {
		return errorResult(err)
	}

	fetched := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return errorResult(err)
		}
		for i, v := range values {
			// Convert []byte to string for readability
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		fetched = append(fetched, values)
	}
	if err := rows.Err(); err != nil {
		return errorResult(err)
	}

	return Result{Columns: columns, Rows: fetched}
}

// errorResult classifies err as an engine execution error or an
// unexpected failure and builds the matching error Result.
func errorResult(err error) Result {
	var engineErr *sqlite.Error
	if errors.As(err, &engineErr) {
		return Result{Message: sqlErrorPrefix + err.Error(), Err: err}
	}
	return genericErrorResult(err)
}

// genericErrorResult builds an error Result for non-engine failures.
func genericErrorResult(err error) Result {
	return Result{Message: genericErrorPrefix + err.Error(), Err: err}
}
