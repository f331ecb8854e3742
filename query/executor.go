package query

import (
	"context"
	"database/sql"
	"fmt"
)

// QueryError reports an engine-level failure (bad syntax, missing table,
// type mismatch) together with the statement that caused it.
type QueryError struct {
	Message   string
	Statement string
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %s (statement: %s)", e.Message, e.Statement)
}

// Executor runs parameterized statements against the engine.
// Values are bound positionally; caller input never reaches statement text.
type Executor struct {
	db *sql.DB
}

// NewExecutor creates an executor over an open engine connection.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs a statement with positional parameters and returns all rows.
// Engine values are normalized so every record is JSON-serializable: DuckDB
// HUGEINT/UBIGINT values arrive as big integers and are converted to ordinary
// numerics, recursively through nested lists, structs and maps. Counts beyond
// 2^53 lose precision in that conversion; the dataset does not produce them.
func (e *Executor) Execute(ctx context.Context, statement string, params ...any) ([]Record, error) {
	rows, err := e.db.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, &QueryError{Message: err.Error(), Statement: statement}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Message: err.Error(), Statement: statement}
	}

	var records []Record
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Message: err.Error(), Statement: statement}
		}
		values := make([]any, len(raw))
		for i, v := range raw {
			values[i] = Normalize(v)
		}
		records = append(records, NewRecord(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: err.Error(), Statement: statement}
	}

	return records, nil
}
