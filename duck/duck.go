// Package duck manages the connection to the embedded DuckDB database.
//
// The database file is produced out-of-band by the ingestion scripts; this
// service only ever reads from it, so the connection is opened in read-only
// mode and kept to a small number of handles.
package duck

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb"
)

// Options controls how the database is opened.
type Options struct {
	// Path is the DuckDB file to open. Required.
	Path string
	// MaxConns bounds concurrent connections to the engine. Defaults to 1.
	MaxConns int
	// Threads caps engine worker threads. Zero leaves the engine default.
	Threads int
	// MemoryLimit caps engine memory, e.g. "512MB". Empty leaves the
	// engine default.
	MemoryLimit string
}

// Open opens the DuckDB file read-only and verifies it is reachable.
func Open(opts Options) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("duckdb path is required")
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("duckdb file not accessible: %w", err)
	}

	db, err := sql.Open("duckdb", opts.Path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if opts.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads = %d", opts.Threads)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set thread limit: %w", err)
		}
	}
	if opts.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit = '%s'", opts.MemoryLimit)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set memory limit: %w", err)
		}
	}

	if _, err := db.Exec("INSTALL json"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install JSON extension: %w", err)
	}
	if _, err := db.Exec("LOAD json"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load JSON extension: %w", err)
	}

	return db, nil
}
