// Package optima is a typed data-access layer over SQLite. Tables are
// declared as field collections; inserts, updates, deletes and queries
// are type-checked against the declaration, compiled to parameterized
// SQL, and the physical schema is kept in sync with the declared one
// across restarts.
package optima

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iliesw/OptimaDB/logger"
	"github.com/iliesw/OptimaDB/migrator"
	"github.com/iliesw/OptimaDB/schema"
)

// Row is one record keyed by column name. Rows exist only in memory
// between the engine and the caller; outbound formatting has already
// been applied to every value read back.
type Row map[string]interface{}

// Config configures the registry.
type Config struct {
	// Path of the database file; ignored when Memory is set.
	Path string
	// Memory opens an in-memory database.
	Memory bool
	// BusyTimeout is the engine-side lock timeout, default 5s.
	BusyTimeout time.Duration
	// Logger defaults to logger.Default.
	Logger logger.Interface
	// Notifier receives a synchronous change event per mutating
	// statement; it must not block.
	Notifier Notifier
	// Conn, when set, is used instead of opening Path. The caller
	// keeps ownership of the connection.
	Conn *sql.DB
}

// TableDef declares one table: its name, fields, and an optional
// rename map (old physical column name to declared name) consumed by
// the migration diff.
type TableDef struct {
	Name    string
	Fields  schema.Fields
	Renames map[string]string
}

type connPool interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB is the registry: it owns the engine connection, one table runtime
// per declared table, and the precomputed relationship edges.
type DB struct {
	conn     *sql.DB
	pool     connPool
	log      logger.Interface
	notifier Notifier
	ownsConn bool
	inBatch  bool

	tables        map[string]*Table
	schemas       map[string]*schema.Schema
	relationships map[string][]schema.Relationship
}

// Open opens the database, migrates every declared table, and builds
// the relationship edge map. Declaration order does not matter for
// references; edges are resolved after all tables are registered.
func Open(cfg Config, defs ...TableDef) (*DB, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Default
	}

	conn := cfg.Conn
	ownsConn := false
	if conn == nil {
		var err error
		conn, err = sql.Open("sqlite3", buildDSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		ownsConn = true
	}
	// one shared connection; the engine serializes writers on it
	conn.SetMaxOpenConns(1)

	db := &DB{
		conn:     conn,
		pool:     conn,
		log:      log,
		notifier: cfg.Notifier,
		ownsConn: ownsConn,
		tables:   make(map[string]*Table, len(defs)),
		schemas:  make(map[string]*schema.Schema, len(defs)),
	}

	m := migrator.New(conn, log)
	for _, def := range defs {
		if _, dup := db.schemas[def.Name]; dup {
			db.close()
			return nil, fmt.Errorf("table %s declared twice", def.Name)
		}

		sch, err := schema.New(def.Name, def.Fields)
		if err != nil {
			db.close()
			return nil, err
		}

		if _, err := m.Migrate(sch, def.Renames); err != nil {
			db.close()
			return nil, err
		}

		db.schemas[def.Name] = sch
		db.tables[def.Name] = &Table{db: db, Schema: sch}
	}

	db.relationships = schema.BuildRelationships(db.schemas)

	return db, nil
}

func buildDSN(cfg Config) string {
	if cfg.Memory || cfg.Path == "" {
		return "file::memory:?_foreign_keys=1"
	}

	timeout := cfg.BusyTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return fmt.Sprintf("file:%s?_foreign_keys=1&_busy_timeout=%d&_journal_mode=WAL",
		cfg.Path, timeout.Milliseconds())
}

// Table returns the runtime for a declared table.
func (db *DB) Table(name string) (*Table, error) {
	table, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return table, nil
}

// Tables returns the declared table names.
func (db *DB) Tables() []string {
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	return names
}

// Relationships returns the reverse edges recorded for a table.
func (db *DB) Relationships(table string) []schema.Relationship {
	edges := db.relationships[table]
	out := make([]schema.Relationship, len(edges))
	copy(out, edges)
	return out
}

// Batch runs fn inside a single transaction. The callback receives a
// view of the registry bound to the transaction; any error rolls the
// whole batch back, success commits once. Batches do not nest.
func (db *DB) Batch(fn func(tx *DB) error) error {
	if db.inBatch {
		return ErrNestedBatch
	}

	sqltx, err := db.conn.Begin()
	if err != nil {
		return err
	}

	view := &DB{
		conn:          db.conn,
		pool:          sqltx,
		log:           db.log,
		notifier:      db.notifier,
		inBatch:       true,
		schemas:       db.schemas,
		relationships: db.relationships,
	}
	view.tables = make(map[string]*Table, len(db.tables))
	for name, table := range db.tables {
		view.tables[name] = &Table{db: view, Schema: table.Schema}
	}

	if err := fn(view); err != nil {
		if rbErr := sqltx.Rollback(); rbErr != nil {
			db.log.Error(context.Background(), "rolling back batch: %v", rbErr)
		}
		return err
	}

	return sqltx.Commit()
}

// Close releases the engine connection when the registry owns it.
func (db *DB) Close() error {
	if db.inBatch {
		return ErrNestedBatch
	}
	return db.close()
}

func (db *DB) close() error {
	if !db.ownsConn {
		return nil
	}
	return db.conn.Close()
}

func (db *DB) exec(query string, args ...interface{}) (sql.Result, error) {
	begin := time.Now()
	result, err := db.pool.Exec(query, args...)

	rows := int64(-1)
	if err == nil && result != nil {
		if affected, raErr := result.RowsAffected(); raErr == nil {
			rows = affected
		}
	}
	db.log.Trace(context.Background(), begin, func() (string, int64) {
		return query, rows
	}, err)

	return result, err
}

func (db *DB) query(query string, args ...interface{}) (*sql.Rows, error) {
	begin := time.Now()
	rows, err := db.pool.Query(query, args...)
	db.log.Trace(context.Background(), begin, func() (string, int64) {
		return query, -1
	}, err)
	return rows, err
}

func (db *DB) notify(table string) {
	if db.notifier != nil {
		db.notifier.Changed(table)
	}
}
