package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliesw/OptimaDB/logger"
	"github.com/iliesw/OptimaDB/schema"
	"github.com/iliesw/OptimaDB/utils"
)

// State is the outcome of diffing a declared schema against the
// physical table.
type State int

const (
	// Noop the physical table already matches the declared schema
	Noop State = iota
	// Create the table does not exist yet
	Create
	// Rebuild the physical columns diverge and the table must be
	// rebuilt via create-copy-drop-rename
	Rebuild
)

func (s State) String() string {
	switch s {
	case Create:
		return "create"
	case Rebuild:
		return "rebuild"
	default:
		return "noop"
	}
}

// Error wraps any failure of the migration sequence; the physical
// schema is left in its pre-migration state.
type Error struct {
	Table string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("migrating table %s: %v", e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const tempSuffix = "__migration"

// Migrator reconciles declared schemas with the live database.
type Migrator struct {
	DB     *sql.DB
	Logger logger.Interface
}

// New returns a migrator over the given connection.
func New(db *sql.DB, log logger.Interface) *Migrator {
	if log == nil {
		log = logger.Default
	}
	return &Migrator{DB: db, Logger: log}
}

// HasTable reports whether a table exists.
func (m *Migrator) HasTable(name string) (bool, error) {
	var count int
	err := m.DB.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Tables lists user tables, excluding the engine's internal ones.
func (m *Migrator) Tables() ([]string, error) {
	rows, err := m.DB.Query(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns introspects the physical columns of a table.
func (m *Migrator) Columns(table string) ([]ColumnType, error) {
	rows, err := m.DB.Query(fmt.Sprintf("PRAGMA table_info(%s)", utils.QuoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnType
	for rows.Next() {
		var (
			cid     int
			notNull int
			pk      int
			ct      ColumnType
		)
		if err := rows.Scan(&cid, &ct.NameValue, &ct.DataTypeValue, &notNull, &ct.DefaultValueValue, &pk); err != nil {
			return nil, err
		}
		ct.NullableValue = sql.NullBool{Bool: notNull == 0, Valid: true}
		ct.PrimaryKeyValue = sql.NullBool{Bool: pk > 0, Valid: true}
		columns = append(columns, ct)
	}
	return columns, rows.Err()
}

// Plan diffs the declared schema against the physical table. renames
// maps old physical column names to their declared names.
func (m *Migrator) Plan(sch *schema.Schema, renames map[string]string) (State, error) {
	exists, err := m.HasTable(sch.Table)
	if err != nil {
		return Noop, &Error{Table: sch.Table, Err: err}
	}
	if !exists {
		return Create, nil
	}

	columns, err := m.Columns(sch.Table)
	if err != nil {
		return Noop, &Error{Table: sch.Table, Err: err}
	}

	physical := make(map[string]bool, len(columns))
	for _, col := range columns {
		physical[col.Name()] = true
	}

	declared := sch.FieldNames()
	if len(declared) != len(physical) {
		return Rebuild, nil
	}
	for _, name := range declared {
		if !physical[name] {
			return Rebuild, nil
		}
	}
	for old, renamed := range renames {
		if physical[old] && old != renamed {
			return Rebuild, nil
		}
	}

	return Noop, nil
}

// Migrate brings the physical table in line with the declared schema.
// A rebuild copies data column by column: renamed and surviving
// columns keep their values, added columns are backfilled with the
// declared default or NULL, and columns absent from the new schema are
// dropped for good.
func (m *Migrator) Migrate(sch *schema.Schema, renames map[string]string) (State, error) {
	state, err := m.Plan(sch, renames)
	if err != nil {
		return state, err
	}

	switch state {
	case Create:
		createSQL, err := sch.CreateSQL()
		if err != nil {
			return state, &Error{Table: sch.Table, Err: err}
		}
		if err := m.exec(m.DB, createSQL); err != nil {
			return state, &Error{Table: sch.Table, Err: err}
		}
	case Rebuild:
		m.Logger.Warn(context.Background(), "table %s diverges from its declared schema, rebuilding", sch.Table)
		if err := m.rebuild(sch, renames); err != nil {
			return state, &Error{Table: sch.Table, Err: err}
		}
	}

	return state, nil
}

// rebuild runs the whole create-copy-drop-rename sequence inside one
// transaction with foreign-key enforcement suspended, so a failure at
// any step leaves the physical table untouched.
func (m *Migrator) rebuild(sch *schema.Schema, renames map[string]string) error {
	columns, err := m.Columns(sch.Table)
	if err != nil {
		return err
	}
	physical := make(map[string]bool, len(columns))
	for _, col := range columns {
		physical[col.Name()] = true
	}

	oldName := make(map[string]string, len(renames))
	for old, renamed := range renames {
		oldName[renamed] = old
	}

	if err := m.exec(m.DB, "PRAGMA foreign_keys = OFF"); err != nil {
		return err
	}
	defer m.exec(m.DB, "PRAGMA foreign_keys = ON")

	tx, err := m.DB.Begin()
	if err != nil {
		return err
	}

	if err := m.copyInto(tx, sch, physical, oldName); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (m *Migrator) copyInto(tx *sql.Tx, sch *schema.Schema, physical map[string]bool, oldName map[string]string) error {
	temp := sch.Table + tempSuffix

	createSQL, err := sch.CreateSQLAs(temp)
	if err != nil {
		return err
	}
	if err := m.exec(tx, createSQL); err != nil {
		return err
	}

	var targets, sources []string
	for _, field := range sch.Fields {
		targets = append(targets, utils.QuoteIdent(field.Name))

		src := ""
		if old, ok := oldName[field.Name]; ok && physical[old] {
			src = old
		} else if physical[field.Name] {
			src = field.Name
		}

		if src != "" {
			sources = append(sources, fmt.Sprintf("%s AS %s", utils.QuoteIdent(src), utils.QuoteIdent(field.Name)))
			continue
		}

		lit, ok, err := field.DefaultLiteral()
		if err != nil {
			return err
		}
		if !ok {
			lit = "NULL"
		}
		sources = append(sources, fmt.Sprintf("%s AS %s", lit, utils.QuoteIdent(field.Name)))
	}

	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		utils.QuoteIdent(temp), strings.Join(targets, ", "),
		strings.Join(sources, ", "), utils.QuoteIdent(sch.Table))
	if err := m.exec(tx, copySQL); err != nil {
		return err
	}

	if err := m.exec(tx, fmt.Sprintf("DROP TABLE %s", utils.QuoteIdent(sch.Table))); err != nil {
		return err
	}

	return m.exec(tx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		utils.QuoteIdent(temp), utils.QuoteIdent(sch.Table)))
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (m *Migrator) exec(conn execer, query string, args ...interface{}) error {
	begin := time.Now()
	result, err := conn.Exec(query, args...)

	rows := int64(-1)
	if err == nil && result != nil {
		if affected, raErr := result.RowsAffected(); raErr == nil {
			rows = affected
		}
	}
	m.Logger.Trace(context.Background(), begin, func() (string, int64) {
		return query, rows
	}, err)

	return err
}
