package optima

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliesw/OptimaDB/clause"
	"github.com/iliesw/OptimaDB/schema"
	"github.com/iliesw/OptimaDB/utils"
)

// Table is the per-table runtime: it builds and executes CRUD
// statements, applies field-level value transforms, runs validation,
// and raises change notifications.
type Table struct {
	db     *DB
	Schema *schema.Schema
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.Schema.Table
}

// QueryOptions tunes a read: ordering, paging, and eager loading of
// related tables by name.
type QueryOptions struct {
	Order  string
	Desc   bool
	Limit  int
	Offset int
	Extend []string
}

// Insert validates and writes one row, returning the stored row with
// outbound formatting applied (engine-side defaults included).
func (t *Table) Insert(row Row) (Row, error) {
	for name := range row {
		if _, ok := t.Schema.Field(name); !ok {
			return nil, &SchemaError{Table: t.Name(), Field: name, Reason: "unknown column"}
		}
	}

	var (
		columns []string
		args    []interface{}
	)

	for _, field := range t.Schema.Fields {
		value, present := row[field.Name]

		if present && value == nil {
			if field.NotNull {
				return nil, &SchemaError{Table: t.Name(), Field: field.Name, Reason: "null value in not-null column"}
			}
			continue
		}

		if !present {
			if field.HasDefault {
				if field.Default == schema.GenerateUUID {
					columns = append(columns, field.Name)
					args = append(args, uuid.NewString())
				}
				// other defaults are filled in by the engine
				continue
			}
			if field.NotNull && !field.AutoIncrement {
				return nil, &SchemaError{Table: t.Name(), Field: field.Name, Reason: "missing required column"}
			}
			continue
		}

		if err := field.Validate(value); err != nil {
			return nil, &ValidationError{Table: t.Name(), Field: field.Name, Value: value, Err: err}
		}

		stored, err := field.FormatInbound(value)
		if err != nil {
			return nil, &ValidationError{Table: t.Name(), Field: field.Name, Value: value, Err: err}
		}

		columns = append(columns, field.Name)
		args = append(args, stored)
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = utils.QuoteIdent(col)
		marks[i] = "?"
	}

	var query string
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", utils.QuoteIdent(t.Name()))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			utils.QuoteIdent(t.Name()), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	}

	result, err := t.db.exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.Name(), err)
	}

	t.db.notify(t.Name())

	rowid, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.Name(), err)
	}

	stored, err := t.selectRows(fmt.Sprintf("SELECT * FROM %s WHERE rowid = ?", utils.QuoteIdent(t.Name())), rowid)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("table %s: %w", t.Name(), ErrRecordNotFound)
	}
	return stored[0], nil
}

// Get returns every row matching the filter, outbound-formatted, with
// any requested related tables attached.
func (t *Table) Get(filter Filter, opts *QueryOptions) ([]Row, error) {
	expr, err := CompileFilter(filter, t.Schema)
	if err != nil {
		return nil, err
	}

	stmt := &clause.Statement{}
	stmt.WriteString("SELECT * FROM ")
	stmt.WriteQuoted(t.Name())
	clause.Where{Expr: expr}.Build(stmt)

	if opts != nil {
		if opts.Order != "" {
			if _, ok := t.Schema.Field(opts.Order); !ok {
				return nil, &CompileError{Table: t.Name(), Column: opts.Order, Reason: "unknown order column"}
			}
			clause.OrderBy{Column: opts.Order, Desc: opts.Desc}.Build(stmt)
		}
		clause.Limit{Limit: opts.Limit, Offset: opts.Offset}.Build(stmt)
	}

	rows, err := t.selectRows(stmt.SQL.String(), stmt.Vars...)
	if err != nil {
		return nil, err
	}

	if opts != nil && len(opts.Extend) > 0 {
		if err := t.extend(rows, opts.Extend); err != nil {
			return nil, err
		}
	}

	return rows, nil
}

// GetOne returns the first matching row, or nil when nothing matches.
// Limit is forced to one; ordering and offset apply as given.
func (t *Table) GetOne(filter Filter, opts *QueryOptions) (Row, error) {
	one := QueryOptions{Limit: 1}
	if opts != nil {
		one = *opts
		one.Limit = 1
	}

	rows, err := t.Get(filter, &one)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Update applies the change set to every row matching the filter and
// returns the number of affected rows.
func (t *Table) Update(changes Row, filter Filter) (int64, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	for name := range changes {
		if _, ok := t.Schema.Field(name); !ok {
			return 0, &SchemaError{Table: t.Name(), Field: name, Reason: "unknown column"}
		}
	}

	expr, err := CompileFilter(filter, t.Schema)
	if err != nil {
		return 0, err
	}

	stmt := &clause.Statement{}
	stmt.WriteString("UPDATE ")
	stmt.WriteQuoted(t.Name())
	stmt.WriteString(" SET ")

	first := true
	for _, field := range t.Schema.Fields {
		value, present := changes[field.Name]
		if !present {
			continue
		}

		if value == nil {
			if field.NotNull {
				return 0, &SchemaError{Table: t.Name(), Field: field.Name, Reason: "null value in not-null column"}
			}
		} else {
			if err := field.Validate(value); err != nil {
				return 0, &ValidationError{Table: t.Name(), Field: field.Name, Value: value, Err: err}
			}
			if value, err = field.FormatInbound(value); err != nil {
				return 0, &ValidationError{Table: t.Name(), Field: field.Name, Value: changes[field.Name], Err: err}
			}
		}

		if !first {
			stmt.WriteString(", ")
		}
		first = false
		stmt.WriteQuoted(field.Name)
		stmt.WriteString(" = ")
		stmt.AddVar(value)
	}

	clause.Where{Expr: expr}.Build(stmt)

	result, err := t.db.exec(stmt.SQL.String(), stmt.Vars...)
	if err != nil {
		return 0, fmt.Errorf("table %s: %w", t.Name(), err)
	}

	t.db.notify(t.Name())

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Delete removes every row matching the filter and returns the number
// of affected rows.
func (t *Table) Delete(filter Filter) (int64, error) {
	expr, err := CompileFilter(filter, t.Schema)
	if err != nil {
		return 0, err
	}

	stmt := &clause.Statement{}
	stmt.WriteString("DELETE FROM ")
	stmt.WriteQuoted(t.Name())
	clause.Where{Expr: expr}.Build(stmt)

	result, err := t.db.exec(stmt.SQL.String(), stmt.Vars...)
	if err != nil {
		return 0, fmt.Errorf("table %s: %w", t.Name(), err)
	}

	t.db.notify(t.Name())

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Count returns the number of rows matching the filter.
func (t *Table) Count(filter Filter) (int64, error) {
	expr, err := CompileFilter(filter, t.Schema)
	if err != nil {
		return 0, err
	}

	stmt := &clause.Statement{}
	stmt.WriteString("SELECT COUNT(*) AS count FROM ")
	stmt.WriteQuoted(t.Name())
	clause.Where{Expr: expr}.Build(stmt)

	rows, err := t.db.query(stmt.SQL.String(), stmt.Vars...)
	if err != nil {
		return 0, fmt.Errorf("table %s: %w", t.Name(), err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("table %s: %w", t.Name(), err)
		}
	}
	return count, rows.Err()
}

// extend eagerly fetches the requested related tables and attaches
// them to each row under the $-prefixed sibling name.
func (t *Table) extend(rows []Row, names []string) error {
	for _, name := range names {
		rel, ok := schema.Relation(t.db.relationships, t.Name(), name)
		if !ok {
			return &SchemaError{Table: t.Name(), Field: name, Reason: "unknown extend relation"}
		}

		sibling, err := t.db.Table(rel.Table)
		if err != nil {
			return err
		}

		key := schema.ExtendKey(name)
		for _, row := range rows {
			filter := Filter{rel.ExternalField: row[rel.InternalField]}
			if rel.Cardinality == schema.Many {
				related, err := sibling.Get(filter, nil)
				if err != nil {
					return err
				}
				row[key] = related
			} else {
				related, err := sibling.GetOne(filter, nil)
				if err != nil {
					return err
				}
				row[key] = related
			}
		}
	}
	return nil
}

func (t *Table) selectRows(query string, args ...interface{}) ([]Row, error) {
	rows, err := t.db.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.Name(), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		raw := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(Row, len(columns))
		for i, col := range columns {
			value := raw[i]
			if field, ok := t.Schema.Field(col); ok {
				value, err = field.FormatOutbound(value)
				if err != nil {
					return nil, fmt.Errorf("table %s: %w", t.Name(), err)
				}
			}
			record[col] = value
		}
		out = append(out, record)
	}

	return out, rows.Err()
}
