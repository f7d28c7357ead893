package schema

import (
	"fmt"
	"sort"
)

// Fields maps column names to field declarations.
type Fields map[string]Field

// Schema is a table name plus its ordered column declarations. Built
// once per table declaration and immutable afterwards; primary-key
// columns sort first, the rest follow in name order so generated SQL
// is deterministic.
type Schema struct {
	Table  string
	Fields []Field

	byName map[string]Field
}

// New builds a schema from a table name and field declarations. Field
// names are taken from the map keys; reference metadata is checked
// here so malformed declarations fail at initialization, not at first
// query.
func New(table string, fields Fields) (*Schema, error) {
	if table == "" {
		return nil, fmt.Errorf("schema: empty table name")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields declared", table)
	}

	s := &Schema{
		Table:  table,
		byName: make(map[string]Field, len(fields)),
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		fi, fj := fields[names[i]], fields[names[j]]
		if fi.PrimaryKey != fj.PrimaryKey {
			return fi.PrimaryKey
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		field := fields[name]
		field.Name = name
		if field.Ref != nil && (field.Ref.Table == "" || field.Ref.Field == "") {
			return nil, fmt.Errorf("schema %s: field %s: reference is missing target table or field", table, name)
		}
		if field.Ref != nil && field.Ref.Cardinality != One && field.Ref.Cardinality != Many {
			return nil, fmt.Errorf("schema %s: field %s: invalid cardinality %q", table, name, field.Ref.Cardinality)
		}
		s.Fields = append(s.Fields, field)
		s.byName[name] = field
	}

	return s, nil
}

// Field looks a column up by name.
func (s *Schema) Field(name string) (Field, bool) {
	field, ok := s.byName[name]
	return field, ok
}

// FieldNames returns the declared column names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, field := range s.Fields {
		names[i] = field.Name
	}
	return names
}

// PrimaryField returns the primary-key column, if declared.
func (s *Schema) PrimaryField() (Field, bool) {
	for _, field := range s.Fields {
		if field.PrimaryKey {
			return field, true
		}
	}
	return Field{}, false
}
