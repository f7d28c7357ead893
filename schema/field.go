package schema

import (
	"fmt"
	"net/mail"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
)

// FieldType is the semantic type of a column. The SQL storage type is
// derived from it, see SQLType.
type FieldType string

const (
	TypeInteger  FieldType = "Integer"
	TypeFloat    FieldType = "Float"
	TypeBoolean  FieldType = "Boolean"
	TypeText     FieldType = "Text"
	TypePassword FieldType = "Password"
	TypeEmail    FieldType = "Email"
	TypeDateTime FieldType = "DateTime"
	TypeDate     FieldType = "Date"
	TypeUUID     FieldType = "UUID"
	TypeArray    FieldType = "Array"
	TypeJson     FieldType = "Json"
)

// SQLType returns the SQLite storage type for the field type.
func (t FieldType) SQLType() string {
	switch t {
	case TypeInteger, TypeBoolean:
		return "INTEGER"
	case TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// JSON reports whether values of this type are stored as JSON text.
func (t FieldType) JSON() bool {
	return t == TypeJson || t == TypeArray
}

// Cardinality of a reference: Many owning rows per target row, or one.
type Cardinality string

const (
	One  Cardinality = "One"
	Many Cardinality = "Many"
)

// Reference points a field at a column of another table.
type Reference struct {
	Table       string
	Field       string
	Cardinality Cardinality
}

type sentinel int

const (
	// Now is a default sentinel for DateTime fields, rendered as
	// CURRENT_TIMESTAMP in DDL.
	Now sentinel = iota + 1
	// GenerateUUID is a default sentinel for UUID fields, filled in at
	// insert time when the column is omitted.
	GenerateUUID
)

// Field describes a single column: semantic type, constraints, default
// and an optional reference. Fields are value objects, fully
// constructed at declaration time and never mutated afterwards.
type Field struct {
	Name          string
	Type          FieldType
	NotNull       bool
	Unique        bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       interface{}
	HasDefault    bool
	Enum          []interface{}
	Check         func(interface{}) bool
	Ref           *Reference
}

// Options configures a field constructor.
type Options struct {
	NotNull       bool
	Default       interface{}
	Enum          []interface{}
	PrimaryKey    bool
	Unique        bool
	AutoIncrement bool
	Check         func(interface{}) bool
}

func newField(t FieldType, opts []Options) Field {
	field := Field{Type: t}
	if len(opts) > 0 {
		o := opts[0]
		field.NotNull = o.NotNull
		field.Unique = o.Unique
		field.PrimaryKey = o.PrimaryKey
		field.AutoIncrement = o.AutoIncrement
		field.Enum = o.Enum
		field.Check = o.Check
		if o.Default != nil {
			field.Default = o.Default
			field.HasDefault = true
		}
	}
	return field
}

// Integer declares an INTEGER column.
func Integer(opts ...Options) Field { return newField(TypeInteger, opts) }

// Float declares a REAL column.
func Float(opts ...Options) Field { return newField(TypeFloat, opts) }

// Boolean declares an INTEGER column storing 0/1.
func Boolean(opts ...Options) Field { return newField(TypeBoolean, opts) }

// Text declares a TEXT column.
func Text(opts ...Options) Field { return newField(TypeText, opts) }

// Password declares a TEXT column whose values are bcrypt-hashed on
// write. Use VerifyPassword to compare a candidate against the stored
// hash.
func Password(opts ...Options) Field { return newField(TypePassword, opts) }

// Email declares a TEXT column validated as an address.
func Email(opts ...Options) Field { return newField(TypeEmail, opts) }

// DateTime declares a TEXT column storing RFC3339 timestamps.
func DateTime(opts ...Options) Field { return newField(TypeDateTime, opts) }

// Date declares a TEXT column storing YYYY-MM-DD dates.
func Date(opts ...Options) Field { return newField(TypeDate, opts) }

// UUID declares a TEXT column validated as a UUID.
func UUID(opts ...Options) Field { return newField(TypeUUID, opts) }

// Array declares a TEXT column storing a JSON array.
func Array(opts ...Options) Field { return newField(TypeArray, opts) }

// Json declares a TEXT column storing an arbitrary JSON document.
func Json(opts ...Options) Field { return newField(TypeJson, opts) }

// Reference returns a copy of the field pointing at table.field with
// the given cardinality. The receiver is left untouched.
func (field Field) Reference(table, name string, cardinality Cardinality) Field {
	field.Ref = &Reference{Table: table, Field: name, Cardinality: cardinality}
	return field
}

// Validate checks a non-nil application value against the field's
// declared type, enum and custom check. Nil handling (NOT NULL) is the
// table runtime's concern.
func (field Field) Validate(value interface{}) error {
	if value == nil {
		return nil
	}

	if err := field.checkType(value); err != nil {
		return err
	}

	if len(field.Enum) > 0 {
		found := false
		for _, allowed := range field.Enum {
			if reflect.DeepEqual(allowed, value) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("value %v not in enum for field %s", value, field.Name)
		}
	}

	if field.Check != nil && !field.Check(value) {
		return fmt.Errorf("check failed for field %s with value %v", field.Name, value)
	}

	return nil
}

func (field Field) checkType(value interface{}) error {
	switch field.Type {
	case TypeInteger:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return nil
		case float64:
			if v == float64(int64(v)) {
				return nil
			}
		case float32:
			if v == float32(int64(v)) {
				return nil
			}
		}
	case TypeFloat:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return nil
		}
	case TypeBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case TypeText, TypePassword:
		if _, ok := value.(string); ok {
			return nil
		}
	case TypeEmail:
		if s, ok := value.(string); ok {
			if _, err := mail.ParseAddress(s); err != nil {
				return fmt.Errorf("field %s: invalid email %q", field.Name, s)
			}
			return nil
		}
	case TypeDateTime, TypeDate:
		switch v := value.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := now.Parse(v); err != nil {
				return fmt.Errorf("field %s: unparseable time %q", field.Name, v)
			}
			return nil
		}
	case TypeUUID:
		if s, ok := value.(string); ok {
			if _, err := uuid.Parse(s); err != nil {
				return fmt.Errorf("field %s: invalid UUID %q", field.Name, s)
			}
			return nil
		}
	case TypeArray:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return nil
		}
	case TypeJson:
		return nil
	}

	return fmt.Errorf("field %s: value %v (%T) does not match type %s", field.Name, value, value, field.Type)
}
