package migrator

import (
	"database/sql"
)

// ColumnType describes one physical column as reported by the engine's
// introspection (PRAGMA table_info).
type ColumnType struct {
	NameValue         sql.NullString
	DataTypeValue     sql.NullString
	NullableValue     sql.NullBool
	DefaultValueValue sql.NullString
	PrimaryKeyValue   sql.NullBool
}

// Name returns the name of the column.
func (ct ColumnType) Name() string {
	return ct.NameValue.String
}

// DatabaseTypeName returns the declared storage type of the column.
func (ct ColumnType) DatabaseTypeName() string {
	return ct.DataTypeValue.String
}

// Nullable reports whether the column may be null.
func (ct ColumnType) Nullable() (nullable bool, ok bool) {
	return ct.NullableValue.Bool, ct.NullableValue.Valid
}

// PrimaryKey returns the column is primary key or not.
func (ct ColumnType) PrimaryKey() (isPrimaryKey bool, ok bool) {
	return ct.PrimaryKeyValue.Bool, ct.PrimaryKeyValue.Valid
}

// DefaultValue returns the default literal of the column.
func (ct ColumnType) DefaultValue() (value string, ok bool) {
	return ct.DefaultValueValue.String, ct.DefaultValueValue.Valid
}
