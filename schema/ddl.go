package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iliesw/OptimaDB/utils"
)

// DDL returns the column definition fragment for the field, in fixed
// order: type, PRIMARY KEY, AUTOINCREMENT, NOT NULL, UNIQUE, DEFAULT,
// REFERENCES.
func (field Field) DDL() (string, error) {
	var sb strings.Builder

	sb.WriteString(utils.QuoteIdent(field.Name))
	sb.WriteByte(' ')
	sb.WriteString(field.Type.SQLType())

	if field.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
		if field.AutoIncrement && field.Type == TypeInteger {
			sb.WriteString(" AUTOINCREMENT")
		}
	}

	if field.NotNull {
		sb.WriteString(" NOT NULL")
	}

	if field.Unique {
		sb.WriteString(" UNIQUE")
	}

	if lit, ok, err := field.DefaultLiteral(); err != nil {
		return "", err
	} else if ok {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(lit)
	}

	if field.Ref != nil {
		if field.Ref.Table == "" || field.Ref.Field == "" {
			return "", fmt.Errorf("field %s: reference is missing target table or field", field.Name)
		}
		sb.WriteString(" REFERENCES ")
		sb.WriteString(utils.QuoteIdent(field.Ref.Table))
		sb.WriteByte('(')
		sb.WriteString(utils.QuoteIdent(field.Ref.Field))
		sb.WriteString(") ON DELETE CASCADE")
	}

	return sb.String(), nil
}

// DefaultLiteral formats the field's declared default as a SQL literal.
// The second return is false when the field has no DDL-level default;
// runtime sentinels like GenerateUUID are filled in on insert instead.
func (field Field) DefaultLiteral() (string, bool, error) {
	if !field.HasDefault {
		return "", false, nil
	}

	switch v := field.Default.(type) {
	case sentinel:
		if v == Now {
			return "CURRENT_TIMESTAMP", true, nil
		}
		return "", false, nil
	case bool:
		if v {
			return "1", true, nil
		}
		return "0", true, nil
	case string:
		switch field.Type {
		case TypeDateTime, TypeDate:
			t, err := toTime(v)
			if err != nil {
				return "", false, fmt.Errorf("field %s: default: %w", field.Name, err)
			}
			if field.Type == TypeDate {
				return utils.QuoteString(t.Format(DateLayout)), true, nil
			}
			return utils.QuoteString(t.UTC().Format(DateTimeLayout)), true, nil
		}
		return utils.QuoteString(v), true, nil
	case time.Time:
		if field.Type == TypeDate {
			return utils.QuoteString(v.Format(DateLayout)), true, nil
		}
		return utils.QuoteString(v.UTC().Format(DateTimeLayout)), true, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), true, nil
	default:
		if !field.Type.JSON() {
			return "", false, fmt.Errorf("field %s: unsupported default %v (%T)", field.Name, v, v)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", false, fmt.Errorf("field %s: serializing default: %w", field.Name, err)
		}
		return utils.QuoteString(string(data)), true, nil
	}
}

// CreateSQL returns the CREATE TABLE statement for the schema.
func (s *Schema) CreateSQL() (string, error) {
	return s.CreateSQLAs(s.Table)
}

// CreateSQLAs returns the CREATE TABLE statement with the table name
// overridden, used by the migration rebuild to create its temporary
// table from the declared schema.
func (s *Schema) CreateSQLAs(name string) (string, error) {
	cols := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		ddl, err := field.DDL()
		if err != nil {
			return "", fmt.Errorf("table %s: %w", s.Table, err)
		}
		cols = append(cols, ddl)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);",
		utils.QuoteIdent(name), strings.Join(cols, ", ")), nil
}
