package schema

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DateTimeLayout is the storage representation for DateTime fields.
	DateTimeLayout = time.RFC3339
	// DateLayout is the storage representation for Date fields.
	DateLayout = "2006-01-02"
)

// FormatInbound converts an application value to its storage
// representation. Nil passes through.
func (field Field) FormatInbound(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch field.Type {
	case TypeInteger:
		return toInt64(value)
	case TypeFloat:
		return toFloat64(value)
	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("field %s: expected bool, got %T", field.Name, value)
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case TypeText, TypeEmail:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected string, got %T", field.Name, value)
		}
		return s, nil
	case TypePassword:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected string, got %T", field.Name, value)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("field %s: hashing password: %w", field.Name, err)
		}
		return string(hash), nil
	case TypeDateTime:
		t, err := toTime(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return t.UTC().Format(DateTimeLayout), nil
	case TypeDate:
		t, err := toTime(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return t.Format(DateLayout), nil
	case TypeUUID:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected UUID string, got %T", field.Name, value)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return id.String(), nil
	case TypeArray, TypeJson:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: serializing value: %w", field.Name, err)
		}
		return string(data), nil
	}

	return value, nil
}

// FormatFilter converts a filter literal to the representation stored
// values share. Identical to FormatInbound except for Password: bcrypt
// is salted, so a fresh hash would never match, and filter values are
// compared against the stored hash text as given.
func (field Field) FormatFilter(value interface{}) (interface{}, error) {
	if field.Type == TypePassword {
		return value, nil
	}
	return field.FormatInbound(value)
}

// FormatOutbound converts a storage value back to its application
// representation. Nil passes through.
func (field Field) FormatOutbound(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch field.Type {
	case TypeInteger:
		return toInt64(value)
	case TypeBoolean:
		n, err := toInt64(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		return n != 0, nil
	case TypeFloat:
		return toFloat64(value)
	case TypeDateTime:
		s, err := toStoredString(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		t, err := time.Parse(DateTimeLayout, s)
		if err != nil {
			// tolerate engine-side CURRENT_TIMESTAMP defaults
			t, err = now.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("field %s: parsing stored time %q: %w", field.Name, s, err)
			}
		}
		return t, nil
	case TypeDate:
		s, err := toStoredString(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("field %s: parsing stored date %q: %w", field.Name, s, err)
		}
		return t, nil
	case TypeArray, TypeJson:
		s, err := toStoredString(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		var out interface{}
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, fmt.Errorf("field %s: parsing stored JSON: %w", field.Name, err)
		}
		return out, nil
	case TypeText, TypePassword, TypeEmail, TypeUUID:
		return toStoredString(value)
	}

	return value, nil
}

// VerifyPassword compares a stored Password value against a candidate
// plaintext.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}

func toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	n, err := toInt64(value)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %T", value)
	}
	return float64(n), nil
}

func toTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return now.Parse(v)
	}
	return time.Time{}, fmt.Errorf("expected time or string, got %T", value)
}

func toStoredString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("expected stored text, got %T", value)
}
