package optima

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/iliesw/OptimaDB/clause"
	"github.com/iliesw/OptimaDB/schema"
)

// Filter is the structured query-condition surface: column names map
// to a scalar (equality), nil (IS NULL), a list (membership), or an
// operator object; the special keys $or / $and take lists of
// sub-filters.
type Filter map[string]interface{}

// CompileFilter turns a filter into a predicate expression for the
// given schema. Every literal is passed through the field's filter
// formatting first, so filter values and stored values share
// representation. Unknown columns and unknown operators fail
// compilation; nothing falls back to equality.
func CompileFilter(filter Filter, sch *schema.Schema) (clause.Expression, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		value := filter[key]

		switch key {
		case "$or", "$and":
			children, err := toFilterList(value)
			if err != nil {
				return nil, &CompileError{Table: sch.Table, Reason: fmt.Sprintf("%s: %v", key, err)}
			}

			sub := make([]clause.Expression, 0, len(children))
			for _, child := range children {
				expr, err := CompileFilter(child, sch)
				if err != nil {
					return nil, err
				}
				if expr != nil {
					sub = append(sub, expr)
				}
			}

			var expr clause.Expression
			if key == "$or" {
				expr = clause.Or(sub...)
			} else {
				expr = clause.And(sub...)
			}
			if expr != nil {
				exprs = append(exprs, expr)
			}
		default:
			expr, err := compileColumn(sch, key, value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
	}

	return clause.And(exprs...), nil
}

func compileColumn(sch *schema.Schema, column string, value interface{}) (clause.Expression, error) {
	field, ok := sch.Field(column)
	if !ok {
		return nil, &CompileError{Table: sch.Table, Column: column, Reason: "unknown column"}
	}

	if value == nil {
		return clause.Eq{Column: column, Value: nil}, nil
	}

	if ops, ok := toOperatorObject(value); ok {
		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)

		exprs := make([]clause.Expression, 0, len(names))
		for _, name := range names {
			expr, err := compileOperator(sch, field, name, ops[name])
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		return clause.And(exprs...), nil
	}

	if values, ok := toSlice(value); ok {
		if field.Type.JSON() {
			// bare list against a JSON column means contains-any
			return clause.JSONContains{Column: column, Values: values}, nil
		}
		formatted, err := formatList(sch, field, values)
		if err != nil {
			return nil, err
		}
		return clause.IN{Column: column, Values: formatted}, nil
	}

	return compileEquality(sch, field, value)
}

func compileEquality(sch *schema.Schema, field schema.Field, value interface{}) (clause.Expression, error) {
	formatted, err := formatScalar(sch, field, value)
	if err != nil {
		return nil, err
	}
	if field.Type.JSON() {
		return clause.JSONEq{Column: field.Name, Value: formatted}, nil
	}
	return clause.Eq{Column: field.Name, Value: formatted}, nil
}

func compileOperator(sch *schema.Schema, field schema.Field, name string, operand interface{}) (clause.Expression, error) {
	column := field.Name

	switch name {
	case "$eq":
		if operand == nil {
			return clause.IsNull{Column: column}, nil
		}
		return compileEquality(sch, field, operand)
	case "$ne":
		if operand == nil {
			return clause.IsNotNull{Column: column}, nil
		}
		formatted, err := formatScalar(sch, field, operand)
		if err != nil {
			return nil, err
		}
		return clause.Neq{Column: column, Value: formatted}, nil
	case "$gt", "$gte", "$lt", "$lte":
		formatted, err := formatScalar(sch, field, operand)
		if err != nil {
			return nil, err
		}
		switch name {
		case "$gt":
			return clause.Gt{Column: column, Value: formatted}, nil
		case "$gte":
			return clause.Gte{Column: column, Value: formatted}, nil
		case "$lt":
			return clause.Lt{Column: column, Value: formatted}, nil
		default:
			return clause.Lte{Column: column, Value: formatted}, nil
		}
	case "$like":
		pattern, ok := operand.(string)
		if !ok {
			return nil, &CompileError{Table: sch.Table, Column: column, Reason: "$like requires a string pattern"}
		}
		return clause.Like{Column: column, Value: pattern}, nil
	case "$between":
		bounds, ok := toSlice(operand)
		if !ok || len(bounds) != 2 {
			return nil, &CompileError{Table: sch.Table, Column: column, Reason: "$between requires a 2-element array"}
		}
		low, err := formatScalar(sch, field, bounds[0])
		if err != nil {
			return nil, err
		}
		high, err := formatScalar(sch, field, bounds[1])
		if err != nil {
			return nil, err
		}
		return clause.Between{Column: column, Low: low, High: high}, nil
	case "$in", "$nin":
		values, ok := toSlice(operand)
		if !ok {
			return nil, &CompileError{Table: sch.Table, Column: column, Reason: name + " requires an array"}
		}
		formatted, err := formatList(sch, field, values)
		if err != nil {
			return nil, err
		}
		in := clause.IN{Column: column, Values: formatted}
		if name == "$nin" {
			return clause.Not(in), nil
		}
		return in, nil
	case "$is":
		switch operand {
		case nil, "null":
			return clause.IsNull{Column: column}, nil
		case "not-null":
			return clause.IsNotNull{Column: column}, nil
		}
		return nil, &CompileError{Table: sch.Table, Column: column, Reason: `$is requires null, "null" or "not-null"`}
	case "$not":
		if operand == nil {
			return clause.IsNotNull{Column: column}, nil
		}
		if ops, ok := toOperatorObject(operand); ok {
			names := make([]string, 0, len(ops))
			for n := range ops {
				names = append(names, n)
			}
			sort.Strings(names)

			exprs := make([]clause.Expression, 0, len(names))
			for _, n := range names {
				expr, err := compileOperator(sch, field, n, ops[n])
				if err != nil {
					return nil, err
				}
				exprs = append(exprs, expr)
			}
			return clause.Not(clause.And(exprs...)), nil
		}
		if values, ok := toSlice(operand); ok {
			formatted, err := formatList(sch, field, values)
			if err != nil {
				return nil, err
			}
			return clause.Not(clause.IN{Column: column, Values: formatted}), nil
		}
		formatted, err := formatScalar(sch, field, operand)
		if err != nil {
			return nil, err
		}
		return clause.Neq{Column: column, Value: formatted}, nil
	case "$includes":
		if !field.Type.JSON() {
			return nil, &CompileError{Table: sch.Table, Column: column, Reason: "$includes is only supported on Json and Array columns"}
		}
		return clause.Includes{Column: column, Value: operand}, nil
	}

	return nil, &CompileError{Table: sch.Table, Column: column, Reason: fmt.Sprintf("unknown operator %q", name)}
}

func formatScalar(sch *schema.Schema, field schema.Field, value interface{}) (interface{}, error) {
	formatted, err := field.FormatFilter(value)
	if err != nil {
		return nil, &CompileError{Table: sch.Table, Column: field.Name, Reason: err.Error()}
	}
	return formatted, nil
}

func formatList(sch *schema.Schema, field schema.Field, values []interface{}) ([]interface{}, error) {
	formatted := make([]interface{}, len(values))
	for i, v := range values {
		f, err := formatScalar(sch, field, v)
		if err != nil {
			return nil, err
		}
		formatted[i] = f
	}
	return formatted, nil
}

// toOperatorObject recognizes a map whose keys all start with '$'.
func toOperatorObject(value interface{}) (map[string]interface{}, bool) {
	var m map[string]interface{}
	switch v := value.(type) {
	case map[string]interface{}:
		m = v
	case Filter:
		m = v
	default:
		return nil, false
	}

	if len(m) == 0 {
		return nil, false
	}
	for key := range m {
		if len(key) == 0 || key[0] != '$' {
			return nil, false
		}
	}
	return m, true
}

func toSlice(value interface{}) ([]interface{}, bool) {
	if values, ok := value.([]interface{}); ok {
		return values, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, ok := value.([]byte); ok {
		return nil, false
	}

	values := make([]interface{}, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}

func toFilterList(value interface{}) ([]Filter, error) {
	switch v := value.(type) {
	case []Filter:
		return v, nil
	case []map[string]interface{}:
		filters := make([]Filter, len(v))
		for i, m := range v {
			filters[i] = Filter(m)
		}
		return filters, nil
	case []interface{}:
		filters := make([]Filter, len(v))
		for i, item := range v {
			switch m := item.(type) {
			case Filter:
				filters[i] = m
			case map[string]interface{}:
				filters[i] = Filter(m)
			default:
				return nil, fmt.Errorf("expected a list of sub-filters, got %T", item)
			}
		}
		return filters, nil
	}
	return nil, fmt.Errorf("expected a list of sub-filters, got %T", value)
}
