package clause

import (
	"strings"

	"github.com/iliesw/OptimaDB/utils"
)

// Expression expression interface
type Expression interface {
	Build(builder Builder)
}

// NegationExpressionBuilder negation expression builder
type NegationExpressionBuilder interface {
	NegationBuild(builder Builder)
}

// Builder accumulates SQL text and the ordered parameter list.
// Parameters are appended in the exact order their placeholders are
// written, so Vars always lines up with the '?' sequence.
type Builder interface {
	WriteString(string)
	WriteByte(byte) error
	WriteQuoted(name string)
	AddVar(values ...interface{})
}

// Statement is the concrete Builder used for every generated
// statement.
type Statement struct {
	SQL  strings.Builder
	Vars []interface{}
}

func (stmt *Statement) WriteString(s string) {
	stmt.SQL.WriteString(s)
}

func (stmt *Statement) WriteByte(c byte) error {
	return stmt.SQL.WriteByte(c)
}

// WriteQuoted write quoted identifier
func (stmt *Statement) WriteQuoted(name string) {
	stmt.SQL.WriteString(utils.QuoteIdent(name))
}

// AddVar writes one placeholder per value and records the values in
// order.
func (stmt *Statement) AddVar(values ...interface{}) {
	for idx, v := range values {
		if idx > 0 {
			stmt.SQL.WriteString(", ")
		}
		stmt.SQL.WriteByte('?')
		stmt.Vars = append(stmt.Vars, v)
	}
}

// Expr raw expression with optional vars
type Expr struct {
	SQL  string
	Vars []interface{}
}

// Build build raw expression
func (expr Expr) Build(builder Builder) {
	var idx int
	for _, c := range []byte(expr.SQL) {
		if c == '?' && idx < len(expr.Vars) {
			builder.AddVar(expr.Vars[idx])
			idx++
		} else {
			builder.WriteByte(c)
		}
	}
}
