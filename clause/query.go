package clause

import "strconv"

// OrderBy order by column
type OrderBy struct {
	Column string
	Desc   bool
}

func (order OrderBy) Build(builder Builder) {
	builder.WriteString(" ORDER BY ")
	builder.WriteQuoted(order.Column)
	if order.Desc {
		builder.WriteString(" DESC")
	} else {
		builder.WriteString(" ASC")
	}
}

// Limit limit clause with optional offset; a zero limit emits nothing.
type Limit struct {
	Limit  int
	Offset int
}

func (limit Limit) Build(builder Builder) {
	if limit.Limit <= 0 {
		return
	}

	builder.WriteString(" LIMIT ")
	builder.WriteString(strconv.Itoa(limit.Limit))
	if limit.Offset > 0 {
		builder.WriteString(" OFFSET ")
		builder.WriteString(strconv.Itoa(limit.Offset))
	}
}

// Where renders a compiled predicate with its leading keyword. A nil
// expression emits nothing, so an empty filter selects everything.
type Where struct {
	Expr Expression
}

func (where Where) Build(builder Builder) {
	if where.Expr == nil {
		return
	}

	builder.WriteString(" WHERE ")
	where.Expr.Build(builder)
}
