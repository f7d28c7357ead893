package clause

// And groups expressions with AND. Returns nil for an empty list so an
// empty group omits the clause entirely.
func And(exprs ...Expression) Expression {
	if len(exprs) == 0 {
		return nil
	}

	if len(exprs) == 1 {
		return exprs[0]
	}

	return AndConditions{Exprs: exprs}
}

type AndConditions struct {
	Exprs []Expression
}

func (and AndConditions) Build(builder Builder) {
	buildExprs(and.Exprs, builder, " AND ")
}

// Or groups expressions with OR. Returns nil for an empty list.
func Or(exprs ...Expression) Expression {
	if len(exprs) == 0 {
		return nil
	}

	if len(exprs) == 1 {
		return exprs[0]
	}

	return OrConditions{Exprs: exprs}
}

type OrConditions struct {
	Exprs []Expression
}

func (or OrConditions) Build(builder Builder) {
	buildExprs(or.Exprs, builder, " OR ")
}

func buildExprs(exprs []Expression, builder Builder, joinCond string) {
	for idx, expr := range exprs {
		if idx > 0 {
			builder.WriteString(joinCond)
		}
		builder.WriteByte('(')
		expr.Build(builder)
		builder.WriteByte(')')
	}
}

// Not negates an expression, preferring the expression's own negation
// when it has one.
func Not(expr Expression) Expression {
	if expr == nil {
		return nil
	}
	return NotConditions{Expr: expr}
}

type NotConditions struct {
	Expr Expression
}

func (not NotConditions) Build(builder Builder) {
	if negationBuilder, ok := not.Expr.(NegationExpressionBuilder); ok {
		negationBuilder.NegationBuild(builder)
		return
	}

	builder.WriteString("NOT (")
	not.Expr.Build(builder)
	builder.WriteByte(')')
}
