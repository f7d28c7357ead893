package clause

// Eq equal to for where
type Eq struct {
	Column string
	Value  interface{}
}

func (eq Eq) Build(builder Builder) {
	builder.WriteQuoted(eq.Column)
	if eq.Value == nil {
		builder.WriteString(" IS NULL")
	} else {
		builder.WriteString(" = ")
		builder.AddVar(eq.Value)
	}
}

func (eq Eq) NegationBuild(builder Builder) {
	Neq(eq).Build(builder)
}

// Neq not equal to for where
type Neq struct {
	Column string
	Value  interface{}
}

func (neq Neq) Build(builder Builder) {
	builder.WriteQuoted(neq.Column)
	if neq.Value == nil {
		builder.WriteString(" IS NOT NULL")
	} else {
		builder.WriteString(" <> ")
		builder.AddVar(neq.Value)
	}
}

func (neq Neq) NegationBuild(builder Builder) {
	Eq(neq).Build(builder)
}

// Gt greater than for where
type Gt struct {
	Column string
	Value  interface{}
}

func (gt Gt) Build(builder Builder) {
	builder.WriteQuoted(gt.Column)
	builder.WriteString(" > ")
	builder.AddVar(gt.Value)
}

func (gt Gt) NegationBuild(builder Builder) {
	Lte(gt).Build(builder)
}

// Gte greater than or equal to for where
type Gte struct {
	Column string
	Value  interface{}
}

func (gte Gte) Build(builder Builder) {
	builder.WriteQuoted(gte.Column)
	builder.WriteString(" >= ")
	builder.AddVar(gte.Value)
}

func (gte Gte) NegationBuild(builder Builder) {
	Lt(gte).Build(builder)
}

// Lt less than for where
type Lt struct {
	Column string
	Value  interface{}
}

func (lt Lt) Build(builder Builder) {
	builder.WriteQuoted(lt.Column)
	builder.WriteString(" < ")
	builder.AddVar(lt.Value)
}

func (lt Lt) NegationBuild(builder Builder) {
	Gte(lt).Build(builder)
}

// Lte less than or equal to for where
type Lte struct {
	Column string
	Value  interface{}
}

func (lte Lte) Build(builder Builder) {
	builder.WriteQuoted(lte.Column)
	builder.WriteString(" <= ")
	builder.AddVar(lte.Value)
}

func (lte Lte) NegationBuild(builder Builder) {
	Gt(lte).Build(builder)
}

// Like whether string matches regular expression
type Like struct {
	Column string
	Value  interface{}
}

func (like Like) Build(builder Builder) {
	builder.WriteQuoted(like.Column)
	builder.WriteString(" LIKE ")
	builder.AddVar(like.Value)
}

func (like Like) NegationBuild(builder Builder) {
	builder.WriteQuoted(like.Column)
	builder.WriteString(" NOT LIKE ")
	builder.AddVar(like.Value)
}

// Between range check, bounds inclusive
type Between struct {
	Column string
	Low    interface{}
	High   interface{}
}

func (between Between) Build(builder Builder) {
	builder.WriteQuoted(between.Column)
	builder.WriteString(" BETWEEN ")
	builder.AddVar(between.Low)
	builder.WriteString(" AND ")
	builder.AddVar(between.High)
}

func (between Between) NegationBuild(builder Builder) {
	builder.WriteQuoted(between.Column)
	builder.WriteString(" NOT BETWEEN ")
	builder.AddVar(between.Low)
	builder.WriteString(" AND ")
	builder.AddVar(between.High)
}

// IN whether a value is within a set of values. The empty set can
// never match, so it compiles to the unsatisfiable 1 = 0; the negated
// form compiles to the tautology 1 = 1.
type IN struct {
	Column string
	Values []interface{}
}

func (in IN) Build(builder Builder) {
	if len(in.Values) == 0 {
		builder.WriteString("1 = 0")
		return
	}

	builder.WriteQuoted(in.Column)
	builder.WriteString(" IN (")
	builder.AddVar(in.Values...)
	builder.WriteByte(')')
}

func (in IN) NegationBuild(builder Builder) {
	if len(in.Values) == 0 {
		builder.WriteString("1 = 1")
		return
	}

	builder.WriteQuoted(in.Column)
	builder.WriteString(" NOT IN (")
	builder.AddVar(in.Values...)
	builder.WriteByte(')')
}

// IsNull null check for where
type IsNull struct {
	Column string
}

func (is IsNull) Build(builder Builder) {
	builder.WriteQuoted(is.Column)
	builder.WriteString(" IS NULL")
}

func (is IsNull) NegationBuild(builder Builder) {
	IsNotNull(is).Build(builder)
}

// IsNotNull not-null check for where
type IsNotNull struct {
	Column string
}

func (is IsNotNull) Build(builder Builder) {
	builder.WriteQuoted(is.Column)
	builder.WriteString(" IS NOT NULL")
}

func (is IsNotNull) NegationBuild(builder Builder) {
	IsNull(is).Build(builder)
}

// JSONEq whole-value equality against a JSON column. Both sides go
// through json_extract so formatting differences in the stored text do
// not break equality.
type JSONEq struct {
	Column string
	Value  interface{}
}

func (eq JSONEq) Build(builder Builder) {
	builder.WriteString("json_extract(")
	builder.WriteQuoted(eq.Column)
	builder.WriteString(", '$') = json_extract(")
	builder.AddVar(eq.Value)
	builder.WriteString(", '$')")
}

// JSONContains element containment over a JSON array column: matches
// when any of Values occurs as an element (contains-any semantics).
type JSONContains struct {
	Column string
	Values []interface{}
}

func (contains JSONContains) Build(builder Builder) {
	if len(contains.Values) == 0 {
		builder.WriteString("1 = 0")
		return
	}

	builder.WriteString("EXISTS (SELECT 1 FROM json_each(")
	builder.WriteQuoted(contains.Column)
	builder.WriteString(") WHERE json_each.value IN (")
	builder.AddVar(contains.Values...)
	builder.WriteString("))")
}

// Includes single-element containment over a JSON array column.
type Includes struct {
	Column string
	Value  interface{}
}

func (includes Includes) Build(builder Builder) {
	builder.WriteString("EXISTS (SELECT 1 FROM json_each(")
	builder.WriteQuoted(includes.Column)
	builder.WriteString(") WHERE json_each.value = ")
	builder.AddVar(includes.Value)
	builder.WriteByte(')')
}
