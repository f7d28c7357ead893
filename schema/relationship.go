package schema

// Relationship is a precomputed reverse edge: a sibling table whose
// ExternalField references this table's InternalField. Edges are built
// once after all tables are declared and are immutable afterwards.
type Relationship struct {
	Table         string
	ExternalField string
	InternalField string
	Cardinality   Cardinality
}

// ExtendKey is the row key under which a related table's rows are
// attached by an eager fetch.
func ExtendKey(table string) string {
	return "$" + table
}

// BuildRelationships scans every schema for fields referencing a
// sibling and returns the reverse-edge map keyed by target table.
func BuildRelationships(schemas map[string]*Schema) map[string][]Relationship {
	edges := make(map[string][]Relationship)

	for _, s := range schemas {
		for _, field := range s.Fields {
			if field.Ref == nil {
				continue
			}
			if _, ok := schemas[field.Ref.Table]; !ok {
				continue
			}
			edges[field.Ref.Table] = append(edges[field.Ref.Table], Relationship{
				Table:         s.Table,
				ExternalField: field.Name,
				InternalField: field.Ref.Field,
				Cardinality:   field.Ref.Cardinality,
			})
		}
	}

	return edges
}

// Relation finds the edge from table back to the sibling named name.
func Relation(edges map[string][]Relationship, table, name string) (Relationship, bool) {
	for _, rel := range edges[table] {
		if rel.Table == name {
			return rel, true
		}
	}
	return Relationship{}, false
}
