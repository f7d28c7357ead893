package schema

import (
	"github.com/jinzhu/inflection"
)

// Namer derives physical table names from declared entity names.
type Namer interface {
	TableName(name string) string
}

// NamingStrategy pluralizes entity names into table names unless
// SingularTable is set, optionally applying a prefix.
type NamingStrategy struct {
	TablePrefix   string
	SingularTable bool
}

// TableName convert string to table name
func (ns NamingStrategy) TableName(name string) string {
	if ns.SingularTable {
		return ns.TablePrefix + name
	}
	return ns.TablePrefix + inflection.Plural(name)
}
