package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	optima "github.com/iliesw/OptimaDB"
	"github.com/iliesw/OptimaDB/schema"
)

// Config is the top-level YAML configuration: where the database lives
// and which tables it declares.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Tables   []TableConfig  `yaml:"tables"`
}

// DatabaseConfig holds the database location.
type DatabaseConfig struct {
	Path   string `yaml:"path"`
	Memory bool   `yaml:"memory"`
}

// TableConfig declares one table.
type TableConfig struct {
	Name      string            `yaml:"name"`
	Pluralize bool              `yaml:"pluralize"`
	Renames   map[string]string `yaml:"renames"`
	Columns   []ColumnConfig    `yaml:"columns"`
}

// ColumnConfig declares one column.
type ColumnConfig struct {
	Name          string           `yaml:"name"`
	Type          string           `yaml:"type"`
	NotNull       bool             `yaml:"notNull"`
	Unique        bool             `yaml:"unique"`
	PrimaryKey    bool             `yaml:"primaryKey"`
	AutoIncrement bool             `yaml:"autoIncrement"`
	Default       interface{}      `yaml:"default"`
	Enum          []interface{}    `yaml:"enum"`
	Reference     *ReferenceConfig `yaml:"reference"`
}

// ReferenceConfig points a column at another table.
type ReferenceConfig struct {
	Table       string `yaml:"table"`
	Field       string `yaml:"field"`
	Cardinality string `yaml:"cardinality"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

var fieldCtors = map[string]func(...schema.Options) schema.Field{
	"Integer":  schema.Integer,
	"Float":    schema.Float,
	"Boolean":  schema.Boolean,
	"Text":     schema.Text,
	"Password": schema.Password,
	"Email":    schema.Email,
	"DateTime": schema.DateTime,
	"Date":     schema.Date,
	"UUID":     schema.UUID,
	"Array":    schema.Array,
	"Json":     schema.Json,
}

// TableName resolves the physical name of a declared table.
func (tc TableConfig) TableName() string {
	ns := schema.NamingStrategy{SingularTable: !tc.Pluralize}
	return ns.TableName(tc.Name)
}

// TableDefs converts the configuration into table declarations.
func (c *Config) TableDefs() ([]optima.TableDef, error) {
	defs := make([]optima.TableDef, 0, len(c.Tables))

	for _, tc := range c.Tables {
		fields := make(schema.Fields, len(tc.Columns))
		for _, cc := range tc.Columns {
			field, err := cc.Field()
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", tc.Name, err)
			}
			fields[cc.Name] = field
		}

		defs = append(defs, optima.TableDef{
			Name:    tc.TableName(),
			Fields:  fields,
			Renames: tc.Renames,
		})
	}

	return defs, nil
}

// Field converts a column declaration into a schema field.
func (cc ColumnConfig) Field() (schema.Field, error) {
	ctor, ok := fieldCtors[cc.Type]
	if !ok {
		return schema.Field{}, fmt.Errorf("column %s: unknown type %q", cc.Name, cc.Type)
	}

	opts := schema.Options{
		NotNull:       cc.NotNull,
		Unique:        cc.Unique,
		PrimaryKey:    cc.PrimaryKey,
		AutoIncrement: cc.AutoIncrement,
		Enum:          cc.Enum,
		Default:       cc.Default,
	}

	// sentinel defaults spelled as strings in YAML
	switch {
	case cc.Type == "DateTime" && cc.Default == "now":
		opts.Default = schema.Now
	case cc.Type == "UUID" && cc.Default == "generate":
		opts.Default = schema.GenerateUUID
	}

	field := ctor(opts)

	if cc.Reference != nil {
		cardinality := schema.Cardinality(cc.Reference.Cardinality)
		if cardinality != schema.One && cardinality != schema.Many {
			return schema.Field{}, fmt.Errorf("column %s: invalid cardinality %q", cc.Name, cc.Reference.Cardinality)
		}
		field = field.Reference(cc.Reference.Table, cc.Reference.Field, cardinality)
	}

	return field, nil
}
