package cli

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/iliesw/OptimaDB/logger"
	"github.com/iliesw/OptimaDB/migrator"
	"github.com/iliesw/OptimaDB/schema"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the physical schema in line with the declared tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		m := migrator.New(conn, logger.Default)

		for _, tc := range cfg.Tables {
			fields := make(schema.Fields, len(tc.Columns))
			for _, cc := range tc.Columns {
				field, err := cc.Field()
				if err != nil {
					return fmt.Errorf("table %s: %w", tc.Name, err)
				}
				fields[cc.Name] = field
			}

			sch, err := schema.New(tc.TableName(), fields)
			if err != nil {
				return err
			}

			state, err := m.Migrate(sch, tc.Renames)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", sch.Table, state)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func openDatabase(cfg *Config) (*sql.DB, error) {
	dsn := "file::memory:?_foreign_keys=1"
	if !cfg.Database.Memory && cfg.Database.Path != "" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=1", cfg.Database.Path)
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}
