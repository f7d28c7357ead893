package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliesw/OptimaDB/logger"
	"github.com/iliesw/OptimaDB/migrator"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the live tables and their physical columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		m := migrator.New(conn, logger.Default)

		tables, err := m.Tables()
		if err != nil {
			return err
		}

		for _, table := range tables {
			fmt.Println(table)

			columns, err := m.Columns(table)
			if err != nil {
				return err
			}
			for _, col := range columns {
				line := fmt.Sprintf("  %s %s", col.Name(), col.DatabaseTypeName())
				if nullable, ok := col.Nullable(); ok && !nullable {
					line += " NOT NULL"
				}
				if pk, ok := col.PrimaryKey(); ok && pk {
					line += " PRIMARY KEY"
				}
				if def, ok := col.DefaultValue(); ok {
					line += " DEFAULT " + def
				}
				fmt.Println(line)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
