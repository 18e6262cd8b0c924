package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/generator"
	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/models"
)

const (
	schemaMigrationName = "create_tasknest_schema"
	schemaMigrationFile = "0001_" + schemaMigrationName + ".sql"
)

func newSchemaCmd(a *app) *cobra.Command {
	var writeDir string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL generated from the models",
		Long: `Generate the schema migration from the model definitions without a database
connection. With --write the migration file is written into the given
directory, replacing the checked-in copy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := generateSchemaSQL()
			if err != nil {
				return err
			}

			if writeDir == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), sql)
				return err
			}

			path := filepath.Join(writeDir, schemaMigrationFile)
			if err := os.MkdirAll(writeDir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(sql), 0644); err != nil {
				return fmt.Errorf("failed to write schema: %w", err)
			}

			logger.Schema().Info("schema written", "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Schema written to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&writeDir, "write", "", "write the migration into this directory (e.g. ./migrations)")
	return cmd
}

func generateSchemaSQL() (string, error) {
	schema, err := generator.FromModels(models.All()...)
	if err != nil {
		return "", fmt.Errorf("failed to build schema from models: %w", err)
	}
	return generator.NewSQLGenerator().GenerateMigration(schema, schemaMigrationName)
}
