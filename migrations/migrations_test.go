package migrations_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/generator"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/migrations"
)

// The checked-in schema migration must match what the models generate, so a
// model change without `tasknest schema --write` fails here.
func TestInitialMigrationMatchesModels(t *testing.T) {
	schema, err := generator.FromModels(models.All()...)
	require.NoError(t, err)

	expected, err := generator.NewSQLGenerator().GenerateMigration(schema, "create_tasknest_schema")
	require.NoError(t, err)

	actual, err := fs.ReadFile(migrations.FS, "0001_create_tasknest_schema.sql")
	require.NoError(t, err)

	assert.Equal(t, expected, string(actual))
}

func TestEmbeddedMigrationsAreSQL(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		assert.Regexp(t, `^\d{4}_[a-z0-9_]+\.sql$`, entry.Name())
	}
}
