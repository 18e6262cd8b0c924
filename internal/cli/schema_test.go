package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/migrations"
)

func TestSchemaCommand(t *testing.T) {
	embedded, err := fs.ReadFile(migrations.FS, schemaMigrationFile)
	require.NoError(t, err)

	t.Run("prints the migration", func(t *testing.T) {
		out, err := execute(t, "schema")
		require.NoError(t, err)
		assert.Equal(t, string(embedded), out)
	})

	t.Run("writes the migration", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "migrations")

		out, err := execute(t, "schema", "--write", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Schema written to:")

		written, err := os.ReadFile(filepath.Join(dir, schemaMigrationFile))
		require.NoError(t, err)
		assert.Equal(t, embedded, written)
	})
}
