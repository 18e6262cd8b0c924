package migrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/tasknest/internal/generator"
	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/testdb"
	"github.com/eleven-am/tasknest/migrations"
)

func TestIntegration_UpVerifyDown(t *testing.T) {
	tdb := testdb.New(t)
	ctx := context.Background()
	m := migrator.New(tdb.DB, migrations.FS, migrator.WithLogger(logger.Discard()))

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_tasknest_schema"}, applied)

	for _, table := range []string{"users", "tasks", "reminders", "progress", "exams"} {
		assert.True(t, tdb.TableExists(table), table)
	}
	assert.True(t, tdb.ConstraintExists("users", "uk_users_username"))
	assert.True(t, tdb.ConstraintExists("users", "uk_users_email"))
	assert.True(t, tdb.ConstraintExists("progress", "chk_progress_percentage"))
	assert.True(t, tdb.IndexExists("idx_tasks_deadline"))
	assert.Contains(t, tdb.ColumnDefault("tasks", "status"), "'pending'")
	assert.Contains(t, tdb.ColumnDefault("reminders", "is_sent"), "false")

	want, err := generator.FromModels(models.All()...)
	require.NoError(t, err)
	drifts, err := migrator.Verify(ctx, tdb.DB.DB, want, migrator.DefaultMigrationsTable)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Len(t, status.Applied, 1)
	assert.Empty(t, status.Pending)

	rolledBack, err := m.Down(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_tasknest_schema"}, rolledBack)
	assert.False(t, tdb.TableExists("users"))
}

func TestIntegration_VerifyDetectsDrift(t *testing.T) {
	tdb := testdb.NewMigrated(t)
	ctx := context.Background()

	require.NoError(t, tdb.ExecuteSQL(`
		ALTER TABLE exams DROP COLUMN location;
		ALTER TABLE tasks ADD COLUMN archived BOOLEAN;
	`))

	want, err := generator.FromModels(models.All()...)
	require.NoError(t, err)
	drifts, err := migrator.Verify(ctx, tdb.DB.DB, want, migrator.DefaultMigrationsTable)
	require.NoError(t, err)

	var found []string
	for _, d := range drifts {
		found = append(found, d.String())
	}
	assert.Contains(t, found, "exams.location: column missing")
	assert.Contains(t, found, "tasks.archived: unexpected column")
}
