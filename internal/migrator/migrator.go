package migrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/orm"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"

	DefaultMigrationsTable = "schema_migrations"
)

// ErrChecksumMismatch is returned when an applied migration file was edited.
var ErrChecksumMismatch = errors.New("migration checksum mismatch")

// Migration is one versioned SQL file split into its up and down halves.
type Migration struct {
	Name     string
	UpSQL    string
	DownSQL  string
	Checksum string
}

// Record is a row of the migrations table.
type Record struct {
	Name      string    `db:"name"`
	AppliedAt time.Time `db:"applied_at"`
	Checksum  string    `db:"checksum"`
}

// Status summarises the migrations table against the source.
type Status struct {
	Applied  []Record
	Pending  []Migration
	Changed  []string
	Orphaned []string
}

type Migrator struct {
	db     *sqlx.DB
	source fs.FS
	table  string
	tx     *orm.TransactionManager
	log    logger.Logger
}

type Option func(*Migrator)

// WithTable overrides the migrations bookkeeping table.
func WithTable(name string) Option {
	return func(m *Migrator) {
		m.table = name
	}
}

func WithLogger(log logger.Logger) Option {
	return func(m *Migrator) {
		m.log = log
	}
}

// New creates a migrator reading *.sql files from the root of source.
func New(db *sqlx.DB, source fs.FS, opts ...Option) *Migrator {
	m := &Migrator{
		db:     db,
		source: source,
		table:  DefaultMigrationsTable,
		tx:     orm.NewTransactionManager(db),
		log:    logger.Migration(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Up applies every pending migration in name order, each in its own
// transaction. It returns the names applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}

	if len(status.Changed) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, strings.Join(status.Changed, ", "))
	}
	for _, name := range status.Orphaned {
		m.log.Warn("applied migration missing from source", "migration", name)
	}

	applied := make([]string, 0, len(status.Pending))
	for _, migration := range status.Pending {
		start := time.Now()

		err := m.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			if err := execStatements(ctx, tx, migration.UpSQL); err != nil {
				return err
			}
			return m.recordMigration(ctx, tx, migration)
		})
		if err != nil {
			return applied, fmt.Errorf("failed to apply migration %s: %w", migration.Name, err)
		}

		m.log.Info("migration applied", "migration", migration.Name, "duration", time.Since(start))
		applied = append(applied, migration.Name)
	}

	return applied, nil
}

// Down rolls back the latest steps applied migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	migrations, err := LoadMigrations(m.source)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Migration, len(migrations))
	for _, migration := range migrations {
		byName[migration.Name] = migration
	}

	records, err := m.appliedRecords(ctx)
	if err != nil {
		return nil, err
	}

	rolledBack := make([]string, 0, steps)
	for i := len(records) - 1; i >= 0 && len(rolledBack) < steps; i-- {
		name := records[i].Name
		migration, ok := byName[name]
		if !ok {
			return rolledBack, fmt.Errorf("migration %s is applied but missing from source", name)
		}
		if migration.DownSQL == "" {
			return rolledBack, fmt.Errorf("no rollback script available for migration %s", name)
		}

		err := m.tx.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			if err := execStatements(ctx, tx, migration.DownSQL); err != nil {
				return err
			}
			return m.removeRecord(ctx, tx, name)
		})
		if err != nil {
			return rolledBack, fmt.Errorf("failed to roll back migration %s: %w", name, err)
		}

		m.log.Info("migration rolled back", "migration", name)
		rolledBack = append(rolledBack, name)
	}

	return rolledBack, nil
}

// Status compares the source against the migrations table.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	migrations, err := LoadMigrations(m.source)
	if err != nil {
		return nil, err
	}

	records, err := m.appliedRecords(ctx)
	if err != nil {
		return nil, err
	}

	status := &Status{Applied: records}

	appliedByName := make(map[string]Record, len(records))
	for _, record := range records {
		appliedByName[record.Name] = record
	}

	known := make(map[string]bool, len(migrations))
	for _, migration := range migrations {
		known[migration.Name] = true

		record, ok := appliedByName[migration.Name]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if record.Checksum != migration.Checksum {
			status.Changed = append(status.Changed, migration.Name)
		}
	}

	for _, record := range records {
		if !known[record.Name] {
			status.Orphaned = append(status.Orphaned, record.Name)
		}
	}

	return status, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    checksum VARCHAR(64) NOT NULL
)`, m.table)

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedRecords(ctx context.Context) ([]Record, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	var records []Record
	query := fmt.Sprintf("SELECT name, applied_at, checksum FROM %s ORDER BY name", m.table)
	if err := m.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	return records, nil
}

func (m *Migrator) recordMigration(ctx context.Context, tx *sqlx.Tx, migration Migration) error {
	query := fmt.Sprintf("INSERT INTO %s (name, checksum) VALUES ($1, $2)", m.table)
	if _, err := tx.ExecContext(ctx, query, migration.Name, migration.Checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

func (m *Migrator) removeRecord(ctx context.Context, tx *sqlx.Tx, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = $1", m.table)
	if _, err := tx.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return nil
}

func execStatements(ctx context.Context, tx *sqlx.Tx, script string) error {
	for _, stmt := range SplitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %s: %w", stmt, err)
		}
	}
	return nil
}

// LoadMigrations reads every *.sql file at the root of source, sorted by
// name.
func LoadMigrations(source fs.FS) ([]Migration, error) {
	files, err := fs.Glob(source, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migration files: %w", err)
	}
	sort.Strings(files)

	migrations := make([]Migration, 0, len(files))
	for _, file := range files {
		content, err := fs.ReadFile(source, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		migration, err := ParseMigration(strings.TrimSuffix(path.Base(file), ".sql"), string(content))
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	return migrations, nil
}

// ParseMigration splits a migration file on its Up and Down markers.
func ParseMigration(name, content string) (Migration, error) {
	upIdx := strings.Index(content, upMarker)
	if upIdx < 0 {
		return Migration{}, fmt.Errorf("migration %s has no %q section", name, upMarker)
	}

	body := content[upIdx+len(upMarker):]
	up, down, _ := strings.Cut(body, downMarker)

	up = strings.TrimSpace(up)
	if up == "" {
		return Migration{}, fmt.Errorf("migration %s has an empty up section", name)
	}

	return Migration{
		Name:     name,
		UpSQL:    up,
		DownSQL:  strings.TrimSpace(down),
		Checksum: checksum(up),
	}, nil
}

// SplitStatements drops comment lines and splits the rest on semicolons.
func SplitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func checksum(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}
