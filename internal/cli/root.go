// Package cli implements the tasknest command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/store"
	"github.com/eleven-am/tasknest/pkg/tasknest"
)

// commandTimeout bounds every command except the long-running dispatcher.
const commandTimeout = 5 * time.Minute

// openDB connects to the database. Tests swap it for sqlmock.
var openDB = func(ctx context.Context, cfg *migrator.DBConfig) (*sqlx.DB, error) {
	return cfg.Connect(ctx)
}

// app carries the persistent flags and loaded configuration shared by all
// commands.
type app struct {
	configFile  string
	databaseURL string
	username    string
	logFormat   string
	debug       bool
	verbose     bool
	jsonOutput  bool

	cfg *Config
	log logger.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "tasknest",
		Short: "TaskNest - student task planner",
		Long: `TaskNest keeps track of a student's tasks, reminders, progress and exams
in PostgreSQL.

Use "tasknest migrate up" to create the schema, then manage data with the
user, task, progress, reminder and exam commands.`,
		Version:       tasknest.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: tasknest.yaml)")
	flags.StringVar(&a.databaseURL, "url", "", "database connection URL")
	flags.StringVarP(&a.username, "user", "u", "", "act as this user (username)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug output")
	flags.BoolVar(&a.verbose, "verbose", false, "enable verbose output")
	flags.BoolVar(&a.jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newMigrateCmd(a),
		newSchemaCmd(a),
		newVerifyCmd(a),
		newUserCmd(a),
		newTaskCmd(a),
		newProgressCmd(a),
		newReminderCmd(a),
		newExamCmd(a),
		newDashboardCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := LoadDotEnv(); err != nil {
		cmd.PrintErrf("Warning: %v\n", err)
	}

	cfg, err := LoadConfig(a.configFile)
	if err != nil {
		if a.configFile != "" {
			return err
		}
		cmd.PrintErrf("Warning: Failed to load config file: %v\n", err)
		cfg = DefaultConfig()
	}
	a.cfg = cfg

	format := a.logFormat
	if format == "" {
		format = cfg.Log.Format
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown log format %q", format)
	}

	logger.Setup(logger.Options{
		Output:  cmd.ErrOrStderr(),
		Debug:   a.debug,
		Verbose: a.verbose,
		JSON:    format == "json",
	})
	a.log = logger.CLI()
	return nil
}

func (a *app) dsn() (string, error) {
	if a.databaseURL != "" {
		return a.databaseURL, nil
	}
	if url := a.cfg.DatabaseURL(); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("database connection required: use --url, %s or tasknest.yaml", envDatabaseURL)
}

func (a *app) connect(ctx context.Context) (*sqlx.DB, error) {
	dsn, err := a.dsn()
	if err != nil {
		return nil, err
	}
	return openDB(ctx, a.cfg.DBConfig(dsn))
}

// openStore connects and wraps the pool in a store. The returned func
// closes the pool.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	db, err := a.connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []store.Option{}
	if a.cfg.Log.Queries || a.verbose {
		opts = append(opts, store.WithQueryLogging())
	}

	s, err := store.New(db, opts...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, func() { db.Close() }, nil
}

// currentUser resolves --user.
func (a *app) currentUser(ctx context.Context, s *store.Store) (*models.User, error) {
	if a.username == "" {
		return nil, fmt.Errorf("--user is required")
	}
	return s.GetUserByUsername(ctx, a.username)
}

// withUserStore runs fn with an open store and the resolved --user.
func (a *app) withUserStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store, user *models.User) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := a.currentUser(ctx, s)
	if err != nil {
		return err
	}
	return fn(ctx, s, user)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
