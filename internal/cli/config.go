package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/internal/reminder"
)

const (
	envConfig      = "TASKNEST_CONFIG"
	envDatabaseURL = "TASKNEST_DATABASE_URL"
)

var configLocations = []string{"tasknest.yaml", "tasknest.yml", ".tasknest.yaml", ".tasknest.yml"}

// Config represents the tasknest.yaml configuration structure
type Config struct {
	Database struct {
		URL             string        `yaml:"url"`
		Host            string        `yaml:"host"`
		Port            string        `yaml:"port"`
		User            string        `yaml:"user"`
		Password        string        `yaml:"password"`
		Name            string        `yaml:"name"`
		SSLMode         string        `yaml:"sslmode"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"database"`

	Migrations struct {
		Table string `yaml:"table"`
	} `yaml:"migrations"`

	Reminders struct {
		Interval   time.Duration `yaml:"interval"`
		BatchSize  uint64        `yaml:"batch_size"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"reminders"`

	Log struct {
		Format  string `yaml:"format"`
		Queries bool   `yaml:"queries"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	defaults := migrator.NewDBConfig("")

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.MaxIdleConns
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if c.Migrations.Table == "" {
		c.Migrations.Table = migrator.DefaultMigrationsTable
	}
	if c.Reminders.Interval == 0 {
		c.Reminders.Interval = reminder.DefaultInterval
	}
	if c.Reminders.BatchSize == 0 {
		c.Reminders.BatchSize = reminder.DefaultBatchSize
	}
	if c.Reminders.RetryDelay == 0 {
		c.Reminders.RetryDelay = reminder.DefaultRetryDelay
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// DatabaseURL returns the configured URL, or one assembled from the
// individual connection fields when a database name is set.
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	if c.Database.Name == "" || c.Database.User == "" {
		return ""
	}
	return migrator.GetDatabaseURL(c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// DBConfig converts the database section into pool settings for url.
func (c *Config) DBConfig(url string) *migrator.DBConfig {
	cfg := migrator.NewDBConfig(url)
	cfg.MaxOpenConns = c.Database.MaxOpenConns
	cfg.MaxIdleConns = c.Database.MaxIdleConns
	cfg.ConnMaxLifetime = c.Database.ConnMaxLifetime
	return cfg
}

// LoadDotEnv loads .env from the working directory if one exists. Variables
// already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadConfig reads path, or the first config file found by GetConfigPath
// when path is empty, and applies environment overrides. A missing default
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if url := os.Getenv(envDatabaseURL); url != "" {
		cfg.Database.URL = url
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Reminders.Interval < 0 {
		return errors.New("reminders.interval must be positive")
	}
	if c.Reminders.RetryDelay < 0 {
		return errors.New("reminders.retry_delay must be positive")
	}
	return nil
}

func GetConfigPath() string {
	if path := os.Getenv(envConfig); path != "" {
		return path
	}

	for _, loc := range configLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = configLocations[0]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
