package domain

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
)

//go:embed config_template.toml
var configTemplateContent string

// ConfigTemplate returns the commented config written by `config init`.
func ConfigTemplate() string {
	return configTemplateContent
}

// Backend drivers.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string       `toml:"-"`
	Backend  string         `toml:"backend"`
	Supabase SupabaseConfig `toml:"supabase"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Storage  StorageConfig  `toml:"storage"`
	Tasks    TasksConfig    `toml:"tasks"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// SupabaseConfig holds the [supabase] section.
type SupabaseConfig struct {
	URL     string `toml:"url,omitempty"`      // Project URL, e.g. https://xyz.supabase.co
	AnonKey string `toml:"anon_key,omitempty"` // Public anon key
}

// PostgresConfig holds the [postgres] section.
type PostgresConfig struct {
	DSN       string `toml:"dsn,omitempty"`        // Connection string
	JWTSecret string `toml:"jwt_secret,omitempty"` // HS256 secret for issued sessions
}

// RedisConfig holds the [redis] section.
// When Addr is set, the postgres backend fans change events out over Redis.
type RedisConfig struct {
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
}

// StorageConfig holds the [storage] section.
type StorageConfig struct {
	Bucket    string `toml:"bucket,omitempty"`     // Bucket images are uploaded to
	Namespace string `toml:"namespace,omitempty"`  // Path prefix inside the bucket
	Dir       string `toml:"dir,omitempty"`        // Local blob directory (postgres backend)
	PublicURL string `toml:"public_url,omitempty"` // Base URL serving Dir (postgres backend)
}

// TasksConfig holds the [tasks] section.
type TasksConfig struct {
	Table string `toml:"table,omitempty"` // Table name (default: tasks)
}

// LogConfig holds the [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // debug, info, warn, error
}

// MetricsConfig holds the [metrics] section.
type MetricsConfig struct {
	Addr string `toml:"addr,omitempty"` // Listen address for /metrics (empty = disabled)
}

// Default configuration values.
const (
	DefaultBucket    = "task-images"
	DefaultNamespace = "images"
	DefaultLogLevel  = "info"
)

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Backend: BackendSupabase,
		Storage: StorageConfig{
			Bucket:    DefaultBucket,
			Namespace: DefaultNamespace,
		},
		Tasks: TasksConfig{Table: DefaultTaskTable},
		Log:   LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return fmt.Errorf("%w: supabase.url and supabase.anon_key are required", ErrBackendConfig)
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("%w: postgres.dsn is required", ErrBackendConfig)
		}
		if c.Postgres.JWTSecret == "" {
			return fmt.Errorf("%w: postgres.jwt_secret is required", ErrBackendConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	return nil
}

// Merge overlays the non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	setString(&c.Backend, other.Backend)
	setString(&c.Supabase.URL, strings.TrimRight(other.Supabase.URL, "/"))
	setString(&c.Supabase.AnonKey, other.Supabase.AnonKey)
	setString(&c.Postgres.DSN, other.Postgres.DSN)
	setString(&c.Postgres.JWTSecret, other.Postgres.JWTSecret)
	setString(&c.Redis.Addr, other.Redis.Addr)
	setString(&c.Redis.Password, other.Redis.Password)
	if other.Redis.DB != 0 {
		c.Redis.DB = other.Redis.DB
	}
	setString(&c.Storage.Bucket, other.Storage.Bucket)
	setString(&c.Storage.Namespace, other.Storage.Namespace)
	setString(&c.Storage.Dir, other.Storage.Dir)
	setString(&c.Storage.PublicURL, other.Storage.PublicURL)
	setString(&c.Tasks.Table, other.Tasks.Table)
	setString(&c.Log.Level, other.Log.Level)
	setString(&c.Metrics.Addr, other.Metrics.Addr)
	c.Warnings = append(c.Warnings, other.Warnings...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Directory and file names.
const (
	AppDirName        = "tasktracker"       // Directory name under the config/state homes
	ConfigFileName    = "config.toml"       // Global config file name
	ProjectConfigName = ".tasktracker.toml" // Config file name in the working directory
	SessionFileName   = "session.json"      // Persisted session
	SessionKeyName    = "session.key"       // Key sealing the session file
	LogFileName       = "tasktracker.log"   // Diagnostic log
	BlobDirName       = "blobs"             // Default local blob directory
)

// GlobalAppDir returns the global app directory path.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalAppDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalAppDir(configHome), ConfigFileName)
}

// ProjectConfigPath returns the project config path inside dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigName)
}

// SessionPath returns the persisted session path.
func SessionPath(stateDir string) string {
	return filepath.Join(stateDir, SessionFileName)
}

// SessionKeyPath returns the path of the key that seals the session file.
func SessionKeyPath(stateDir string) string {
	return filepath.Join(stateDir, SessionKeyName)
}

// LogPath returns the diagnostic log path.
func LogPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", LogFileName)
}

// BlobDir returns the default local blob directory.
func BlobDir(stateDir string) string {
	return filepath.Join(stateDir, BlobDirName)
}
