// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Environment variables read on top of the config files.
const (
	EnvSupabaseURL     = "SUPABASE_URL"
	EnvSupabaseAnonKey = "SUPABASE_ANON_KEY"
	EnvBackend         = "TASKTRACKER_BACKEND"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvJWTSecret       = "JWT_SECRET"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvLogLevel        = "TASKTRACKER_LOG_LEVEL"
)

// Loader loads configuration from TOML files and the environment.
// Fields are ordered to minimize memory padding.
type Loader struct {
	lookupEnv     func(string) (string, bool)
	projectDir    string // Directory holding .tasktracker.toml and .env
	globalConfDir string // Path to global config directory (e.g., ~/.config/tasktracker)
	explicitPath  string // --config flag; replaces the project config when set
}

// NewLoader creates a new Loader rooted at the working directory.
func NewLoader(projectDir, explicitPath string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: DefaultGlobalConfigDir(),
		explicitPath:  explicitPath,
		lookupEnv:     os.LookupEnv,
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config
// directory and environment lookup. This is useful for testing.
func NewLoaderWithGlobalDir(projectDir, globalConfDir string, lookupEnv func(string) (string, bool)) *Loader {
	if lookupEnv == nil {
		lookupEnv = func(string) (string, bool) { return "", false }
	}
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: globalConfDir,
		lookupEnv:     lookupEnv,
	}
}

// DefaultGlobalConfigDir returns the default global config directory.
func DefaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalAppDir(configHome)
}

// DefaultStateDir returns the directory holding the session and logs.
func DefaultStateDir() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, domain.AppDirName)
}

// Load returns the merged configuration.
// Later sources take precedence: default <- global <- project <- environment.
func (l *Loader) Load() (*domain.Config, error) {
	base := domain.NewDefaultConfig()

	if l.globalConfDir != "" {
		global, err := l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		base.Merge(global)
	}

	projectPath := l.explicitPath
	if projectPath == "" {
		projectPath = domain.ProjectConfigPath(l.projectDir)
	}
	project, err := l.loadFile(projectPath)
	if err != nil {
		if l.explicitPath != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	base.Merge(project)

	env, err := l.loadEnv()
	if err != nil {
		return nil, err
	}
	base.Merge(env)

	return base, nil
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// loadEnv reads overrides from the process environment, falling back to
// a .env file in the project directory. Process variables win.
func (l *Loader) loadEnv() (*domain.Config, error) {
	dotenv, err := godotenv.Read(filepath.Join(l.projectDir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	get := func(key string) string {
		if v, ok := l.lookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}

	cfg := &domain.Config{}
	cfg.Supabase.URL = get(EnvSupabaseURL)
	cfg.Supabase.AnonKey = get(EnvSupabaseAnonKey)
	cfg.Backend = get(EnvBackend)
	cfg.Postgres.DSN = get(EnvDatabaseURL)
	cfg.Postgres.JWTSecret = get(EnvJWTSecret)
	cfg.Redis.Addr = get(EnvRedisAddr)
	cfg.Redis.Password = get(EnvRedisPassword)
	cfg.Log.Level = strings.ToLower(get(EnvLogLevel))
	return cfg, nil
}

// section maps known keys of a TOML table to setters.
type section map[string]func(v any) bool

func str(dst *string) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if ok {
			*dst = s
		}
		return ok
	}
}

func integer(dst *int) func(any) bool {
	return func(v any) bool {
		n, ok := v.(int64)
		if ok {
			*dst = int(n)
		}
		return ok
	}
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	sections := map[string]section{
		"supabase": {"url": str(&res.Supabase.URL), "anon_key": str(&res.Supabase.AnonKey)},
		"postgres": {"dsn": str(&res.Postgres.DSN), "jwt_secret": str(&res.Postgres.JWTSecret)},
		"redis":    {"addr": str(&res.Redis.Addr), "password": str(&res.Redis.Password), "db": integer(&res.Redis.DB)},
		"storage": {
			"bucket":     str(&res.Storage.Bucket),
			"namespace":  str(&res.Storage.Namespace),
			"dir":        str(&res.Storage.Dir),
			"public_url": str(&res.Storage.PublicURL),
		},
		"tasks":   {"table": str(&res.Tasks.Table)},
		"log":     {"level": str(&res.Log.Level)},
		"metrics": {"addr": str(&res.Metrics.Addr)},
	}

	var warnings []string
	for name, value := range raw {
		if name == "backend" {
			if !str(&res.Backend)(value) {
				warnings = append(warnings, "invalid value for backend: expected string")
			}
			continue
		}
		sec, ok := sections[name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", name))
			continue
		}
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("invalid section: %s", name))
			continue
		}
		for k, v := range m {
			set, known := sec[k]
			if !known {
				warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", name, k))
				continue
			}
			if !set(v) {
				warnings = append(warnings, fmt.Sprintf("invalid value for [%s].%s", name, k))
			}
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}
