// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/config"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/crypto"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/jsonstore"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/localblob"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/logging"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/memory"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/metrics"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/postgres"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/redisstream"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/supabase"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
)

// Options selects where configuration and state come from.
type Options struct {
	Dir        string // Working directory holding .tasktracker.toml and .env
	ConfigPath string // Explicit config file replacing the project config
	Backend    string // Overrides the configured backend driver
	StateDir   string // Session and log directory (empty = XDG state dir)
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Identity      domain.IdentityService
	Tasks         domain.TaskStore
	Blobs         domain.BlobStore
	Changes       domain.ChangeStream
	Sessions      domain.SessionStore
	Clock         domain.Clock
	Log           domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	AppConfig *domain.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	logFile   *logging.Logger
	closers   []func()

	StateDir string
}

// Load reads the configuration and sets up logging and session storage.
// Backend adapters are not created until Connect.
func Load(opts Options) (*Container, error) {
	stateDir := opts.StateDir
	if stateDir == "" {
		stateDir = config.DefaultStateDir()
	}

	loader := config.NewLoader(opts.Dir, opts.ConfigPath)
	appConfig, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if opts.Backend != "" {
		appConfig.Backend = opts.Backend
	}

	sealer, err := crypto.NewEncryptorFromFile(domain.SessionKeyPath(stateDir))
	if err != nil {
		return nil, fmt.Errorf("load session key: %w", err)
	}

	logFile := logging.New(stateDir, logging.ParseLevel(appConfig.Log.Level))
	return &Container{
		Sessions:      jsonstore.NewSealed(domain.SessionPath(stateDir), sealer),
		Clock:         domain.RealClock{},
		Log:           logFile,
		ConfigLoader:  loader,
		ConfigManager: config.NewManager(opts.Dir),
		AppConfig:     appConfig,
		Logger:        logFile.Slog(),
		Metrics:       metrics.New(),
		logFile:       logFile,
		StateDir:      stateDir,
	}, nil
}

// New loads the configuration and connects the configured backend.
func New(ctx context.Context, opts Options) (*Container, error) {
	c, err := Load(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Connect validates the configuration and creates the backend adapters,
// each instrumented with Metrics.
func (c *Container) Connect(ctx context.Context) error {
	cfg := c.AppConfig
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		identity domain.IdentityService
		tasks    domain.TaskStore
		blobs    domain.BlobStore
		changes  domain.ChangeStream
	)
	switch cfg.Backend {
	case domain.BackendSupabase:
		b := supabase.NewBackend(supabase.Options{
			Logger:  c.Logger,
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
		}, cfg.Tasks.Table, c.Sessions, c.Clock)
		identity, tasks, blobs, changes = b.Auth, b.Tasks, b.Storage, b.Realtime

	case domain.BackendPostgres:
		b, err := postgres.Open(ctx, postgres.Options{
			Logger:    c.Logger,
			Clock:     c.Clock,
			Sessions:  c.Sessions,
			DSN:       cfg.Postgres.DSN,
			JWTSecret: cfg.Postgres.JWTSecret,
			Table:     cfg.Tasks.Table,
		})
		if err != nil {
			return err
		}
		c.closers = append(c.closers, b.Close)
		identity, tasks, changes = b.Auth, b.Tasks, b.Notifier

		if cfg.Redis.Addr != "" {
			rdb, err := redisstream.NewClient(ctx, redisstream.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			c.closers = append(c.closers, func() { _ = rdb.Close() })
			stream := redisstream.New(rdb, c.Logger)
			b.Tasks.WithPublisher(stream)
			changes = stream
		}

		dir := cfg.Storage.Dir
		if dir == "" {
			dir = domain.BlobDir(c.StateDir)
		}
		blobs = localblob.New(dir, cfg.Storage.PublicURL)

	case domain.BackendMemory:
		b := memory.NewBackend(cfg.Tasks.Table, c.Sessions, c.Clock, c.Logger)
		identity, tasks, blobs, changes = b.Auth, b.Tasks, b.Blobs, b.Stream

	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Backend)
	}

	c.Identity = c.Metrics.WrapIdentity(identity)
	c.Tasks = c.Metrics.WrapTasks(tasks)
	c.Blobs = c.Metrics.WrapBlobs(blobs)
	c.Changes = c.Metrics.WrapChanges(changes)
	c.Logger.Info("backend connected", "backend", cfg.Backend, "table", cfg.Tasks.Table)
	return nil
}

// ServeMetrics serves /metrics in the background when metrics.addr is set.
func (c *Container) ServeMetrics(ctx context.Context) {
	addr := c.AppConfig.Metrics.Addr
	if addr == "" || c.Metrics == nil {
		return
	}
	go func() {
		if err := c.Metrics.Serve(ctx, addr, c.Logger); err != nil {
			c.Logger.Error("metrics server", "error", err)
		}
	}()
}

// Close releases backend connections and the log file.
func (c *Container) Close() error {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	if c.logFile != nil {
		return c.logFile.Close()
	}
	return nil
}

// Deps are the ports injected by NewWithDeps.
type Deps struct {
	Identity      domain.IdentityService
	Tasks         domain.TaskStore
	Blobs         domain.BlobStore
	Changes       domain.ChangeStream
	Sessions      domain.SessionStore
	Clock         domain.Clock
	Log           domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	Logger        *slog.Logger
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg *domain.Config, deps Deps) *Container {
	if cfg == nil {
		cfg = domain.NewDefaultConfig()
	}
	if deps.Log == nil {
		deps.Log = domain.NopLogger{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if deps.Clock == nil {
		deps.Clock = domain.RealClock{}
	}
	return &Container{
		Identity:      deps.Identity,
		Tasks:         deps.Tasks,
		Blobs:         deps.Blobs,
		Changes:       deps.Changes,
		Sessions:      deps.Sessions,
		Clock:         deps.Clock,
		Log:           deps.Log,
		ConfigLoader:  deps.ConfigLoader,
		ConfigManager: deps.ConfigManager,
		AppConfig:     cfg,
		Logger:        deps.Logger,
	}
}

// UseCase factory methods

// GetSessionUseCase returns a new GetSession use case.
func (c *Container) GetSessionUseCase() *usecase.GetSession {
	return usecase.NewGetSession(c.Identity)
}

// SignInUseCase returns a new SignIn use case.
func (c *Container) SignInUseCase() *usecase.SignIn {
	return usecase.NewSignIn(c.Identity, c.Log)
}

// SignUpUseCase returns a new SignUp use case.
func (c *Container) SignUpUseCase() *usecase.SignUp {
	return usecase.NewSignUp(c.Identity, c.Log)
}

// SignOutUseCase returns a new SignOut use case.
func (c *Container) SignOutUseCase() *usecase.SignOut {
	return usecase.NewSignOut(c.Identity, c.Log)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks)
}

// UploadImageUseCase returns a new UploadImage use case.
func (c *Container) UploadImageUseCase() *usecase.UploadImage {
	return usecase.NewUploadImage(c.Blobs, c.Clock, c.Log, c.AppConfig.Storage.Bucket, c.AppConfig.Storage.Namespace)
}

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Tasks, c.UploadImageUseCase(), c.Log)
}

// UpdateTaskUseCase returns a new UpdateTask use case.
func (c *Container) UpdateTaskUseCase() *usecase.UpdateTask {
	return usecase.NewUpdateTask(c.Tasks, c.UploadImageUseCase(), c.Log)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Tasks, c.Log)
}

// WatchTasksUseCase returns a new WatchTasks use case.
func (c *Container) WatchTasksUseCase() *usecase.WatchTasks {
	return usecase.NewWatchTasks(c.Changes, c.Log, c.AppConfig.Tasks.Table)
}

// ExportTasksUseCase returns a new ExportTasks use case.
func (c *Container) ExportTasksUseCase() *usecase.ExportTasks {
	return usecase.NewExportTasks(c.Tasks)
}

// ImportTasksUseCase returns a new ImportTasks use case.
func (c *Container) ImportTasksUseCase() *usecase.ImportTasks {
	return usecase.NewImportTasks(c.Tasks, c.Log)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}
