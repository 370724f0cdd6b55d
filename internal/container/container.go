package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/application/dispatcher"
	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/worker"
	"github.com/garyjia/backoffice-approvals/internal/metrics"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	db           *DatabaseBundle
	repositories *RepositoryBundle

	metrics     *metrics.Metrics
	mailer      port.MailDispatcher
	fileStorage port.FileStorage

	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle
	workers    *worker.Manager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database and repositories
// 2. Metrics
// 3. External clients and storage
// 4. Event dispatcher
// 5. Application services and notification subscriptions
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if c.config.Server.MetricsEnabled {
		c.metrics = metrics.New()
	}

	c.mailer = ProvideMailer(&c.config.Lark, &c.config.Notification, c.metrics, c.logger)
	c.fileStorage = ProvideStorage(&c.config.Export, c.logger)
	c.dispatcher = ProvideDispatcher(c.logger)

	services, err := ProvideServices(&ServiceDeps{
		Repos:       c.repositories,
		TxManager:   c.db.TransactionMgr,
		Dispatcher:  c.dispatcher,
		Mailer:      c.mailer,
		FileStorage: c.fileStorage,
		Metrics:     c.metrics,
		CashierRole: c.config.Approval.CashierRole,
		Logger:      c.logger,
	})
	if err != nil {
		c.db.Conn.Close()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.workers = ProvideWorkers(&c.config.Export, services, c.logger)
	c.logger.Info("Application services initialized",
		zap.Bool("notifications", c.mailer != nil),
		zap.Bool("archive", c.fileStorage != nil))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// StartWorkers launches the background workers (the scheduled register archiver).
// One-shot commands skip it and only call Start.
func (c *Container) StartWorkers(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	if c.workers.Count() == 0 {
		return nil
	}
	return c.workers.StartAll(ctx)
}

// Close stops workers, drains in-flight notifications, then closes the database.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("container already closed")
	}
	c.logger.Info("Closing container")

	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.db != nil && c.db.Conn != nil {
		if err := c.db.Conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.ready.Store(false)

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors: %v", len(errs), errs)
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil || c.db.Conn == nil:
		set("database", false, "not initialized")
	default:
		if err := c.db.Conn.PingContext(ctx); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	if c.dispatcher != nil {
		set("dispatcher", true, "")
	} else {
		set("dispatcher", false, "not initialized")
	}

	if c.mailer != nil {
		set("notifications", true, "lark")
	} else {
		set("notifications", true, "disabled")
	}

	switch {
	case c.workers == nil || c.workers.Count() == 0:
		set("archiver", true, "disabled")
	case c.workers.IsRunning():
		set("archiver", true, "running")
	default:
		set("archiver", true, "idle")
	}

	return status
}

func (c *Container) initDatabase() error {
	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	repos, err := ProvideRepositories(db, c.logger)
	if err != nil {
		db.Conn.Close()
		return err
	}

	c.db = db
	c.repositories = repos
	return nil
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Metrics returns the metrics registry, nil when disabled.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
