package container

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/application/dispatcher"
	"github.com/garyjia/backoffice-approvals/internal/application/port"
	"github.com/garyjia/backoffice-approvals/internal/application/service"
	"github.com/garyjia/backoffice-approvals/internal/domain/approval"
	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/export"
	infraLark "github.com/garyjia/backoffice-approvals/internal/infrastructure/external/lark"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/persistence/repository"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/storage"
	"github.com/garyjia/backoffice-approvals/internal/infrastructure/worker"
	"github.com/garyjia/backoffice-approvals/internal/metrics"
	"github.com/garyjia/backoffice-approvals/pkg/database"
	"github.com/garyjia/backoffice-approvals/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Requests    port.RequestRepository
	Departments port.DepartmentRepository
	Divisions   port.DivisionRepository
	Users       port.UserRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Requests     service.RequestService
	Directory    service.DirectoryService
	Export       service.ExportService
	Notification service.NotificationService
}

// ServiceDeps lists what ProvideServices needs.
type ServiceDeps struct {
	Repos       *RepositoryBundle
	TxManager   port.TransactionManager
	Dispatcher  dispatcher.Dispatcher
	Mailer      port.MailDispatcher
	FileStorage port.FileStorage
	Metrics     *metrics.Metrics
	CashierRole string
	Logger      *zap.Logger
}

// ProvideDatabase opens the database, creating its directory, and applies
// pending migrations when AutoMigrate is set.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := database.NewMigrator(conn, logger).Run(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on the bundle's connection.
func ProvideRepositories(db *DatabaseBundle, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil || db.Conn == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &RepositoryBundle{
		Requests:    repository.NewRequestRepository(db.TransactionMgr, logger),
		Departments: repository.NewDepartmentRepository(db.Conn.DB, logger),
		Divisions:   repository.NewDivisionRepository(db.Conn.DB, logger),
		Users:       repository.NewUserRepository(db.Conn.DB, logger),
	}, nil
}

// ProvideMailer returns the Lark mailer, or nil when notifications are disabled.
func ProvideMailer(lark *LarkConfig, notif *NotificationConfig, m *metrics.Metrics, logger *zap.Logger) port.MailDispatcher {
	if !notif.Enabled {
		logger.Info("Requester notifications disabled")
		return nil
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     lark.AppID,
		AppSecret: lark.AppSecret,
		BaseURL:   lark.BaseURL,
	}, logger)

	var mailer port.MailDispatcher = infraLark.NewMailer(client, notif.Timeout, logger)
	if m != nil {
		mailer = metrics.InstrumentMailer(m, mailer)
	}
	return mailer
}

// ProvideStorage returns the register archive storage, or nil when no archive dir is set.
func ProvideStorage(cfg *ExportConfig, logger *zap.Logger) port.FileStorage {
	if cfg.ArchiveDir == "" {
		return nil
	}
	return storage.NewLocalFileStorage(cfg.ArchiveDir, logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger)))
}

// ProvideServices builds the application services and subscribes notifications
// to the dispatcher when a mailer is configured.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("transaction manager and dispatcher are required")
	}

	log := utils.NewKVLogger(deps.Logger)

	directory := service.NewDirectoryService(deps.Repos.Departments, deps.Repos.Divisions, deps.Repos.Users, log)
	resolver := approval.NewResolver(directory, approval.WithCashierRole(deps.CashierRole))

	var opts []service.RequestOption
	if deps.Metrics != nil {
		opts = append(opts, service.WithMetrics(deps.Metrics))
	}

	bundle := &ServiceBundle{
		Requests:  service.NewRequestService(deps.Repos.Requests, deps.Repos.Users, resolver, deps.TxManager, deps.Dispatcher, log, opts...),
		Directory: directory,
		Export:    service.NewExportService(deps.Repos.Requests, export.NewRegisterWriter(), deps.FileStorage, log),
	}

	if deps.Mailer != nil {
		bundle.Notification = service.NewNotificationService(deps.Repos.Users, deps.Mailer, log)
		bundle.Notification.Register(deps.Dispatcher)
	}

	return bundle, nil
}

// ProvideWorkers builds the worker manager. The register archiver is registered
// only when an archive interval and archive storage are both configured.
func ProvideWorkers(cfg *ExportConfig, services *ServiceBundle, logger *zap.Logger) *worker.Manager {
	m := worker.NewManager(logger)
	if cfg.ArchiveInterval <= 0 || cfg.ArchiveDir == "" {
		return m
	}
	m.Register(worker.NewArchiveWorker(services.Export, cfg.ArchiveInterval, workflow.State(cfg.ArchiveStatus), logger))
	return m
}
