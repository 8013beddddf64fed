// Package container provides dependency injection and lifecycle management
// for the staff payment system following Clean Architecture principles.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/dispatcher"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/service"
	"github.com/daveytran/playback-stats-staff-payer/internal/billing"
	"github.com/daveytran/playback-stats-staff-payer/internal/config"
	"github.com/daveytran/playback-stats-staff-payer/internal/infrastructure/ledger"
	"github.com/daveytran/playback-stats-staff-payer/internal/infrastructure/notify"
	"github.com/daveytran/playback-stats-staff-payer/internal/infrastructure/runlock"
	"github.com/daveytran/playback-stats-staff-payer/internal/infrastructure/store"
	"github.com/daveytran/playback-stats-staff-payer/internal/rates"
	"github.com/daveytran/playback-stats-staff-payer/internal/staff"
	"github.com/daveytran/playback-stats-staff-payer/internal/worker"
	"github.com/daveytran/playback-stats-staff-payer/pkg/database"

	_ "github.com/mattn/go-sqlite3"
)

// LedgerBundle holds the active work ledger and, when the backend is the
// workbook, the concrete workbook handle so rates and staff can load from its
// sheets.
type LedgerBundle struct {
	Ledger   port.WorkLedger
	Workbook *ledger.WorkbookLedger
}

// LockBundle holds the run lock and the redis client behind it, when any.
type LockBundle struct {
	Lock  port.RunLock
	Redis *redis.Client
}

// ProvideDatabase opens the sqlite database and runs pending migrations.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run database migrations if migrations directory is configured
	if cfg.MigrationsDir != "" {
		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(cfg.MigrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

// ProvideLedger creates the configured work ledger backend.
func ProvideLedger(cfg *config.LedgerConfig, db *database.DB, logger *zap.Logger) (*LedgerBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ledger config is required")
	}

	switch cfg.Backend {
	case config.LedgerBackendWorkbook:
		wb := ledger.NewWorkbookLedger(cfg.WorkbookPath, logger)
		return &LedgerBundle{Ledger: wb, Workbook: wb}, nil

	case config.LedgerBackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite ledger requires a database")
		}
		return &LedgerBundle{Ledger: ledger.NewSQLiteLedger(db, logger)}, nil

	case config.LedgerBackendMemory:
		return &LedgerBundle{Ledger: ledger.NewMemoryLedger()}, nil

	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// ProvideRates loads the rate table from its configured source.
func ProvideRates(cfg *config.RatesConfig, workbook *ledger.WorkbookLedger) (billing.RateTable, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rates config is required")
	}

	switch cfg.Source {
	case config.SourceFile:
		return rates.LoadFile(cfg.Path)
	case config.SourceWorkbook:
		if workbook == nil {
			return nil, fmt.Errorf("rates source workbook requires the workbook ledger")
		}
		return workbook.LoadRates()
	default:
		return nil, fmt.Errorf("unknown rates source %q", cfg.Source)
	}
}

// ProvideStaff loads the staff directory from its configured source.
func ProvideStaff(cfg *config.StaffConfig, workbook *ledger.WorkbookLedger) (billing.StaffDirectory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("staff config is required")
	}

	switch cfg.Source {
	case config.SourceFile:
		return staff.LoadFile(cfg.Path)
	case config.SourceWorkbook:
		if workbook == nil {
			return nil, fmt.Errorf("staff source workbook requires the workbook ledger")
		}
		return workbook.LoadStaff()
	default:
		return nil, fmt.Errorf("unknown staff source %q", cfg.Source)
	}
}

// ProvideStore creates the invoice batch store over the database.
func ProvideStore(db *database.DB, logger *zap.Logger) (port.InvoiceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("invoice store requires a database")
	}
	return store.NewSQLiteStore(db, logger), nil
}

// ProvideRunLock creates the commit run lock. With redis enabled the lock
// spans processes; otherwise it serializes commits in this process only.
func ProvideRunLock(cfg *config.RedisConfig, logger *zap.Logger) (*LockBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if !cfg.Enabled {
		return &LockBundle{Lock: runlock.NewLocalLock()}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &LockBundle{
		Lock:  runlock.NewRedisLock(rdb, cfg.LockKey, cfg.LockTTL, logger),
		Redis: rdb,
	}, nil
}

// ProvideNotifier creates the chat notifier, or a no-op one when lark is
// disabled.
func ProvideNotifier(cfg *config.LarkConfig, logger *zap.Logger) port.Notifier {
	if cfg == nil || !cfg.Enabled {
		return notify.NopNotifier{}
	}
	return notify.NewLarkNotifier(notify.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		ChatID:    cfg.ChatID,
	}, logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(logger))
}

// ServiceDeps bundles everything the invoicing service needs.
type ServiceDeps struct {
	Ledger     port.WorkLedger
	Rates      billing.RateTable
	Staff      billing.StaffDirectory
	Store      port.InvoiceStore
	Lock       port.RunLock
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideInvoicingService wires the billing pipeline into the application
// service.
func ProvideInvoicingService(deps *ServiceDeps) (service.InvoicingService, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("work ledger is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return service.NewInvoicingService(
		deps.Ledger,
		deps.Rates,
		deps.Staff,
		deps.Store,
		deps.Lock,
		deps.Dispatcher,
		billing.NewSelector(deps.Logger),
		billing.NewAggregator(deps.Logger),
		billing.NewBatchBuilder(deps.Logger),
		&zapLoggerAdapter{logger: deps.Logger},
	), nil
}

// ProvideWorkers creates the worker manager and registers the scheduled run
// worker when enabled.
func ProvideWorkers(cfg *config.SchedulerConfig, invoicing service.InvoicingService, logger *zap.Logger) (*worker.Manager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewManager(logger)

	if cfg != nil && cfg.Enabled {
		if invoicing == nil {
			return nil, fmt.Errorf("scheduled runs require the invoicing service")
		}
		manager.Register(worker.NewRunScheduler(invoicing, worker.RunMode(cfg.Mode), cfg.Interval, logger))
	}

	return manager, nil
}
